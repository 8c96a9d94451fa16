package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	domcart "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type staticRefs struct{ n int }

func (s *staticRefs) NewReference() string {
	s.n++
	return fmt.Sprintf("ref-%d", s.n)
}

type fixture struct {
	products *memory.ProductRepository
	carts    *memory.CartRepository
	orders   *memory.OrderRepository
	uc       *PlaceOrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products: memory.NewProductRepository(),
		carts:    memory.NewCartRepository(),
		orders:   memory.NewOrderRepository(),
	}
	f.uc = NewPlaceOrderUseCase(f.orders, f.carts, f.products, memory.NewSequenceAllocator(), &staticRefs{}, nil, nil)
	return f
}

func (f *fixture) seedProduct(t *testing.T, id int64, name, price string, stock int) {
	t.Helper()
	p, err := catalog.New(id, name, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(context.Background(), p))
}

func (f *fixture) seedCart(t *testing.T, userID string, lines map[int64]int) {
	t.Helper()
	c := domcart.New(userID)
	for pid, qty := range lines {
		require.NoError(t, c.Add(pid, qty))
	}
	require.NoError(t, f.carts.Save(context.Background(), c))
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrderRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedProduct(t, 2, "mug", "5.00", 3)
	f.seedCart(t, "u1", map[int64]int{1: 2, 2: 1})

	result, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		UserID:        "u1",
		ShippingInfo:  "221B Baker St",
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	o := result.Order
	require.True(t, o.Total.Equal(decimal.RequireFromString("25.00")))
	require.Len(t, o.Lines, 2)
	require.Equal(t, domorder.StatusPending, o.Status)

	subtotals := map[int64]string{}
	for _, l := range o.Lines {
		subtotals[l.ProductID] = l.Subtotal.StringFixed(2)
	}
	require.Equal(t, "20.00", subtotals[1])
	require.Equal(t, "5.00", subtotals[2])

	require.Equal(t, 3, f.stock(t, 1))
	require.Equal(t, 2, f.stock(t, 2))

	// cart is cleared, not deleted
	c, err := f.carts.GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	// order is persisted and readable
	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.True(t, stored.Total.Equal(o.Total))
}

func TestOrderLinesAreSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedCart(t, "u1", map[int64]int{1: 1})

	result, err := f.uc.Execute(context.Background(), PlaceOrderInput{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "beans", result.Order.Lines[0].ProductName)
	require.Equal(t, "10.00", result.Order.Lines[0].UnitPrice.StringFixed(2))
}

func TestEmptyCartRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyCart)

	f.seedCart(t, "u2", map[int64]int{})
	_, err = f.uc.Execute(context.Background(), PlaceOrderInput{UserID: "u2"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestOwnerRequired(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		Items: []ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestProductNotFoundFailsWholeOrder(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedCart(t, "u1", map[int64]int{1: 1, 42: 1})

	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{UserID: "u1"})
	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, int64(42), nf.ProductID)

	// no partial reservation survived
	require.Equal(t, 5, f.stock(t, 1))
}

func TestInsufficientStockRollsBackEarlierReservations(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedProduct(t, 2, "mug", "5.00", 3)

	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		GuestEmail: "guest@example.com",
		Items: []ItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 100},
		},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(2), stockErr.ProductID)
	require.Equal(t, 100, stockErr.Requested)

	require.Equal(t, 5, f.stock(t, 1))
	require.Equal(t, 3, f.stock(t, 2))
}

type failingOrderRepo struct {
	domorder.Repository
}

func (f *failingOrderRepo) Insert(ctx context.Context, o *domorder.Order) error {
	return errors.New("disk on fire")
}

func TestPersistFailureReleasesReservedStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedCart(t, "u1", map[int64]int{1: 2})

	f.uc = NewPlaceOrderUseCase(
		&failingOrderRepo{Repository: f.orders},
		f.carts, f.products, memory.NewSequenceAllocator(), &staticRefs{}, nil, nil,
	)

	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{UserID: "u1"})
	require.ErrorIs(t, err, ErrRepository)

	// the central property: no stock held without an order
	require.Equal(t, 5, f.stock(t, 1))

	c, getErr := f.carts.GetByUser(context.Background(), "u1")
	require.NoError(t, getErr)
	require.False(t, c.IsEmpty(), "cart must survive a failed checkout")
}

func TestGuestCheckout(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)

	result, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		GuestEmail:    "guest@example.com",
		Items:         []ItemInput{{ProductID: 1, Quantity: 2}},
		PaymentMethod: "cod",
	})
	require.NoError(t, err)
	require.Equal(t, "guest@example.com", result.Order.Owner())
	require.Equal(t, 3, f.stock(t, 1))
}

func TestGuestQuantityValidation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)

	_, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		GuestEmail: "guest@example.com",
		Items:      []ItemInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, 5, f.stock(t, 1))
}

func TestIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, 1, "beans", "10.00", 5)
	f.seedCart(t, "u1", map[int64]int{1: 1})

	first, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		UserID:         "u1",
		IdempotencyKey: "k-1",
	})
	require.NoError(t, err)

	// the cart was cleared, but the same key must replay the stored order
	// instead of failing with an empty cart
	second, err := f.uc.Execute(context.Background(), PlaceOrderInput{
		UserID:         "u1",
		IdempotencyKey: "k-1",
	})
	require.NoError(t, err)
	require.Equal(t, first.Order.ID, second.Order.ID)
	require.Equal(t, 4, f.stock(t, 1), "replay must not reserve stock again")
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	const stock = 10
	f.seedProduct(t, 1, "beans", "10.00", stock)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), PlaceOrderInput{
				GuestEmail: fmt.Sprintf("guest-%d@example.com", i),
				Items:      []ItemInput{{ProductID: 1, Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			var stockErr *InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
		}
	}
	require.Equal(t, stock, succeeded)
	require.Equal(t, 0, f.stock(t, 1))
}
