package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/app/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService   = "checkout-service"
	useCasePlaceOrder = "checkout.place_order"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond
)

// PlaceOrderUseCase is the checkout saga. Each attempt walks
// Started → ItemsValidated → StockReserved → OrderPersisted → CartCleared,
// and any failure past the reservation step releases every reserved line
// before returning, so stock is never left decremented without an order.
type PlaceOrderUseCase struct {
	orders   domorder.Repository
	carts    domcart.Repository
	products catalog.Repository
	seq      sequence.Allocator
	refs     ReferenceGenerator

	publisher domoutbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	relCounter   observability.Counter   // stock_compensation_releases_total
}

// NewPlaceOrderUseCase wires the dependencies required to execute a checkout.
func NewPlaceOrderUseCase(
	orders domorder.Repository,
	carts domcart.Repository,
	products catalog.Repository,
	seq sequence.Allocator,
	refs ReferenceGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(
		observability.F("service", checkoutService),
	)

	return &PlaceOrderUseCase{
		orders:       orders,
		carts:        carts,
		products:     products,
		seq:          seq,
		refs:         refs,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		relCounter:   metricsProvider.Counter(observability.MStockReleases),
	}
}

// ItemInput is one requested line for guest checkout.
type ItemInput struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderInput struct {
	UserID         string
	GuestEmail     string
	Items          []ItemInput // guest checkout only; authenticated checkout reads the cart
	ShippingInfo   string
	PaymentMethod  string
	IdempotencyKey string
}

type PlaceOrderResult struct {
	Order *domorder.Order
}

// Execute performs the checkout flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCasePlaceOrder))

	tracer := observability.NopTracer()
	if uc.tel != nil {
		tracer = uc.tel.Tracer()
	}
	ctx, span := tracer.Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("checkout.user_id", cmd.UserID),
		attribute.Bool("checkout.guest", cmd.UserID == ""),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePlaceOrder),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCasePlaceOrder),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.UserID == "" && cmd.GuestEmail == "" {
		outcome, statusText = "error", "OWNER_REQUIRED"
		return nil, newValidation("user id or guest email is required")
	}
	if cmd.UserID == "" && len(cmd.Items) == 0 {
		outcome, statusText = "error", "EMPTY_CART"
		return nil, ErrEmptyCart
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	if cmd.IdempotencyKey != "" {
		owner := cmd.UserID
		if owner == "" {
			owner = cmd.GuestEmail
		}
		existing, repoErr := uc.orders.FindByIdempotency(ctx, owner, cmd.IdempotencyKey)
		switch {
		case repoErr == nil:
			statusText = "IDEMPOTENT_REPLAY"
			span.AddEvent("order.idempotent_replay",
				trace.WithAttributes(attribute.Int64("order.id", existing.ID)),
			)
			return &PlaceOrderResult{Order: existing}, nil
		case errors.Is(repoErr, domorder.ErrNotFound):
			// continue
		default:
			outcome, statusText = "error", "IDEMPOTENCY_LOOKUP_FAILED"
			return nil, wrapRepositoryError(repoErr)
		}
	}

	// Started → ItemsValidated: pure reads, no side effects yet.
	items, userCart, err := uc.collectItems(ctx, cmd)
	if err != nil {
		outcome, statusText = "error", "ITEMS_INVALID"
		return nil, err
	}

	snapshots := make(map[int64]*catalog.Product, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			outcome, statusText = "error", "QUANTITY_INVALID"
			return nil, newValidation("quantity for product %d must be greater than zero", it.ProductID)
		}
		p, getErr := uc.products.Get(ctx, it.ProductID)
		if getErr != nil {
			if errors.Is(getErr, catalog.ErrNotFound) {
				outcome, statusText = "error", "PRODUCT_NOT_FOUND"
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			}
			outcome, statusText = "error", "PRODUCT_LOOKUP_FAILED"
			return nil, wrapRepositoryError(getErr)
		}
		if p.Stock < it.Quantity {
			outcome, statusText = "error", "INSUFFICIENT_STOCK"
			return nil, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: p.Stock}
		}
		snapshots[it.ProductID] = p
	}

	// ItemsValidated → StockReserved: each reservation is individually atomic;
	// any failure rolls back the lines reserved so far.
	reserved := make([]ItemInput, 0, len(items))
	for _, it := range items {
		if resErr := uc.products.Reserve(ctx, it.ProductID, it.Quantity); resErr != nil {
			uc.releaseAll(ctx, reserved, logger)
			switch {
			case errors.Is(resErr, catalog.ErrInsufficientStock):
				outcome, statusText = "error", "INSUFFICIENT_STOCK"
				available := 0
				if p, getErr := uc.products.Get(ctx, it.ProductID); getErr == nil {
					available = p.Stock
				}
				return nil, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: available}
			case errors.Is(resErr, catalog.ErrNotFound):
				outcome, statusText = "error", "PRODUCT_NOT_FOUND"
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			default:
				outcome, statusText = "error", "RESERVE_FAILED"
				return nil, wrapRepositoryError(resErr)
			}
		}
		reserved = append(reserved, it)
	}

	lines := make([]domorder.Line, 0, len(items))
	for _, it := range items {
		p := snapshots[it.ProductID]
		line, lineErr := domorder.NewLine(p.ID, p.Name, p.Price, it.Quantity)
		if lineErr != nil {
			uc.releaseAll(ctx, reserved, logger)
			outcome, statusText = "error", "LINE_SNAPSHOT_FAILED"
			return nil, fmt.Errorf("checkout: snapshot line: %w", lineErr)
		}
		lines = append(lines, line)
	}

	orderID, seqErr := uc.seq.Next(ctx, sequence.KindOrder)
	if seqErr != nil {
		uc.releaseAll(ctx, reserved, logger)
		outcome, statusText = "error", "ID_ALLOCATION_FAILED"
		return nil, wrapRepositoryError(seqErr)
	}

	entity, derr := domorder.New(orderID, uc.refs.NewReference(), cmd.UserID, cmd.GuestEmail,
		cmd.IdempotencyKey, lines, cmd.ShippingInfo, cmd.PaymentMethod)
	if derr != nil {
		uc.releaseAll(ctx, reserved, logger)
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("checkout: construct order: %w", derr)
	}

	// StockReserved → OrderPersisted. A persist failure is the central hazard:
	// reserved stock with no order must be compensated before surfacing it.
	if insErr := uc.orders.Insert(ctx, entity); insErr != nil {
		uc.releaseAll(ctx, reserved, logger)
		if errors.Is(insErr, domorder.ErrConflict) && cmd.IdempotencyKey != "" {
			if existing, lookupErr := uc.orders.FindByIdempotency(ctx, entity.Owner(), cmd.IdempotencyKey); lookupErr == nil {
				statusText = "IDEMPOTENT_REPLAY"
				span.AddEvent("order.idempotent_replay",
					trace.WithAttributes(attribute.Int64("order.id", existing.ID)),
				)
				return &PlaceOrderResult{Order: existing}, nil
			}
		}
		outcome, statusText = "error", "ORDER_PERSIST_FAILED"
		return nil, wrapRepositoryError(insErr)
	}

	// OrderPersisted → CartCleared. The order exists and its stock is held;
	// a stale cart is recoverable, so a clear failure is logged, not fatal.
	if userCart != nil {
		userCart.Clear()
		if saveErr := uc.carts.Save(ctx, userCart); saveErr != nil {
			logger.Warn("cart_clear_failed",
				observability.F("order_id", entity.ID),
				observability.F("error", saveErr.Error()),
			)
		}
	}

	uc.publish(ctx, entity, logger)

	span.SetAttributes(
		attribute.Int64("order.id", entity.ID),
		attribute.String("order.total", entity.Total.StringFixed(2)),
	)
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.Int64("order.id", entity.ID)),
	)

	return &PlaceOrderResult{Order: entity}, nil
}

// collectItems resolves the lines to order: the user's cart for authenticated
// checkout, the explicit item list for guests.
func (uc *PlaceOrderUseCase) collectItems(ctx context.Context, cmd PlaceOrderInput) ([]ItemInput, *domcart.Cart, error) {
	if cmd.UserID == "" {
		return cmd.Items, nil, nil
	}

	c, err := uc.carts.GetByUser(ctx, cmd.UserID)
	if err != nil {
		if errors.Is(err, domcart.ErrNotFound) {
			return nil, nil, ErrEmptyCart
		}
		return nil, nil, wrapRepositoryError(err)
	}
	if c.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}

	items := make([]ItemInput, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, ItemInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items, c, nil
}

// releaseAll is the compensation path: it returns every already-reserved line
// to stock. Release failures are logged and counted; there is nothing more the
// saga can do about them synchronously.
func (uc *PlaceOrderUseCase) releaseAll(ctx context.Context, reserved []ItemInput, logger observability.Logger) {
	for _, it := range reserved {
		if err := uc.products.Release(ctx, it.ProductID, it.Quantity); err != nil {
			logger.Error("stock_release_failed",
				observability.F("product_id", it.ProductID),
				observability.F("quantity", it.Quantity),
				observability.F("error", err.Error()),
			)
			continue
		}
		uc.relCounter.Add(1)
	}
}

func (uc *PlaceOrderUseCase) publish(ctx context.Context, entity *domorder.Order, logger observability.Logger) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := uc.publisher.Publish(pubCtx, domorder.NewOrderPlacedEvent(entity)); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("peer", publishPeer),
			observability.F("endpoint", publishEndpoint),
			observability.F("order_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}
}
