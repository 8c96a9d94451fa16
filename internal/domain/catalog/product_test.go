package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, stock int) *Product {
	t.Helper()
	p, err := New(1, "espresso beans", decimal.RequireFromString("18.50"), stock)
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := New(1, "", decimal.NewFromInt(1), 1)
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = New(1, "beans", decimal.NewFromInt(-1), 1)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = New(1, "beans", decimal.NewFromInt(1), -1)
	require.ErrorIs(t, err, ErrInvalidStock)
}

func TestReserve(t *testing.T) {
	p := newTestProduct(t, 5)

	require.NoError(t, p.Reserve(3))
	require.Equal(t, 2, p.Stock)

	require.ErrorIs(t, p.Reserve(3), ErrInsufficientStock)
	require.Equal(t, 2, p.Stock)

	require.ErrorIs(t, p.Reserve(0), ErrInvalidQuantity)
	require.ErrorIs(t, p.Reserve(-1), ErrInvalidQuantity)
}

func TestRelease(t *testing.T) {
	p := newTestProduct(t, 5)
	require.NoError(t, p.Reserve(5))
	require.NoError(t, p.Release(5))
	require.Equal(t, 5, p.Stock)

	require.ErrorIs(t, p.Release(0), ErrInvalidQuantity)
}

func TestAverageRatingDerived(t *testing.T) {
	p := newTestProduct(t, 1)
	require.Zero(t, p.AverageRating())

	p.ApplyRatingDelta(5, 1)
	p.ApplyRatingDelta(3, 1)
	p.ApplyRatingDelta(4, 1)
	require.Equal(t, 4.0, p.AverageRating())
	require.Equal(t, int64(3), p.RatingCount)

	// drop the 3: (5+4)/2 = 4.5
	p.ApplyRatingDelta(-3, -1)
	require.Equal(t, 4.5, p.AverageRating())
	require.Equal(t, int64(2), p.RatingCount)
}

func TestAverageRatingRounding(t *testing.T) {
	p := newTestProduct(t, 1)
	p.ApplyRatingDelta(5, 1)
	p.ApplyRatingDelta(5, 1)
	p.ApplyRatingDelta(4, 1)
	// 14/3 = 4.666... → 4.7
	require.Equal(t, 4.7, p.AverageRating())
}

func TestAverageRatingResetsAtZeroCount(t *testing.T) {
	p := newTestProduct(t, 1)
	p.ApplyRatingDelta(4, 1)
	p.ApplyRatingDelta(-4, -1)
	require.Zero(t, p.AverageRating())
	require.Zero(t, p.RatingSum)
	require.Zero(t, p.RatingCount)
}
