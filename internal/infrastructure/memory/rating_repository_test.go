package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/rating"
	"github.com/stretchr/testify/require"
)

func mustRating(t *testing.T, id int64, userID string, productID int64, value int) *domain.Rating {
	t.Helper()
	r, err := domain.New(id, userID, productID, value, "")
	require.NoError(t, err)
	return r
}

func TestSwapInsertsAndReplaces(t *testing.T) {
	repo := NewRatingRepository()
	ctx := context.Background()

	prev, err := repo.Swap(ctx, mustRating(t, 1, "u1", 7, 5))
	require.NoError(t, err)
	require.Nil(t, prev)

	prev, err = repo.Swap(ctx, mustRating(t, 2, "u1", 7, 3))
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, 5, prev.Value)

	// Replacing keeps the original identity.
	got, err := repo.Get(ctx, "u1", 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ID)
	require.Equal(t, 3, got.Value)
}

func TestRemoveReturnsRating(t *testing.T) {
	repo := NewRatingRepository()
	ctx := context.Background()

	_, err := repo.Swap(ctx, mustRating(t, 1, "u1", 7, 4))
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, "u1", 7)
	require.NoError(t, err)
	require.Equal(t, 4, removed.Value)

	_, err = repo.Get(ctx, "u1", 7)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Remove(ctx, "u1", 7)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByProduct(t *testing.T) {
	repo := NewRatingRepository()
	ctx := context.Background()

	_, err := repo.Swap(ctx, mustRating(t, 1, "u1", 7, 5))
	require.NoError(t, err)
	_, err = repo.Swap(ctx, mustRating(t, 2, "u2", 7, 3))
	require.NoError(t, err)
	_, err = repo.Swap(ctx, mustRating(t, 3, "u1", 8, 1))
	require.NoError(t, err)

	list, err := repo.ListByProduct(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
