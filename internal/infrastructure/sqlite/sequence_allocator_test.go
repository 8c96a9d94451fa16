package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-checkout/app/internal/domain/sequence"
	"github.com/stretchr/testify/require"
)

func TestNextSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.db")
	ctx := context.Background()

	a, err := Open(path)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		got, nextErr := a.Next(ctx, sequence.KindOrder)
		require.NoError(t, nextErr)
		require.Equal(t, want, got)
	}
	require.NoError(t, a.Close())

	// counters persist across restarts: values are never reused
	a, err = Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	got, err := a.Next(ctx, sequence.KindOrder)
	require.NoError(t, err)
	require.Equal(t, int64(4), got)
}

func TestKindsAreIndependent(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "seq.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()
	ctx := context.Background()

	_, err = a.Next(ctx, sequence.KindOrder)
	require.NoError(t, err)

	got, err := a.Next(ctx, sequence.KindRating)
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestConcurrentNextNoDuplicates(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "seq.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()
	ctx := context.Background()

	const n = 100
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, nextErr := a.Next(ctx, sequence.KindOrder); nextErr == nil {
				results <- v
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	count := 0
	for v := range results {
		require.False(t, seen[v], "duplicate id %d", v)
		seen[v] = true
		count++
	}
	require.Equal(t, n, count)
}
