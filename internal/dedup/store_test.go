package dedup_test

// Contract tests shared by both backends. Each property corresponds to a
// guarantee monitors rely on: at-most-once claiming, terminal processed
// state, lease recovery, token-checked release, namespace isolation.

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-sentry/internal/dedup"
)

// namespaced gives a second view on the same backend state.
type namespaced interface {
	dedup.Store
	Metadata(ctx context.Context, identifier string) (map[string]string, error)
}

type storeFactory func(t *testing.T) (store namespaced, other namespaced)

func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("rejects empty identifier", func(t *testing.T) {
		store, _ := newStore(t)
		_, err := store.TryClaim(ctx, "", time.Minute)
		assert.ErrorIs(t, err, dedup.ErrEmptyIdentifier)

		assert.ErrorIs(t, store.MarkProcessed(ctx, "", nil), dedup.ErrEmptyIdentifier)
		assert.ErrorIs(t, store.Release(ctx, "", "tok"), dedup.ErrEmptyIdentifier)
	})

	t.Run("rejects non-positive lease", func(t *testing.T) {
		store, _ := newStore(t)
		_, err := store.TryClaim(ctx, "TokenABC", 0)
		assert.ErrorIs(t, err, dedup.ErrInvalidLease)
		_, err = store.TryClaim(ctx, "TokenABC", -time.Second)
		assert.ErrorIs(t, err, dedup.ErrInvalidLease)
	})

	t.Run("mutual exclusion under concurrent claims", func(t *testing.T) {
		store, _ := newStore(t)

		const attempts = 32
		var wg sync.WaitGroup
		results := make([]dedup.ClaimResult, attempts)
		errs := make([]error, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = store.TryClaim(ctx, "race-pool", 10*time.Minute)
			}(i)
		}
		wg.Wait()

		claimed := 0
		for i := 0; i < attempts; i++ {
			require.NoError(t, errs[i])
			switch results[i].Status {
			case dedup.Claimed:
				claimed++
				assert.NotEmpty(t, results[i].Token)
			case dedup.AlreadyInProgress:
			default:
				t.Fatalf("unexpected status %v for a fresh identifier", results[i].Status)
			}
		}
		assert.Equal(t, 1, claimed, "exactly one concurrent caller may win the claim")
	})

	t.Run("processed state is terminal", func(t *testing.T) {
		store, _ := newStore(t)

		require.NoError(t, store.MarkProcessed(ctx, "done-token", map[string]string{"reason": "signal_sent"}))
		// Idempotent re-mark.
		require.NoError(t, store.MarkProcessed(ctx, "done-token", nil))

		for i := 0; i < 3; i++ {
			res, err := store.TryClaim(ctx, "done-token", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, dedup.AlreadyProcessed, res.Status)
		}

		processed, err := store.IsProcessed(ctx, "done-token")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("lease expiry makes identifier reclaimable", func(t *testing.T) {
		store, _ := newStore(t)

		res, err := store.TryClaim(ctx, "crashy", 60*time.Millisecond)
		require.NoError(t, err)
		require.Equal(t, dedup.Claimed, res.Status)

		// Within the lease a second caller is locked out.
		res2, err := store.TryClaim(ctx, "crashy", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.AlreadyInProgress, res2.Status)

		// No Release, no MarkProcessed: the lease alone recovers the key.
		time.Sleep(120 * time.Millisecond)

		res3, err := store.TryClaim(ctx, "crashy", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.Claimed, res3.Status)
		assert.NotEqual(t, res.Token, res3.Token)
	})

	t.Run("release is idempotent and token-checked", func(t *testing.T) {
		store, _ := newStore(t)

		// Releasing a never-claimed identifier is a no-op.
		require.NoError(t, store.Release(ctx, "ghost", "no-such-token"))

		res, err := store.TryClaim(ctx, "guarded", 10*time.Minute)
		require.NoError(t, err)
		require.Equal(t, dedup.Claimed, res.Status)

		// A stale token must not free the claim.
		require.NoError(t, store.Release(ctx, "guarded", "stale-token"))
		res2, err := store.TryClaim(ctx, "guarded", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.AlreadyInProgress, res2.Status)

		// The matching token does, repeatedly and harmlessly.
		require.NoError(t, store.Release(ctx, "guarded", res.Token))
		require.NoError(t, store.Release(ctx, "guarded", res.Token))

		res3, err := store.TryClaim(ctx, "guarded", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.Claimed, res3.Status)

		// Release never touches processed membership.
		processed, err := store.IsProcessed(ctx, "guarded")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("namespaces do not interfere", func(t *testing.T) {
		store, other := newStore(t)

		res1, err := store.TryClaim(ctx, "A", 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.Claimed, res1.Status)

		res2, err := other.TryClaim(ctx, "A", 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, dedup.Claimed, res2.Status)

		require.NoError(t, store.MarkProcessed(ctx, "A", nil))
		processedOther, err := other.IsProcessed(ctx, "A")
		require.NoError(t, err)
		assert.False(t, processedOther)
	})

	t.Run("count tracks distinct processed identifiers", func(t *testing.T) {
		store, _ := newStore(t)

		before, err := store.Count(ctx)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("counted-%d", i%3) // duplicates on purpose
			require.NoError(t, store.MarkProcessed(ctx, id, nil))
		}

		after, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+3, after)
	})

	t.Run("claim mark release round trip", func(t *testing.T) {
		store, _ := newStore(t)

		res, err := store.TryClaim(ctx, "TokenABC", 600*time.Second)
		require.NoError(t, err)
		require.Equal(t, dedup.Claimed, res.Status)

		second, err := store.TryClaim(ctx, "TokenABC", 600*time.Second)
		require.NoError(t, err)
		assert.Equal(t, dedup.AlreadyInProgress, second.Status)

		require.NoError(t, store.MarkProcessed(ctx, "TokenABC", map[string]string{
			"reason": "signal_sent",
			"symbol": "ABC",
		}))
		require.NoError(t, store.Release(ctx, "TokenABC", res.Token))

		third, err := store.TryClaim(ctx, "TokenABC", 600*time.Second)
		require.NoError(t, err)
		assert.Equal(t, dedup.AlreadyProcessed, third.Status)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(1))

		meta, err := store.Metadata(ctx, "TokenABC")
		require.NoError(t, err)
		assert.Equal(t, "signal_sent", meta["reason"])
	})
}
