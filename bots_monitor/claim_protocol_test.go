package bots_monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"pool-sentry/internal/dedup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore records dedup store calls so the tests can assert on the claim
// protocol without a real backend.
type stubStore struct {
	claimResult dedup.ClaimResult
	claimErr    error

	marked    []string
	markedMD  map[string]string
	released  []string
	relTokens []string
}

func (s *stubStore) TryClaim(ctx context.Context, identifier string, lease time.Duration) (dedup.ClaimResult, error) {
	return s.claimResult, s.claimErr
}

func (s *stubStore) MarkProcessed(ctx context.Context, identifier string, metadata map[string]string) error {
	s.marked = append(s.marked, identifier)
	s.markedMD = metadata
	return nil
}

func (s *stubStore) Release(ctx context.Context, identifier, token string) error {
	s.released = append(s.released, identifier)
	s.relTokens = append(s.relTokens, token)
	return nil
}

func (s *stubStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	return false, nil
}

func (s *stubStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.marked)), nil
}

func TestClaimCandidateClaimed(t *testing.T) {
	store := &stubStore{claimResult: dedup.ClaimResult{Status: dedup.Claimed, Token: "tok-1"}}

	handle, proceed := claimCandidate(context.Background(), store, "PoolA", time.Minute)
	require.True(t, proceed)
	assert.Equal(t, "tok-1", handle.token)
	assert.False(t, handle.degraded)
}

func TestClaimCandidateSkipsInProgressAndProcessed(t *testing.T) {
	for _, status := range []dedup.ClaimStatus{dedup.AlreadyInProgress, dedup.AlreadyProcessed} {
		store := &stubStore{claimResult: dedup.ClaimResult{Status: status}}
		_, proceed := claimCandidate(context.Background(), store, "PoolA", time.Minute)
		assert.False(t, proceed, "status %v should not proceed", status)
	}
}

func TestClaimCandidateFailsOpenOnBackendError(t *testing.T) {
	store := &stubStore{claimErr: &dedup.BackendError{Op: "try_claim", Err: errors.New("connection refused")}}

	handle, proceed := claimCandidate(context.Background(), store, "PoolA", time.Minute)
	require.True(t, proceed, "backend failure must not block processing")
	assert.True(t, handle.degraded)

	// Degraded handles must not touch the store on settle.
	handle.settleRetry(context.Background())
	handle.settleTerminal(context.Background(), map[string]string{"reason": "signal_sent"})
	assert.Empty(t, store.marked)
	assert.Empty(t, store.released)
}

func TestSettleTerminalMarksAndReleases(t *testing.T) {
	store := &stubStore{claimResult: dedup.ClaimResult{Status: dedup.Claimed, Token: "tok-9"}}

	handle, proceed := claimCandidate(context.Background(), store, "PoolB", time.Minute)
	require.True(t, proceed)

	handle.settleTerminal(context.Background(), map[string]string{"reason": "signal_sent"})
	require.Equal(t, []string{"PoolB"}, store.marked)
	assert.Equal(t, "signal_sent", store.markedMD["reason"])
	require.Equal(t, []string{"PoolB"}, store.released)
	assert.Equal(t, []string{"tok-9"}, store.relTokens)
}

func TestSettleRetryOnlyReleases(t *testing.T) {
	store := &stubStore{claimResult: dedup.ClaimResult{Status: dedup.Claimed, Token: "tok-2"}}

	handle, proceed := claimCandidate(context.Background(), store, "PoolC", time.Minute)
	require.True(t, proceed)

	handle.settleRetry(context.Background())
	assert.Empty(t, store.marked)
	assert.Equal(t, []string{"PoolC"}, store.released)
	assert.Equal(t, []string{"tok-2"}, store.relTokens)
}
