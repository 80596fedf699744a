package bots_monitor

// Claim protocol shared by the monitors. Wraps the dedup store calls around
// one candidate: claim before filtering, then settle the claim according to
// the outcome. When the store is unreachable the monitors fail open: the
// candidate is processed best-effort, trading possible duplicate alerts for
// availability. That policy is deliberate and logged every time it applies.

import (
	"context"
	"time"

	"pool-sentry/internal/dedup"
	log "pool-sentry/internal/infra/log"

	"go.uber.org/zap"
)

type claimHandle struct {
	store    dedup.Store
	id       string
	token    string
	degraded bool
}

// claimCandidate tries to claim the identifier. The second return value
// reports whether the caller should proceed with this candidate.
func claimCandidate(ctx context.Context, store dedup.Store, id string, lease time.Duration) (claimHandle, bool) {
	result, err := store.TryClaim(ctx, id, lease)
	if err != nil {
		log.LogWarn("Dedup store unavailable, proceeding best-effort (duplicate alerts possible)",
			zap.String("identifier", id),
			zap.Error(err))
		return claimHandle{store: store, id: id, degraded: true}, true
	}

	switch result.Status {
	case dedup.Claimed:
		return claimHandle{store: store, id: id, token: result.Token}, true
	case dedup.AlreadyInProgress:
		log.LogDebug("Candidate claimed elsewhere, skipping this cycle", zap.String("identifier", id))
	case dedup.AlreadyProcessed:
		log.LogDebug("Candidate already processed, skipping permanently", zap.String("identifier", id))
	}
	return claimHandle{}, false
}

// settleRetry frees the claim without marking, so a later cycle can
// re-evaluate the candidate.
func (h claimHandle) settleRetry(ctx context.Context) {
	if h.degraded {
		return
	}
	if err := h.store.Release(ctx, h.id, h.token); err != nil {
		log.LogWarn("Failed to release claim", zap.String("identifier", h.id), zap.Error(err))
	}
}

// settleTerminal marks the identifier processed forever and frees the claim.
func (h claimHandle) settleTerminal(ctx context.Context, metadata map[string]string) {
	if h.degraded {
		return
	}
	if err := h.store.MarkProcessed(ctx, h.id, metadata); err != nil {
		log.LogWarn("Failed to mark candidate processed", zap.String("identifier", h.id), zap.Error(err))
	}
	if err := h.store.Release(ctx, h.id, h.token); err != nil {
		log.LogWarn("Failed to release claim", zap.String("identifier", h.id), zap.Error(err))
	}
}
