package dedup

// Package dedup arbitrates concurrent processing attempts for string-keyed
// entities (token mints, pool addresses) across bot instances and restarts.
// A claim is a time-bounded exclusive reservation; the processed set is the
// permanent record of identifiers whose processing has concluded.

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ClaimStatus is the outcome of a TryClaim call. AlreadyInProgress and
// AlreadyProcessed are expected results, not errors.
type ClaimStatus int

const (
	// Claimed means the caller now holds the claim and must process the
	// identifier, then MarkProcessed and/or Release it.
	Claimed ClaimStatus = iota
	// AlreadyInProgress means a live claim exists elsewhere; skip this cycle.
	AlreadyInProgress
	// AlreadyProcessed means the identifier is in the processed set; skip
	// permanently.
	AlreadyProcessed
)

func (s ClaimStatus) String() string {
	switch s {
	case Claimed:
		return "claimed"
	case AlreadyInProgress:
		return "in_progress"
	case AlreadyProcessed:
		return "processed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ClaimResult carries the claim outcome. Token is set only when Status is
// Claimed; it must be presented back to Release.
type ClaimResult struct {
	Status ClaimStatus
	Token  string
}

var (
	// ErrEmptyIdentifier is returned before any backend call when the
	// identifier is empty.
	ErrEmptyIdentifier = errors.New("dedup: empty identifier")
	// ErrInvalidLease is returned when the lease duration is not positive.
	ErrInvalidLease = errors.New("dedup: lease duration must be positive")
)

// BackendError wraps a failure to reach the persistence backend. Callers
// choose the fallback policy; the store never retries internally.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("dedup: backend unavailable during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendUnavailable reports whether err stems from an unreachable backend.
func IsBackendUnavailable(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// Store is the deduplication lock store. Implementations must make TryClaim
// a single atomic step with respect to concurrent callers for the same
// identifier: never a separate exists-check followed by a set.
//
// Per-identifier state machine:
//
//	UNSEEN --TryClaim--> CLAIMED --MarkProcessed--> PROCESSED (terminal)
//	CLAIMED --Release--> UNSEEN                  (retryable outcome)
//	CLAIMED --lease expiry--> UNSEEN             (crash recovery)
type Store interface {
	// TryClaim atomically checks for a live claim, then processed-set
	// membership, then creates a claim with the given lease. Exactly one
	// concurrent caller can receive Claimed for a fresh identifier.
	TryClaim(ctx context.Context, identifier string, lease time.Duration) (ClaimResult, error)

	// MarkProcessed adds the identifier to the processed set (idempotent)
	// and stores metadata under its own expiry. It does not require or
	// touch a claim.
	MarkProcessed(ctx context.Context, identifier string, metadata map[string]string) error

	// Release deletes the live claim if token matches the one stored by
	// TryClaim, else no-op. Safe to call repeatedly and after expiry.
	Release(ctx context.Context, identifier, token string) error

	// IsProcessed reports processed-set membership. Diagnostics only; claim
	// decisions must go through TryClaim.
	IsProcessed(ctx context.Context, identifier string) (bool, error)

	// Count returns the processed-set cardinality. Diagnostics only.
	Count(ctx context.Context) (int64, error)
}

// Key classes shared by all backends. The namespace isolates unrelated bot
// deployments on one backend.
func lockKey(namespace, identifier string) string {
	return fmt.Sprintf("lock:%s:%s", namespace, identifier)
}

func processedKey(namespace string) string {
	return fmt.Sprintf("processed:%s", namespace)
}

func metadataKey(namespace, identifier string) string {
	return fmt.Sprintf("metadata:%s:%s", namespace, identifier)
}

func validateClaimArgs(identifier string, lease time.Duration) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if lease <= 0 {
		return ErrInvalidLease
	}
	return nil
}
