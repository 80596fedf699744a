package dedup

// In-memory Store for single-process deployments and tests. Same key
// semantics as the Redis backend, guarded by one mutex; claim expiry is
// checked lazily on access. Unlike the Redis backend, audit metadata never
// expires here: process lifetime is expected to be far below the metadata
// TTL, so sweeping it would be dead code.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memClaim struct {
	token     string
	expiresAt time.Time
}

type memState struct {
	mu        sync.Mutex
	claims    map[string]memClaim          // lock:{ns}:{id}
	processed map[string]map[string]bool   // processed:{ns} -> set
	metadata  map[string]map[string]string // metadata:{ns}:{id}
}

// MemoryStore implements Store without a backend. Multiple namespaces can
// share one underlying state via WithNamespace, mirroring a shared Redis.
type MemoryStore struct {
	state     *memState
	namespace string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		state: &memState{
			claims:    make(map[string]memClaim),
			processed: make(map[string]map[string]bool),
			metadata:  make(map[string]map[string]string),
		},
		namespace: namespace,
	}
}

// WithNamespace returns a view over the same state under another namespace.
func (s *MemoryStore) WithNamespace(namespace string) *MemoryStore {
	return &MemoryStore{state: s.state, namespace: namespace}
}

func (s *MemoryStore) TryClaim(ctx context.Context, identifier string, lease time.Duration) (ClaimResult, error) {
	if err := validateClaimArgs(identifier, lease); err != nil {
		return ClaimResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ClaimResult{}, err
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	key := lockKey(s.namespace, identifier)
	if claim, ok := st.claims[key]; ok {
		if time.Now().Before(claim.expiresAt) {
			return ClaimResult{Status: AlreadyInProgress}, nil
		}
		delete(st.claims, key) // expired, reclaimable
	}

	if st.processed[processedKey(s.namespace)][identifier] {
		return ClaimResult{Status: AlreadyProcessed}, nil
	}

	token := uuid.NewString()
	st.claims[key] = memClaim{token: token, expiresAt: time.Now().Add(lease)}
	return ClaimResult{Status: Claimed, Token: token}, nil
}

func (s *MemoryStore) MarkProcessed(ctx context.Context, identifier string, metadata map[string]string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	setKey := processedKey(s.namespace)
	if st.processed[setKey] == nil {
		st.processed[setKey] = make(map[string]bool)
	}
	st.processed[setKey][identifier] = true

	if len(metadata) > 0 {
		copied := make(map[string]string, len(metadata))
		for k, v := range metadata {
			copied[k] = v
		}
		st.metadata[metadataKey(s.namespace, identifier)] = copied
	}
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, identifier, token string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	key := lockKey(s.namespace, identifier)
	if claim, ok := st.claims[key]; ok && claim.token == token {
		delete(st.claims, key)
	}
	return nil
}

func (s *MemoryStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, ErrEmptyIdentifier
	}
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.processed[processedKey(s.namespace)][identifier], nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()
	return int64(len(st.processed[processedKey(s.namespace)])), nil
}

// Metadata returns a copy of the audit metadata for an identifier.
func (s *MemoryStore) Metadata(ctx context.Context, identifier string) (map[string]string, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	stored := st.metadata[metadataKey(s.namespace, identifier)]
	copied := make(map[string]string, len(stored))
	for k, v := range stored {
		copied[k] = v
	}
	return copied, nil
}
