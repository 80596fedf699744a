package dedup

// Redis-backed Store. Claim arbitration runs inside Lua scripts so the
// lock-check, processed-check and claim-create happen as one atomic step
// on the server, with PX expiry recovering abandoned claims.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// tryClaimScript: KEYS[1] = lock key, KEYS[2] = processed set key,
// ARGV[1] = identifier, ARGV[2] = claim token, ARGV[3] = lease in ms.
var tryClaimScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return "in_progress"
end
if redis.call("SISMEMBER", KEYS[2], ARGV[1]) == 1 then
  return "processed"
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return "claimed"
`)

// releaseScript deletes the lock only when the presented token matches the
// stored one, so a delayed caller cannot release a claim it no longer holds.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store on a Redis backend.
type RedisStore struct {
	client      redis.UniversalClient
	namespace   string
	metadataTTL time.Duration
}

var _ Store = (*RedisStore)(nil)

// DefaultMetadataTTL matches the retention of audit metadata attached to
// processed identifiers. Processed-set membership itself is permanent.
const DefaultMetadataTTL = 30 * 24 * time.Hour

// NewRedisStore connects a new client and returns a store scoped to the
// given namespace. metadataTTL <= 0 falls back to DefaultMetadataTTL.
func NewRedisStore(addr, password string, db int, namespace string, metadataTTL time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, namespace, metadataTTL)
}

// NewRedisStoreFromClient wraps an existing client, for callers that manage
// the connection themselves (tests, shared pools).
func NewRedisStoreFromClient(client redis.UniversalClient, namespace string, metadataTTL time.Duration) *RedisStore {
	if metadataTTL <= 0 {
		metadataTTL = DefaultMetadataTTL
	}
	return &RedisStore{
		client:      client,
		namespace:   namespace,
		metadataTTL: metadataTTL,
	}
}

// WithNamespace returns a store view over the same backend under a different
// namespace. Key classes do not overlap between namespaces.
func (s *RedisStore) WithNamespace(namespace string) *RedisStore {
	return &RedisStore{
		client:      s.client,
		namespace:   namespace,
		metadataTTL: s.metadataTTL,
	}
}

// Ping verifies backend reachability at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &BackendError{Op: "ping", Err: err}
	}
	return nil
}

func (s *RedisStore) TryClaim(ctx context.Context, identifier string, lease time.Duration) (ClaimResult, error) {
	if err := validateClaimArgs(identifier, lease); err != nil {
		return ClaimResult{}, err
	}

	token := uuid.NewString()
	keys := []string{lockKey(s.namespace, identifier), processedKey(s.namespace)}
	res, err := tryClaimScript.Run(ctx, s.client, keys, identifier, token, lease.Milliseconds()).Text()
	if err != nil {
		return ClaimResult{}, &BackendError{Op: "try_claim", Err: err}
	}

	switch res {
	case "in_progress":
		return ClaimResult{Status: AlreadyInProgress}, nil
	case "processed":
		return ClaimResult{Status: AlreadyProcessed}, nil
	default:
		return ClaimResult{Status: Claimed, Token: token}, nil
	}
}

func (s *RedisStore) MarkProcessed(ctx context.Context, identifier string, metadata map[string]string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, processedKey(s.namespace), identifier)
	if len(metadata) > 0 {
		metaKey := metadataKey(s.namespace, identifier)
		fields := make(map[string]interface{}, len(metadata))
		for k, v := range metadata {
			fields[k] = v
		}
		pipe.HSet(ctx, metaKey, fields)
		pipe.Expire(ctx, metaKey, s.metadataTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &BackendError{Op: "mark_processed", Err: err}
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, identifier, token string) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	keys := []string{lockKey(s.namespace, identifier)}
	if err := releaseScript.Run(ctx, s.client, keys, token).Err(); err != nil && err != redis.Nil {
		return &BackendError{Op: "release", Err: err}
	}
	return nil
}

func (s *RedisStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, ErrEmptyIdentifier
	}
	member, err := s.client.SIsMember(ctx, processedKey(s.namespace), identifier).Result()
	if err != nil {
		return false, &BackendError{Op: "is_processed", Err: err}
	}
	return member, nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, processedKey(s.namespace)).Result()
	if err != nil {
		return 0, &BackendError{Op: "count", Err: err}
	}
	return n, nil
}

// Metadata loads the audit metadata stored by MarkProcessed. Returns an
// empty map after the metadata TTL has elapsed; processed-set membership
// outlives it.
func (s *RedisStore) Metadata(ctx context.Context, identifier string) (map[string]string, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	fields, err := s.client.HGetAll(ctx, metadataKey(s.namespace, identifier)).Result()
	if err != nil {
		return nil, &BackendError{Op: "metadata", Err: err}
	}
	return fields, nil
}
