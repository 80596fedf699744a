package dedup_test

// Runs the same contract against a real Redis. Set DEDUP_TEST_REDIS_ADDR
// (e.g. localhost:6379) to enable; keys are namespaced per test run so a
// shared instance stays clean enough.

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"pool-sentry/internal/dedup"
)

func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("DEDUP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DEDUP_TEST_REDIS_ADDR not set, skipping Redis contract test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis at %s not reachable: %v", addr, err)
	}

	run := time.Now().UnixNano()
	var n int
	runStoreContract(t, func(t *testing.T) (namespaced, namespaced) {
		n++
		ns := fmt.Sprintf("test-%d-%d", run, n)
		store := dedup.NewRedisStoreFromClient(client, ns, time.Hour)
		return store, store.WithNamespace(ns + "-other")
	})
}

func TestRedisStoreBackendUnavailable(t *testing.T) {
	// Port 1 is expected to refuse connections immediately.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	store := dedup.NewRedisStoreFromClient(client, "unreachable", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.TryClaim(ctx, "TokenABC", time.Minute)
	if err == nil {
		t.Fatal("expected an error from an unreachable backend")
	}
	if !dedup.IsBackendUnavailable(err) {
		t.Fatalf("expected BackendError, got %v", err)
	}

	if err := store.MarkProcessed(ctx, "TokenABC", nil); !dedup.IsBackendUnavailable(err) {
		t.Fatalf("expected BackendError from MarkProcessed, got %v", err)
	}
}
