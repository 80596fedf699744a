package dedup_test

import (
	"testing"

	"pool-sentry/internal/dedup"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (namespaced, namespaced) {
		store := dedup.NewMemoryStore("bot1")
		return store, store.WithNamespace("bot2")
	})
}
