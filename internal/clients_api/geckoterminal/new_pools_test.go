package geckoterminal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pool-sentry/internal/infra/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newPoolsFixture = `{
  "data": [
    {
      "id": "solana_8s9Y...pool",
      "type": "pool",
      "attributes": {
        "name": "WEN / SOL",
        "address": "8s9YPoolAddr",
        "base_token_price_usd": "0.000134",
        "pool_created_at": "2025-06-01T11:45:00Z",
        "reserve_in_usd": "45123.55",
        "fdv_usd": "1200000.0",
        "market_cap_usd": null,
        "price_change_percentage": {"h1": "12.5", "h24": "-3.1"},
        "volume_usd": {"h24": "98000.4"}
      },
      "relationships": {
        "base_token": {"data": {"id": "solana_WenMint1111", "type": "token"}},
        "quote_token": {"data": {"id": "solana_So11111111111111111111111111111111111111112", "type": "token"}},
        "dex": {"data": {"id": "raydium", "type": "dex"}}
      }
    }
  ]
}`

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(5*time.Second, 1024*1024)
	client.SetBaseURL(server.URL)
	return client, server
}

func TestGetNewPools(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/solana/new_pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(newPoolsFixture))
	}))
	defer server.Close()

	resp, err := client.GetNewPools(context.Background(), "solana", 1)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)

	pool := resp.Data[0]
	assert.Equal(t, "WEN / SOL", pool.Attributes.Name)
	assert.Equal(t, "8s9YPoolAddr", pool.Attributes.Address)
	assert.Equal(t, "raydium", pool.Dex())
	assert.Equal(t, "WenMint1111", pool.BaseTokenMint())
	assert.InDelta(t, 45123.55, pool.ReserveUSD(), 0.001)
	assert.InDelta(t, 12.5, pool.PriceChangeH1(), 0.001)

	// market_cap_usd is null, so market cap falls back to FDV.
	assert.InDelta(t, 1200000.0, pool.MarketCapUSD(), 0.001)

	createdAt := pool.CreatedAt()
	require.False(t, createdAt.IsZero())
	assert.Equal(t, time.Date(2025, 6, 1, 11, 45, 0, 0, time.UTC), createdAt.UTC())
}

func TestGetNewPoolsPagination(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	resp, err := client.GetNewPools(context.Background(), "solana", 2)
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestGetNewPoolsHTTPError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := client.GetNewPools(context.Background(), "solana", 1)
	require.Error(t, err)

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
	assert.True(t, retry.IsRetryable(httpErr))
}

func TestPoolCreatedAtMissing(t *testing.T) {
	pool := Pool{}
	assert.True(t, pool.CreatedAt().IsZero())
	assert.Zero(t, pool.ReserveUSD())
}
