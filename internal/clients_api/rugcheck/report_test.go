package rugcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryFixture = `{
  "tokenProgram": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
  "tokenType": "",
  "score": 1850,
  "risks": [
    {"name": "Low amount of LP Providers", "value": "", "description": "Only a few users are providing liquidity", "score": 400, "level": "warn"},
    {"name": "Top 10 holders high ownership", "value": "41.2%", "description": "Top 10 holders own a large share", "score": 1450, "level": "danger"}
  ]
}`

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(5*time.Second, 1024*1024)
	client.SetBaseURL(server.URL)
	return client, server
}

func TestGetReportSummary(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/WenMint1111/report/summary", r.URL.Path)
		w.Write([]byte(summaryFixture))
	}))
	defer server.Close()

	summary, err := client.GetReportSummary(context.Background(), "WenMint1111")
	require.NoError(t, err)
	assert.Equal(t, 1850, summary.Score)
	require.Len(t, summary.Risks, 2)
	assert.Equal(t, "danger", summary.Risks[1].Level)
	assert.Equal(t, "Low amount of LP Providers, Top 10 holders high ownership", summary.RiskNames())
}

func TestGetReportSummaryRequiresMint(t *testing.T) {
	client := NewClient(5*time.Second, 1024*1024)
	_, err := client.GetReportSummary(context.Background(), "")
	assert.Error(t, err)
}

func TestGetReportSummaryUpstreamError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := client.GetReportSummary(context.Background(), "WenMint1111")
	assert.Error(t, err)
}

func TestRiskNamesEmpty(t *testing.T) {
	summary := &ReportSummary{}
	assert.Equal(t, "none", summary.RiskNames())
}
