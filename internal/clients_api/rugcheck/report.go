package rugcheck

// Package rugcheck contains the client for the RugCheck token safety API.
// Only the report summary is consumed: the aggregate score feeds the safety
// filter, risk names feed the alert text.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pool-sentry/internal/infra/log"
	"pool-sentry/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BaseAPI is the RugCheck public API root.
const BaseAPI = "https://api.rugcheck.xyz/v1"

type ReportSummary struct {
	TokenProgram string `json:"tokenProgram"`
	TokenType    string `json:"tokenType"`
	// Score aggregates all detected risks; higher is worse.
	Score int    `json:"score"`
	Risks []Risk `json:"risks"`
}

type Risk struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
	Score       int    `json:"score"`
	Level       string `json:"level"`
}

// RiskNames joins risk names for compact alert text.
func (r *ReportSummary) RiskNames() string {
	if len(r.Risks) == 0 {
		return "none"
	}
	names := make([]string, 0, len(r.Risks))
	for _, risk := range r.Risks {
		names = append(names, risk.Name)
	}
	return strings.Join(names, ", ")
}

type Client struct {
	baseURL         string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
}

func NewClient(requestTimeout time.Duration, maxResponseSize int64) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if maxResponseSize <= 0 {
		maxResponseSize = 10 * 1024 * 1024
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RugCheckAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:         BaseAPI,
		rateLimiter:     rate.NewLimiter(rate.Limit(1), 2),
		circuitBreaker:  circuitBreaker,
		maxResponseSize: maxResponseSize,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		},
	}
}

// SetBaseURL points the client at a different API root (tests).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// GetReportSummary fetches the safety summary for a token mint.
func (c *Client) GetReportSummary(ctx context.Context, mint string) (*ReportSummary, error) {
	if mint == "" {
		return nil, fmt.Errorf("mint address is required")
	}
	endpoint := fmt.Sprintf("/tokens/%s/report/summary", url.PathEscape(mint))

	requestID := log.GenerateRequestID()
	startTime := time.Now()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var respBody []byte
	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		body, err := c.doGet(ctx, requestID, endpoint, startTime)
		if err != nil {
			return nil, err
		}
		respBody = body
		return body, nil
	})
	if err != nil {
		log.LogError("RugCheck request failed", zap.String("request_id", requestID), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	var summary ReportSummary
	if err := json.Unmarshal(respBody, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report summary: %w", err)
	}
	return &summary, nil
}

func (c *Client) doGet(ctx context.Context, requestID, endpoint string, startTime time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.LogRequest(requestID, http.MethodGet, endpoint, zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", endpoint))
	return respBody, nil
}
