package dexscreener

// Package dexscreener contains the client for the DexScreener public API.
// Same transport discipline as the other upstream clients: limiter, breaker,
// bounded reads, request-ID logging.

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pool-sentry/internal/infra/log"
	"pool-sentry/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BaseAPI is the DexScreener public API root.
const BaseAPI = "https://api.dexscreener.com"

type Client struct {
	baseURL         string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
}

// NewClient builds a client for DexScreener's 300 req/min public budget;
// the limiter sits far below that since monitors poll on 30s ticks.
func NewClient(requestTimeout time.Duration, maxResponseSize int64) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if maxResponseSize <= 0 {
		maxResponseSize = 10 * 1024 * 1024
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "DexScreenerAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:         BaseAPI,
		rateLimiter:     rate.NewLimiter(rate.Limit(2), 4),
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

// Get performs a rate-limited, breaker-guarded GET against the API.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
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
		log.LogError("DexScreener request failed", zap.String("request_id", requestID), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	return respBody, nil
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
