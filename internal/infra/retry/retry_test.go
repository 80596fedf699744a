package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&HTTPError{StatusCode: 429}))
	assert.True(t, IsRetryable(&HTTPError{StatusCode: 503}))
	assert.False(t, IsRetryable(&HTTPError{StatusCode: 404}))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, ParseRetryAfter("7"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("garbage"))

	future := time.Now().Add(30 * time.Second).UTC().Format(time.RFC1123)
	assert.Greater(t, ParseRetryAfter(future), 20*time.Second)

	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC1123)
	assert.Equal(t, time.Duration(0), ParseRetryAfter(past))
}

func TestFullJitterSleepBounds(t *testing.T) {
	for attempt := 0; attempt < 6; attempt++ {
		d := FullJitterSleep(attempt, 100*time.Millisecond, time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.Equal(t, time.Duration(0), FullJitterSleep(0, 0, time.Second))
}

func TestDoRetriesTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnHardFailure(t *testing.T) {
	attempts := 0
	hardErr := &HTTPError{StatusCode: 404}
	err := Do(context.Background(), Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func() error {
		attempts++
		return hardErr
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, error(hardErr))
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Options{MaxRetries: 3, BaseDelay: time.Millisecond}, func() error {
		return &HTTPError{StatusCode: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
}
