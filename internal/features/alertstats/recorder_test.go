package alertstats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(now time.Time) *Recorder {
	r := NewRecorder()
	r.now = func() time.Time { return now }
	return r
}

func TestRecordAndToday(t *testing.T) {
	r := newTestRecorder(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

	assert.Zero(t, r.Today())
	r.Record()
	r.Record()
	r.Record()
	assert.Equal(t, 3, r.Today())
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2025, 6, 7, 15, 0, 0, 0, time.UTC)
	r := newTestRecorder(now)

	r.now = func() time.Time { return now.AddDate(0, 0, -2) }
	r.Record()
	r.Record()

	r.now = func() time.Time { return now }
	r.Record()

	days := r.LastNDays(7)
	require.Len(t, days, 7)
	assert.True(t, days[0].Day.Before(days[6].Day), "oldest first")
	assert.Equal(t, 2, days[4].Count)
	assert.Equal(t, 1, days[6].Count)
	assert.Zero(t, days[0].Count)
}

func TestRecordPrunesOldBuckets(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	r := newTestRecorder(now)

	r.now = func() time.Time { return now.AddDate(0, 0, -20) }
	r.Record()
	require.Len(t, r.counts, 1)

	r.now = func() time.Time { return now }
	r.Record()

	assert.Len(t, r.counts, 1, "bucket outside the retention window should be dropped")
	assert.Equal(t, 1, r.Today())
}

func TestLastNDaysNonUTCZone(t *testing.T) {
	// 01:00 local in UTC+3 is still the previous day in UTC; the newest
	// bucket must follow the local calendar date, not UTC midnight.
	zone := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2025, 6, 7, 1, 0, 0, 0, zone)
	r := newTestRecorder(now)

	r.Record()
	require.Equal(t, 1, r.Today())

	days := r.LastNDays(7)
	require.Len(t, days, 7)
	newest := days[6]
	assert.Equal(t, 1, newest.Count, "today's alerts must land in the newest bucket")

	y, m, d := newest.Day.Date()
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.June, m)
	assert.Equal(t, 7, d)
}

func TestRecordConcurrent(t *testing.T) {
	r := newTestRecorder(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Today())
}
