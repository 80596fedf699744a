package alertstats

// Per-day alert counters feeding the daily digest. In-process only: the
// digest reports what this instance sent, not cluster-wide totals.

import (
	"sync"
	"time"
)

const retainDays = 14

type DayCount struct {
	Day   time.Time
	Count int
}

type Recorder struct {
	mu     sync.Mutex
	counts map[string]int // "2006-01-02" -> alerts sent
	now    func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Record counts one sent alert against today's bucket and drops buckets
// older than the retention window.
func (r *Recorder) Record() {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.now()
	r.counts[today.Format("2006-01-02")]++

	cutoff := today.AddDate(0, 0, -retainDays).Format("2006-01-02")
	for day := range r.counts {
		if day < cutoff {
			delete(r.counts, day)
		}
	}
}

// Today returns today's bucket.
func (r *Recorder) Today() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[r.now().Format("2006-01-02")]
}

// LastNDays returns counts for the n most recent days, oldest first,
// today included. Missing days come back as zero.
func (r *Recorder) LastNDays(n int) []DayCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Normalize to calendar midnight in the clock's zone; Truncate would
	// round to UTC midnight and desync from the buckets Record writes.
	now := r.now()
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	result := make([]DayCount, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		result = append(result, DayCount{
			Day:   day,
			Count: r.counts[day.Format("2006-01-02")],
		})
	}
	return result
}
