// Package stats keeps rolling latency summaries for query operations.
package stats

import (
	"maps"
	"slices"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms float64
}

// Summary aggregates the samples of one operation inside the window.
type Summary struct {
	Count int     `json:"count"`
	Hits  int     `json:"hits"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Queries records lookup and search latencies per operation name within a
// rolling window. Safe for concurrent use.
type Queries struct {
	mu      sync.Mutex
	window  time.Duration
	samples map[string][]sample
	hits    map[string][]time.Time
	now     func() time.Time
}

func NewQueries(window time.Duration) *Queries {
	if window <= 0 {
		window = time.Hour
	}
	return &Queries{
		window:  window,
		samples: make(map[string][]sample),
		hits:    make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Record adds one call of op. found marks calls that returned a result.
func (q *Queries) Record(op string, d time.Duration, found bool) {
	d = max(d, 0)
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pruneLocked(now)
	q.samples[op] = append(q.samples[op], sample{at: now, ms: float64(d) / float64(time.Millisecond)})
	if found {
		q.hits[op] = append(q.hits[op], now)
	}
}

// Snapshot summarises every operation seen in the window.
func (q *Queries) Snapshot() map[string]Summary {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pruneLocked(now)
	out := make(map[string]Summary, len(q.samples))
	for _, op := range slices.Sorted(maps.Keys(q.samples)) {
		out[op] = summarise(q.samples[op], len(q.hits[op]))
	}
	return out
}

func summarise(samples []sample, hits int) Summary {
	values := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		values[i] = s.ms
		sum += s.ms
	}
	slices.Sort(values)

	return Summary{
		Count: len(values),
		Hits:  hits,
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: sum / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (q *Queries) pruneLocked(now time.Time) {
	cutoff := now.Add(-q.window)
	for op, ss := range q.samples {
		i := 0
		for i < len(ss) && ss[i].at.Before(cutoff) {
			i++
		}
		if i == len(ss) {
			delete(q.samples, op)
			delete(q.hits, op)
			continue
		}
		q.samples[op] = ss[i:]

		hs := q.hits[op]
		j := 0
		for j < len(hs) && hs[j].Before(cutoff) {
			j++
		}
		q.hits[op] = hs[j:]
	}
}

// percentile interpolates linearly between closest ranks.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return sorted[0]
	}
	if pct >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := float64(len(sorted)-1) * pct / 100
	lower := int(idx)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	w := idx - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*w
}
