package stats

import (
	"testing"
	"time"
)

func TestQueriesSnapshotPercentiles(t *testing.T) {
	q := NewQueries(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		q.Record("search", time.Duration(ms)*time.Millisecond, ms > 250)
	}

	snap := q.Snapshot()["search"]
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Hits != 3 {
		t.Fatalf("expected hits=3, got %d", snap.Hits)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got %f %f", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestQueriesSeparateOperations(t *testing.T) {
	q := NewQueries(time.Hour)
	q.Record("lookup", time.Millisecond, true)
	q.Record("search", 2*time.Millisecond, false)

	snap := q.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(snap))
	}
	if snap["lookup"].Hits != 1 || snap["search"].Hits != 0 {
		t.Fatalf("unexpected hits %+v", snap)
	}
}

func TestQueriesPrunesExpiredSamples(t *testing.T) {
	now := time.Now()
	q := NewQueries(time.Minute)
	q.now = func() time.Time { return now }
	q.Record("lookup", 100*time.Millisecond, true)

	now = now.Add(2 * time.Minute)
	if snap := q.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected no operations after prune, got %+v", snap)
	}

	q.Record("lookup", 200*time.Millisecond, false)
	snap := q.Snapshot()["lookup"]
	if snap.Count != 1 || snap.Hits != 0 {
		t.Fatalf("expected one fresh sample, got %+v", snap)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%f max=%f", snap.MinMs, snap.MaxMs)
	}
}

func TestQueriesRecordClampsNegativeDuration(t *testing.T) {
	q := NewQueries(time.Hour)
	q.Record("search", -5*time.Millisecond, false)
	if snap := q.Snapshot()["search"]; snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped 0, got %+v", snap)
	}
}

func TestPercentileEdges(t *testing.T) {
	if percentile(nil, 50) != 0 {
		t.Error("expected 0 for empty input")
	}
	vals := []float64{1, 2}
	if percentile(vals, 0) != 1 || percentile(vals, 100) != 2 {
		t.Error("expected bounds at 0 and 100")
	}
}
