package pipeline

import (
	"testing"
	"time"
)

func TestDocStatus_Failed(t *testing.T) {
	tests := []struct {
		status DocStatus
		want   bool
	}{
		{StatusLoaded, false},
		{StatusWarnings, false},
		{StatusMalformed, true},
		{StatusUnsupported, true},
		{StatusUnreadable, true},
	}
	for _, tt := range tests {
		if got := tt.status.Failed(); got != tt.want {
			t.Errorf("%q.Failed() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestReport_Counts(t *testing.T) {
	r := newReport()
	r.add(DocReport{Name: "a.md", Status: StatusLoaded})
	r.add(DocReport{Name: "b.md", Status: StatusWarnings, Warnings: []string{"skip"}})
	r.add(DocReport{Name: "c.md", Status: StatusMalformed})

	if r.Loaded() != 2 {
		t.Errorf("expected 2 loaded, got %d", r.Loaded())
	}
	if !r.HasFailures() {
		t.Error("expected failures")
	}
	counts := r.Counts()
	if counts[StatusMalformed] != 1 || counts[StatusLoaded] != 1 || counts[StatusWarnings] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if got := r.Warnings(); len(got) != 1 || got[0] != "skip" {
		t.Errorf("unexpected warnings %v", got)
	}
}

func TestReport_WarningsNeverNil(t *testing.T) {
	r := newReport()
	r.add(DocReport{Name: "a.md", Status: StatusLoaded})
	if r.Documents[0].Warnings == nil {
		t.Error("expected empty, non-nil warnings for JSON output")
	}
}

func TestReport_Duration(t *testing.T) {
	r := newReport()
	r.FinishedAt = r.StartedAt.Add(150 * time.Millisecond)
	if r.Duration() != 150*time.Millisecond {
		t.Errorf("expected 150ms, got %v", r.Duration())
	}
}
