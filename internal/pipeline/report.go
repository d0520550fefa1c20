package pipeline

import (
	"time"
)

// DocStatus is the outcome of loading one input.
type DocStatus string

const (
	StatusLoaded      DocStatus = "loaded"
	StatusWarnings    DocStatus = "loaded_with_warnings"
	StatusMalformed   DocStatus = "malformed"
	StatusUnsupported DocStatus = "unsupported"
	StatusUnreadable  DocStatus = "unreadable"
)

// Failed reports whether the document was left out of the index.
func (s DocStatus) Failed() bool {
	switch s {
	case StatusMalformed, StatusUnsupported, StatusUnreadable:
		return true
	}
	return false
}

// DocReport tracks what happened to a single input.
type DocReport struct {
	Name        string    `json:"name"`
	DocID       string    `json:"doc_id,omitempty"`
	Status      DocStatus `json:"status"`
	Sections    int       `json:"sections"`
	ContentHash string    `json:"content_hash,omitempty"`
	Warnings    []string  `json:"warnings"`
	Error       string    `json:"error,omitempty"`
}

// Report is the JSON-safe summary of one pipeline run.
type Report struct {
	Generation      string      `json:"generation"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
	Documents       []DocReport `json:"documents"`
	DuplicateGroups int         `json:"duplicate_groups"`
	ContestedPaths  int         `json:"contested_paths"`
}

func newReport() *Report {
	return &Report{StartedAt: time.Now().UTC(), Documents: []DocReport{}}
}

func (r *Report) add(d DocReport) {
	if d.Warnings == nil {
		d.Warnings = []string{}
	}
	r.Documents = append(r.Documents, d)
}

// Counts tallies documents by status.
func (r *Report) Counts() map[DocStatus]int {
	out := make(map[DocStatus]int)
	for _, d := range r.Documents {
		out[d.Status]++
	}
	return out
}

// Loaded is the number of documents that made it into the index.
func (r *Report) Loaded() int {
	n := 0
	for _, d := range r.Documents {
		if !d.Status.Failed() {
			n++
		}
	}
	return n
}

// HasFailures reports whether any input was skipped.
func (r *Report) HasFailures() bool {
	return r.Loaded() < len(r.Documents)
}

// Warnings returns every structure warning across documents.
func (r *Report) Warnings() []string {
	var out []string
	for _, d := range r.Documents {
		out = append(out, d.Warnings...)
	}
	return out
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
