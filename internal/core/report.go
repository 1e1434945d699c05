package core

import (
	"sync"
	"time"

	"pdxgraph/internal/validation"
)

// Severity grades a row issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// RowIssue is a per-row note or failure recorded during construction.
// Warning and error issues mean the row contributed nothing.
type RowIssue struct {
	Stage    string   `json:"stage"`
	Table    string   `json:"table"`
	Row      int      `json:"row"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// StageReport summarizes one pipeline stage.
type StageReport struct {
	Name     string        `json:"name"`
	Skipped  bool          `json:"skipped,omitempty"`
	Rows     int           `json:"rows"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the outcome of one provider load.
type Report struct {
	Provider   string                            `json:"provider"`
	StartedAt  time.Time                         `json:"started_at"`
	FinishedAt time.Time                         `json:"finished_at"`
	Validation []validation.TableValidationError `json:"validation,omitempty"`
	Stages     []StageReport                     `json:"stages,omitempty"`
	Issues     []RowIssue                        `json:"issues,omitempty"`
	Counts     map[string]int                    `json:"counts,omitempty"`
	Error      string                            `json:"error,omitempty"`

	mu sync.Mutex
}

// NewReport starts a report for provider.
func NewReport(provider string, startedAt time.Time) *Report {
	return &Report{Provider: provider, StartedAt: startedAt, Counts: make(map[string]int)}
}

// AddIssue records a row issue.
func (r *Report) AddIssue(issue RowIssue) {
	r.mu.Lock()
	r.Issues = append(r.Issues, issue)
	r.mu.Unlock()
}

// AddStage records a stage summary.
func (r *Report) AddStage(s StageReport) {
	r.mu.Lock()
	r.Stages = append(r.Stages, s)
	r.mu.Unlock()
}

// Stage returns the summary of the named stage.
func (r *Report) Stage(name string) (StageReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// IssuesFor returns the issues recorded by the named stage.
func (r *Report) IssuesFor(stage string) []RowIssue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RowIssue
	for _, i := range r.Issues {
		if i.Stage == stage {
			out = append(out, i)
		}
	}
	return out
}

// Failed reports whether the load aborted.
func (r *Report) Failed() bool { return r.Error != "" }
