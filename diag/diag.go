package diag

import (
	"fmt"
	"time"
)

// Severity classifies a single analyzer finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// ParseSeverity maps a tool-native severity token onto the harness severity
// scale. The mapping is fixed: "error" and "warning" map onto themselves,
// everything else is a note.
func ParseSeverity(s string) Severity {
	switch s {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	default:
		return SeverityNote
	}
}

// RunStatus represents the overall outcome of an analysis run.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
)

// Diagnostic is one analyzer finding. Immutable once parsed.
type Diagnostic struct {
	File     string
	Line     int
	Column   int // 0 when the tool did not report a column
	RuleID   string
	Severity Severity
	Message  string
}

// Location renders the diagnostic position as "file:line" or
// "file:line:column" depending on what the tool reported.
func (d Diagnostic) Location() string {
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	}
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

// Stats aggregates diagnostic counts for a report.
type Stats struct {
	Total    int
	Errors   int
	Warnings int
	Notes    int
}

// ReportDocument is an ordered sequence of diagnostics plus aggregate counts.
// Both serialized report forms (xunit and SARIF) are derived from the same
// document, so the diagnostic order must match the order the tool emitted.
type ReportDocument struct {
	Tool        string
	ToolVersion string
	RunID       string
	Project     string
	TestName    string
	StartTime   time.Time
	Duration    time.Duration
	Diagnostics []Diagnostic
	Stats       Stats
}

// Append adds a diagnostic to the document, keeping the counts in sync.
func (r *ReportDocument) Append(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	r.Stats.Total++
	switch d.Severity {
	case SeverityError:
		r.Stats.Errors++
	case SeverityWarning:
		r.Stats.Warnings++
	default:
		r.Stats.Notes++
	}
}

// Status derives the overall run outcome. A run passes when it produced no
// error-severity diagnostics; warnings and notes alone do not fail it.
func (r *ReportDocument) Status() RunStatus {
	if r.Stats.Errors > 0 {
		return RunStatusFail
	}
	return RunStatusPass
}

// Passed reports whether the run counts as a pass.
func (r *ReportDocument) Passed() bool {
	return r.Status() == RunStatusPass
}

// String returns a one-line human-readable summary.
func (r *ReportDocument) String() string {
	return fmt.Sprintf("%s: %d diagnostics (%d errors, %d warnings, %d notes) - %s",
		r.TestName, r.Stats.Total, r.Stats.Errors, r.Stats.Warnings, r.Stats.Notes, r.Status())
}

// AnalysisRun identifies one invocation of the analyzer. It owns its report
// document exclusively until the document is handed to the results directory
// for persistence.
type AnalysisRun struct {
	RunID     string
	Project   string
	TestName  string
	WorkDir   string
	Args      []string
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the wall-clock time of the run, zero until it ended.
func (a *AnalysisRun) Duration() time.Duration {
	if a.EndTime.IsZero() {
		return 0
	}
	return a.EndTime.Sub(a.StartTime)
}
