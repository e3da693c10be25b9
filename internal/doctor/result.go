// Package doctor runs diagnostic checks over the mcpsync config, the
// source of truth and the enabled tool files.
package doctor

import "encoding/json"

// Severity indicates the importance level of a check result.
type Severity int

const (
	// SeverityPass indicates the check passed without issues.
	SeverityPass Severity = iota

	// SeverityInfo indicates informational output, not a problem.
	SeverityInfo

	// SeverityWarning indicates a potential issue that doesn't prevent a sync.
	SeverityWarning

	// SeverityError indicates a problem that makes a sync fail.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult represents the outcome of a single diagnostic check.
type CheckResult struct {
	// Name is the identifier for this check.
	Name string `json:"name"`

	// Category groups related checks (e.g., "config", "source", "tools").
	Category string `json:"category"`

	// Status is the most severe finding of the check.
	Status Severity `json:"status"`

	// Message describes the check outcome.
	Message string `json:"message"`

	// Details carries per-item findings, keyed by server name, tool ID or path.
	Details map[string]any `json:"details,omitempty"`

	// Fixable indicates whether doctor --fix can repair this issue.
	Fixable bool `json:"fixable,omitempty"`

	// FixHint tells the user how to resolve the issue.
	FixHint string `json:"fix_hint,omitempty"`
}

// Summary aggregates counts of check results by severity.
type Summary struct {
	Passed   int `json:"passed"`
	Info     int `json:"info"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

func newResult(c Check) *CheckResult {
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
	}
}

// raise lifts the result status to s if s is more severe.
func (r *CheckResult) raise(s Severity) {
	if s > r.Status {
		r.Status = s
	}
}

func (r *CheckResult) detail(key string, value any) {
	if r.Details == nil {
		r.Details = make(map[string]any)
	}
	r.Details[key] = value
}
