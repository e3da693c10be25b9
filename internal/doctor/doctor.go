package doctor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thoreinstein/mcpsync/internal/logging"
)

// Check is the interface that diagnostic checks must implement.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Category returns the grouping for this check.
	Category() string

	// Run executes the diagnostic check and returns its result.
	Run(ctx context.Context) *CheckResult
}

// Runner executes diagnostic checks and aggregates their results.
type Runner struct {
	checks []Check
}

// NewRunner creates a runner with the given checks.
func NewRunner(checks ...Check) *Runner {
	return &Runner{checks: checks}
}

// AddCheck registers a diagnostic check with the runner.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks in run order.
func (r *Runner) Checks() []Check {
	return r.checks
}

// Run executes all registered checks in order and returns a report.
func (r *Runner) Run(ctx context.Context) *Report {
	logger := logging.FromContext(ctx)
	report := &Report{
		Timestamp: time.Now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}

	for _, check := range r.checks {
		result := check.Run(ctx)
		logger.Debug("doctor check",
			slog.String("check", check.Name()),
			slog.String("status", result.Status.String()))
		report.Results = append(report.Results, result)

		switch result.Status {
		case SeverityPass:
			report.Summary.Passed++
		case SeverityInfo:
			report.Summary.Info++
		case SeverityWarning:
			report.Summary.Warnings++
		case SeverityError:
			report.Summary.Errors++
		}
	}

	return report
}

// Report aggregates all check results with timing and summary.
type Report struct {
	// Timestamp is when the diagnostic run started.
	Timestamp time.Time `json:"timestamp"`

	// Results contains the outcome of each check.
	Results []*CheckResult `json:"results"`

	// Summary contains counts by severity level.
	Summary Summary `json:"summary"`
}

// HasErrors returns true if any check has SeverityError.
func (r *Report) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings returns true if any check has SeverityWarning.
func (r *Report) HasWarnings() bool {
	return r.Summary.Warnings > 0
}
