package doctor

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/afero"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Fixer is an optional interface for checks that can repair what they find.
type Fixer interface {
	// CanFix reports whether the last Run found fixable issues.
	CanFix() bool

	// Fix repairs the issues found by the last Run.
	Fix(ctx context.Context) []FixResult
}

// FixResult describes the outcome of an attempted fix operation.
type FixResult struct {
	// Path is the file that was targeted for fixing.
	Path string `json:"path"`

	// Fixed indicates whether the fix was successfully applied.
	Fixed bool `json:"fixed"`

	// Description explains what was fixed or why it couldn't be.
	Description string `json:"description"`

	// Error contains the error if the fix failed.
	Error error `json:"-"`
}

// loosePermBits are the group and other write bits. Config files hold
// secrets and commands that get executed, so nobody else may change them.
const loosePermBits os.FileMode = 0o022

// PermissionCheck flags config files writable by group or others. Missing
// files are skipped.
type PermissionCheck struct {
	fs    afero.Fs
	paths []string
	goos  string

	issues []permIssue
}

type permIssue struct {
	path string
	mode os.FileMode
}

var (
	_ Check = (*PermissionCheck)(nil)
	_ Fixer = (*PermissionCheck)(nil)
)

// NewPermissionCheck checks paths on fs.
func NewPermissionCheck(fs afero.Fs, paths ...string) *PermissionCheck {
	return &PermissionCheck{fs: fs, paths: paths, goos: runtime.GOOS}
}

func (c *PermissionCheck) Name() string     { return "file-permissions" }
func (c *PermissionCheck) Category() string { return "filesystem" }

// Run stats every path. Unix permission bits are not checked on Windows.
func (c *PermissionCheck) Run(_ context.Context) *CheckResult {
	r := newResult(c)
	c.issues = nil
	if c.goos == "windows" {
		r.Status = SeverityInfo
		r.Message = "permission bits are not checked on windows"
		return r
	}

	checked := 0
	for _, p := range c.paths {
		info, err := c.fs.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			r.raise(SeverityError)
			r.detail(p, fmt.Sprintf("cannot stat: %v", err))
			continue
		}
		checked++
		mode := info.Mode().Perm()
		if mode&loosePermBits != 0 {
			r.raise(SeverityWarning)
			r.detail(p, fmt.Sprintf("%04o", mode))
			c.issues = append(c.issues, permIssue{path: p, mode: mode})
		}
	}

	switch {
	case r.Status == SeverityError:
		r.Message = "cannot stat config files"
	case len(c.issues) > 0:
		r.Message = fmt.Sprintf("%d file(s) writable by group or others", len(c.issues))
		r.Fixable = true
		r.FixHint = "mcpsync doctor --fix"
	default:
		r.Message = fmt.Sprintf("%d file(s) checked", checked)
	}
	return r
}

// CanFix reports whether Run found loose permissions.
func (c *PermissionCheck) CanFix() bool {
	return len(c.issues) > 0
}

// Fix clears the group and other write bits of every flagged file.
func (c *PermissionCheck) Fix(_ context.Context) []FixResult {
	results := make([]FixResult, 0, len(c.issues))
	for _, issue := range c.issues {
		target := issue.mode &^ loosePermBits
		result := FixResult{Path: issue.path}
		if err := c.fs.Chmod(issue.path, target); err != nil {
			result.Description = fmt.Sprintf("failed to chmod %04o: %v", target, err)
			result.Error = errors.Wrapf(err, "chmod %04o %s", target, issue.path)
		} else {
			result.Fixed = true
			result.Description = fmt.Sprintf("chmod %04o", target)
		}
		results = append(results, result)
	}
	return results
}

// Fix runs every fixable check in report order and returns what was done.
// Checks must have been run first.
func (r *Runner) Fix(ctx context.Context) []FixResult {
	var out []FixResult
	for _, check := range r.checks {
		if f, ok := check.(Fixer); ok && f.CanFix() {
			out = append(out, f.Fix(ctx)...)
		}
	}
	return out
}
