package mcp

import (
	"fmt"
	"strings"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Severity indicates whether a validation issue is an error or warning.
type Severity int

const (
	// SeverityError makes a server list unusable.
	SeverityError Severity = iota
	// SeverityWarning flags a likely mistake that does not block a write.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Issue is a single validation finding.
type Issue struct {
	Server   string
	Field    string
	Message  string
	Severity Severity
}

func (i Issue) Error() string {
	if i.Server == "" {
		return i.Message
	}
	return fmt.Sprintf("server %q: %s: %s", i.Server, i.Field, i.Message)
}

// Validate checks a server list for empty or duplicate names, empty env
// keys, and entries that are neither local nor remote.
func Validate(servers []Server) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(servers))

	for _, s := range servers {
		switch {
		case strings.TrimSpace(s.Name) == "":
			issues = append(issues, Issue{Field: "name", Message: "server name is required", Severity: SeverityError})
		case seen[s.Name]:
			issues = append(issues, Issue{Server: s.Name, Field: "name", Message: "duplicate server name", Severity: SeverityError})
		}
		seen[s.Name] = true

		if s.Command == "" && s.URL == "" {
			issues = append(issues, Issue{Server: s.Name, Field: "command", Message: "neither command nor url is set", Severity: SeverityWarning})
		}
		if s.Command != "" && s.URL != "" {
			issues = append(issues, Issue{Server: s.Name, Field: "url", Message: "both command and url are set; tools disagree on which wins", Severity: SeverityWarning})
		}
		for k := range s.Env {
			if k == "" {
				issues = append(issues, Issue{Server: s.Name, Field: "env", Message: "environment variable key is empty", Severity: SeverityError})
			}
		}
	}
	return issues
}

// CheckValid returns an ErrInvalidFormat error describing the first
// error-severity issue, or nil when there is none.
func CheckValid(servers []Server) error {
	for _, issue := range Validate(servers) {
		if issue.Severity == SeverityError {
			return errors.Wrap(errors.ErrInvalidFormat, issue.Error())
		}
	}
	return nil
}
