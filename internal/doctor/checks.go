package doctor

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/safety"
	"github.com/thoreinstein/mcpsync/internal/source"
)

// ConfigCheck reports whether the mcpsync config file loaded.
type ConfigCheck struct {
	Path string
	// Err is the error config loading returned, if any.
	Err error
}

var _ Check = (*ConfigCheck)(nil)

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return "config" }

// Run reports the load error, or a pass naming the file.
func (c *ConfigCheck) Run(_ context.Context) *CheckResult {
	r := newResult(c)
	if c.Err != nil {
		r.Status = SeverityError
		r.Message = c.Err.Error()
		r.FixHint = "mcpsync config edit"
		return r
	}
	r.Message = "loaded " + c.Path
	return r
}

// SourceCheck parses the source of truth and validates its servers.
type SourceCheck struct {
	Source source.Provider
}

var _ Check = (*SourceCheck)(nil)

func (c *SourceCheck) Name() string     { return "source" }
func (c *SourceCheck) Category() string { return "source" }

// Run reads and validates the source servers. An empty source is a
// warning: sync has nothing to add.
func (c *SourceCheck) Run(ctx context.Context) *CheckResult {
	r := newResult(c)
	r.detail("mode", string(c.Source.Mode()))
	r.detail("path", c.Source.Path())

	servers, err := c.Source.Servers(ctx)
	if err != nil {
		r.Status = SeverityError
		r.Message = err.Error()
		return r
	}
	if len(servers) == 0 {
		r.Status = SeverityWarning
		r.Message = "no servers in " + c.Source.Path()
		if c.Source.Mode() == source.ModeAppManaged {
			r.FixHint = "mcpsync import <file> or mcpsync servers add <name> -- <command>"
		}
		return r
	}

	issues := mcp.Validate(servers)
	for _, issue := range issues {
		if issue.Severity == mcp.SeverityError {
			r.raise(SeverityError)
		} else {
			r.raise(SeverityWarning)
		}
		key := issue.Server
		if key == "" {
			key = "(unnamed)"
		}
		r.detail(key, issue.Field+": "+issue.Message)
	}

	switch r.Status {
	case SeverityError:
		r.Message = fmt.Sprintf("%d server(s), invalid entries block every sync", len(servers))
	case SeverityWarning:
		r.Message = fmt.Sprintf("%d server(s), %d warning(s)", len(servers), len(issues))
	default:
		r.Message = fmt.Sprintf("%d server(s)", len(servers))
	}
	return r
}

// ToolReader reads the servers a tool currently has. A missing config file
// reads as an empty list.
type ToolReader interface {
	ReadTool(ctx context.Context, id string) ([]mcp.Server, error)
}

// ToolFilesCheck parses the config file of every enabled tool.
type ToolFilesCheck struct {
	Reader ToolReader
	IDs    []string
}

var _ Check = (*ToolFilesCheck)(nil)

func (c *ToolFilesCheck) Name() string     { return "tool-files" }
func (c *ToolFilesCheck) Category() string { return "tools" }

// Run reports each tool whose file cannot be read or parsed. Sync refuses
// to overwrite such a file.
func (c *ToolFilesCheck) Run(ctx context.Context) *CheckResult {
	r := newResult(c)
	if len(c.IDs) == 0 {
		r.Status = SeverityInfo
		r.Message = "no tools enabled"
		r.FixHint = "mcpsync tools enable <tool>"
		return r
	}

	var broken []string
	for _, id := range c.IDs {
		servers, err := c.Reader.ReadTool(ctx, id)
		if err != nil {
			broken = append(broken, id)
			r.detail(id, err.Error())
			continue
		}
		r.detail(id, fmt.Sprintf("%d server(s)", len(servers)))
	}

	if len(broken) > 0 {
		r.Status = SeverityError
		r.Message = fmt.Sprintf("unreadable config for %d tool(s): %v", len(broken), broken)
		r.FixHint = "fix the file by hand or restore it with mcpsync backup restore <tool>"
		return r
	}
	r.Message = fmt.Sprintf("%d tool file(s) parse", len(c.IDs))
	return r
}

// PathSafetyCheck classifies the write destination of every enabled tool.
type PathSafetyCheck struct {
	Classifier safety.Classifier
	// Paths maps tool IDs to expanded config paths.
	Paths     map[string]string
	AllowWarn bool
}

var _ Check = (*PathSafetyCheck)(nil)

func (c *PathSafetyCheck) Name() string     { return "path-safety" }
func (c *PathSafetyCheck) Category() string { return "tools" }

// Run reports blocked paths as errors and unknown paths as warnings, or as
// info when unsafe writes are allowed.
func (c *PathSafetyCheck) Run(_ context.Context) *CheckResult {
	r := newResult(c)
	ids := lo.Keys(c.Paths)
	slices.Sort(ids)

	var blocked, unsafe []string
	for _, id := range ids {
		level := c.Classifier.Classify(c.Paths[id])
		r.detail(id, level.String())
		switch level {
		case safety.Block:
			blocked = append(blocked, id)
		case safety.Warn:
			unsafe = append(unsafe, id)
		}
	}

	switch {
	case len(blocked) > 0:
		r.Status = SeverityError
		r.Message = fmt.Sprintf("config path in a system directory: %v", blocked)
		r.FixHint = "point config_path at a user directory in the tool settings"
	case len(unsafe) > 0 && c.AllowWarn:
		r.Status = SeverityInfo
		r.Message = fmt.Sprintf("writing outside known config directories is allowed: %v", unsafe)
	case len(unsafe) > 0:
		r.Status = SeverityWarning
		r.Message = fmt.Sprintf("config path outside known config directories: %v", unsafe)
		r.FixHint = "mcpsync config set allow_unsafe_paths true"
	default:
		r.Message = fmt.Sprintf("%d path(s) safe", len(ids))
	}
	return r
}
