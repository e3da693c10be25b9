// Package reconcile compares a source server list with a tool's current
// list and decides what a sync writes.
package reconcile

import (
	"github.com/samber/lo"

	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// Status summarizes how a tool relates to the source.
type Status string

// Merge statuses, plus the two tool-level statuses reported when no merge
// can be computed.
const (
	StatusSynced       Status = "synced"
	StatusOutOfSync    Status = "out_of_sync"
	StatusConflicts    Status = "conflicts"
	StatusNotInstalled Status = "not_installed"
	StatusNoMCP        Status = "no_mcp"
)

// Conflict is a server present on both sides with different definitions.
type Conflict struct {
	Name   string     `json:"name"`
	Source mcp.Server `json:"source"`
	Target mcp.Server `json:"target"`
	ToolID string     `json:"tool_id"`
}

// Result classifies every distinct server name exactly once.
type Result struct {
	ToolID string `json:"tool_id"`

	// Added are source servers missing from the target, in source order.
	Added []mcp.Server `json:"added"`

	// Kept are target servers that stay as they are: those equal to their
	// source counterpart and those only the target has. Target order.
	Kept []mcp.Server `json:"kept"`

	// Conflicts are servers whose definitions differ, in target order.
	Conflicts []Conflict `json:"conflicts"`

	// Order is the target's server names in file order. Apply uses it to
	// keep existing entries where they were.
	Order []string `json:"-"`
}

// Merge classifies source against target. Source entries absent from target
// are Added; entries with the same definition are Kept once, as the target's
// record so that target-local Disabled, Target and Extra survive; differing
// entries are Conflicts. Entries only the target has are Kept, so a sync
// never deletes anything.
//
// Names are assumed unique within each list.
func Merge(source, target []mcp.Server, toolID string) Result {
	bySource := lo.KeyBy(source, func(s mcp.Server) string { return s.Name })
	inTarget := lo.KeyBy(target, func(s mcp.Server) string { return s.Name })

	r := Result{ToolID: toolID, Order: mcp.Names(target)}
	for _, t := range target {
		s, ok := bySource[t.Name]
		switch {
		case !ok, s.SameDefinition(t):
			r.Kept = append(r.Kept, t)
		default:
			r.Conflicts = append(r.Conflicts, Conflict{Name: t.Name, Source: s, Target: t, ToolID: toolID})
		}
	}
	for _, s := range source {
		if _, ok := inTarget[s.Name]; !ok {
			r.Added = append(r.Added, s)
		}
	}
	return r
}

// Status returns Conflicts if any conflict exists, else OutOfSync if
// anything would be added, else Synced.
func (r Result) Status() Status {
	switch {
	case len(r.Conflicts) > 0:
		return StatusConflicts
	case len(r.Added) > 0:
		return StatusOutOfSync
	default:
		return StatusSynced
	}
}

// HasChanges reports whether applying r would change the target.
func (r Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Conflicts) > 0
}

// ConflictNames returns the names of all conflicts in order.
func (r Result) ConflictNames() []string {
	return lo.Map(r.Conflicts, func(c Conflict, _ int) string { return c.Name })
}
