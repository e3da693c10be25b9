package reconcile

import (
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

// Choice picks the winning side of a conflict.
type Choice string

// Resolution choices.
const (
	ChoiceSource Choice = "source"
	ChoiceTarget Choice = "target"
	ChoiceCustom Choice = "custom"
)

// ParseChoice validates a user-supplied choice.
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(s); c {
	case ChoiceSource, ChoiceTarget, ChoiceCustom:
		return c, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidConfig, "unknown resolution %q (want source, target or custom)", s)
	}
}

// Resolution settles one conflict by name.
type Resolution struct {
	Name   string      `json:"name" yaml:"name"`
	Choice Choice      `json:"choice" yaml:"choice"`
	Custom *mcp.Server `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// ResolveAll returns the same choice for every conflict in r.
func ResolveAll(r Result, choice Choice) []Resolution {
	out := make([]Resolution, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, Resolution{Name: c.Name, Choice: choice})
	}
	return out
}

// Apply builds the final server list: Kept, Added and the resolved
// conflicts. Existing entries stay in target order and additions follow in
// source order. A conflict without a resolution takes the source version.
//
// A resolution naming no conflict, an unknown choice, or a custom choice
// without a server is an error.
func Apply(r Result, resolutions []Resolution) ([]mcp.Server, error) {
	conflicts := make(map[string]Conflict, len(r.Conflicts))
	for _, c := range r.Conflicts {
		conflicts[c.Name] = c
	}

	resolved := make(map[string]mcp.Server, len(r.Conflicts))
	for _, c := range r.Conflicts {
		resolved[c.Name] = c.Source
	}
	for _, res := range resolutions {
		c, ok := conflicts[res.Name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrNotFound, "resolution for %q: no such conflict", res.Name)
		}
		switch res.Choice {
		case ChoiceSource:
			resolved[c.Name] = c.Source
		case ChoiceTarget:
			resolved[c.Name] = c.Target
		case ChoiceCustom:
			if res.Custom == nil {
				return nil, errors.Wrapf(errors.ErrInvalidConfig, "resolution for %q: custom choice without a server", res.Name)
			}
			custom := res.Custom.Clone()
			custom.Name = c.Name
			resolved[c.Name] = custom
		default:
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "resolution for %q: unknown choice %q", res.Name, res.Choice)
		}
	}

	kept := make(map[string]mcp.Server, len(r.Kept))
	for _, s := range r.Kept {
		kept[s.Name] = s
	}

	out := make([]mcp.Server, 0, len(r.Kept)+len(r.Added)+len(r.Conflicts))
	placed := make(map[string]bool, len(out))
	place := func(s mcp.Server) {
		if !placed[s.Name] {
			placed[s.Name] = true
			out = append(out, s)
		}
	}
	for _, name := range r.Order {
		if s, ok := resolved[name]; ok {
			place(s)
		} else if s, ok := kept[name]; ok {
			place(s)
		}
	}
	// Results built without Order still yield every entry.
	for _, s := range r.Kept {
		place(s)
	}
	for _, c := range r.Conflicts {
		place(resolved[c.Name])
	}
	for _, s := range r.Added {
		place(s)
	}
	return out, nil
}
