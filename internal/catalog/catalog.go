// Package catalog describes the tools mcpsync knows how to sync: where their
// config lives and which server format it uses.
package catalog

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/format"
)

// Tool IDs of the built-in catalog.
const (
	ClaudeCode   = "claude-code"
	GeminiCLI    = "gemini-cli"
	Amp          = "amp"
	CopilotCLI   = "copilot-cli"
	OpenCode     = "opencode"
	FactoryDroid = "factory-droid"
	QwenCode     = "qwen-code"
	Codex        = "codex"
)

// Tool describes one tool's MCP configuration.
type Tool struct {
	ID          string      `mapstructure:"id" json:"id" yaml:"id"`
	DisplayName string      `mapstructure:"name" json:"name" yaml:"name"`
	ConfigPath  string      `mapstructure:"config_path" json:"config_path" yaml:"config_path"`
	JSONPath    string      `mapstructure:"json_path" json:"json_path" yaml:"json_path"`
	Format      format.Kind `mapstructure:"format" json:"format" yaml:"format"`
	// LiteralKey writes JSONPath as one root key even when it contains dots.
	LiteralKey bool `mapstructure:"literal_key" json:"literal_key,omitempty" yaml:"literal_key,omitempty"`
}

// File returns the format handler for the tool's config file.
func (t Tool) File() (format.File, error) {
	if t.LiteralKey {
		return format.ForKind(t.Format, t.JSONPath, format.LiteralKey())
	}
	return format.ForKind(t.Format, t.JSONPath)
}

// Validate checks a tool descriptor and fills defaults: an empty Format is
// standard and an empty JSONPath is the format's default container.
func (t Tool) Validate() (Tool, error) {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return Tool{}, errors.Wrap(errors.ErrInvalidConfig, "tool id is required")
	}
	if strings.ContainsAny(t.ID, " \t/\\*?[]{}") {
		return Tool{}, errors.Wrapf(errors.ErrInvalidConfig, "tool id %q contains reserved characters", t.ID)
	}
	if t.ConfigPath == "" {
		return Tool{}, errors.Wrapf(errors.ErrInvalidConfig, "tool %s: config_path is required", t.ID)
	}
	if t.Format == "" {
		t.Format = format.KindStandard
	}
	kind, err := format.ParseKind(string(t.Format))
	if err != nil {
		return Tool{}, errors.Wrapf(err, "tool %s", t.ID)
	}
	t.Format = kind
	if t.JSONPath == "" {
		t.JSONPath = format.DefaultContainer(kind)
	}
	if t.DisplayName == "" {
		t.DisplayName = t.ID
	}
	if _, err := t.File(); err != nil {
		return Tool{}, errors.Wrapf(err, "tool %s", t.ID)
	}
	return t, nil
}

// DefaultTools returns the built-in tool table.
func DefaultTools() []Tool {
	return []Tool{
		{ID: ClaudeCode, DisplayName: "Claude Code", ConfigPath: "~/.claude.json", JSONPath: "mcpServers", Format: format.KindStandard},
		{ID: GeminiCLI, DisplayName: "Gemini CLI", ConfigPath: "~/.gemini/settings.json", JSONPath: "mcpServers", Format: format.KindStandard},
		{ID: Amp, DisplayName: "Amp", ConfigPath: "~/.config/amp/settings.json", JSONPath: "amp.mcpServers", Format: format.KindStandard, LiteralKey: true},
		{ID: CopilotCLI, DisplayName: "GitHub Copilot CLI", ConfigPath: "~/.copilot/mcp-config.json", JSONPath: "servers", Format: format.KindCopilot},
		{ID: OpenCode, DisplayName: "OpenCode", ConfigPath: "~/.config/opencode/opencode.json", JSONPath: "mcp", Format: format.KindOpenCode},
		{ID: FactoryDroid, DisplayName: "Factory Droid CLI", ConfigPath: "~/.factory/mcp.json", JSONPath: "mcpServers", Format: format.KindStandard},
		{ID: QwenCode, DisplayName: "Qwen Code", ConfigPath: "~/.qwen/settings.json", JSONPath: "mcpServers", Format: format.KindStandard},
		{ID: Codex, DisplayName: "Codex CLI", ConfigPath: "~/.codex/config.toml", JSONPath: "mcp_servers", Format: format.KindCodex},
	}
}

// Catalog is an immutable, ordered set of tools.
type Catalog struct {
	tools []Tool
}

// New returns the default catalog extended by custom. A custom tool with a
// built-in ID replaces it in place; new IDs are appended in order.
func New(custom ...Tool) (Catalog, error) {
	tools := DefaultTools()
	for _, c := range custom {
		t, err := c.Validate()
		if err != nil {
			return Catalog{}, err
		}
		if i := slices.IndexFunc(tools, func(x Tool) bool { return x.ID == t.ID }); i >= 0 {
			tools[i] = t
			continue
		}
		tools = append(tools, t)
	}
	return Catalog{tools: tools}, nil
}

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{tools: DefaultTools()}
}

// All returns every tool in catalog order.
func (c Catalog) All() []Tool {
	return slices.Clone(c.tools)
}

// IDs returns every tool ID in catalog order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.tools))
	for i, t := range c.tools {
		ids[i] = t.ID
	}
	return ids
}

// Lookup returns the tool with id.
func (c Catalog) Lookup(id string) (Tool, error) {
	for _, t := range c.tools {
		if t.ID == id {
			return t, nil
		}
	}
	return Tool{}, errors.WithHint(
		errors.Wrapf(errors.ErrToolNotSupported, "%q", id),
		"supported tools: "+strings.Join(c.IDs(), ", "),
	)
}

// Select returns the tools whose IDs match any of patterns, in catalog
// order. Patterns are doublestar globs ("*", "q*", "{amp,codex}"). A
// pattern that matches nothing is an error.
func (c Catalog) Select(patterns ...string) ([]Tool, error) {
	var out []Tool
	picked := make(map[string]bool)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "invalid tool pattern %q", p)
		}
		matched := false
		for _, t := range c.tools {
			ok, err := doublestar.Match(p, t.ID)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidConfig, "invalid tool pattern %q", p)
			}
			if ok {
				matched = true
				picked[t.ID] = true
			}
		}
		if !matched {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrToolNotSupported, "no tool matches %q", p),
				"supported tools: "+strings.Join(c.IDs(), ", "),
			)
		}
	}
	for _, t := range c.tools {
		if picked[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}
