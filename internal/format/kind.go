package format

import (
	"slices"
	"strings"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Kind names a server container shape.
type Kind string

// Supported kinds.
const (
	KindStandard Kind = "standard"
	KindCopilot  Kind = "copilot"
	KindOpenCode Kind = "opencode"
	KindCodex    Kind = "codex"
)

// Kinds returns every supported kind.
func Kinds() []Kind {
	return []Kind{KindStandard, KindCopilot, KindOpenCode, KindCodex}
}

// ParseKind converts a configuration value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Kinds(), k) {
		return k, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidConfig, "unknown format %q", s)
}

// DefaultContainer returns the usual container path for a kind.
func DefaultContainer(k Kind) string {
	switch k {
	case KindCopilot:
		return "servers"
	case KindOpenCode:
		return "mcp"
	case KindCodex:
		return "mcp_servers"
	default:
		return "mcpServers"
	}
}
