// Package source provides the canonical server list that every tool is
// synced against.
package source

import (
	"context"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/format"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/storage"
)

// Mode selects where the source servers come from.
type Mode string

const (
	// ModeClaude reads the mcpServers container of the Claude Code config.
	ModeClaude Mode = "claude"
	// ModeAppManaged reads mcpsync's own servers.json.
	ModeAppManaged Mode = "app-managed"
)

// ParseMode validates a configured source mode. Empty selects ModeClaude.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeClaude, nil
	case ModeClaude, ModeAppManaged:
		return m, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidConfig, "unknown source_mode %q (want claude or app-managed)", s)
	}
}

// Provider yields the source servers.
type Provider interface {
	Mode() Mode
	// Path is the file the servers are read from.
	Path() string
	Servers(ctx context.Context) ([]mcp.Server, error)
}

// ClaudeFile reads source servers from a Claude Code config file. It never
// writes.
type ClaudeFile struct {
	st   storage.Storage
	path string
	file format.File
}

// NewClaudeFile returns a provider for the Claude Code config at path.
func NewClaudeFile(st storage.Storage, path string) *ClaudeFile {
	file, _ := format.ForKind(format.KindStandard, "mcpServers")
	return &ClaudeFile{st: st, path: path, file: file}
}

func (c *ClaudeFile) Mode() Mode   { return ModeClaude }
func (c *ClaudeFile) Path() string { return c.path }

// Servers returns the Claude Code servers. A missing file is an empty list.
func (c *ClaudeFile) Servers(ctx context.Context) ([]mcp.Server, error) {
	return readServers(ctx, c.st, c.path, c.file)
}

func readServers(ctx context.Context, st storage.Storage, path string, file format.File) ([]mcp.Server, error) {
	content, err := st.Read(ctx, path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	servers, err := file.Read(content)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source servers from %s", path)
	}
	return servers, nil
}
