package doctor

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/safety"
	"github.com/thoreinstein/mcpsync/internal/source"
	"github.com/thoreinstein/mcpsync/internal/storage"
)

func TestConfigCheck(t *testing.T) {
	ctx := context.Background()

	ok := (&ConfigCheck{Path: "/home/me/.config/mcpsync/config.yaml"}).Run(ctx)
	assert.Equal(t, SeverityPass, ok.Status)
	assert.Contains(t, ok.Message, "config.yaml")

	bad := (&ConfigCheck{Err: errors.Wrap(errors.ErrInvalidConfig, "unknown source_mode \"x\"")}).Run(ctx)
	assert.Equal(t, SeverityError, bad.Status)
	assert.Contains(t, bad.Message, "unknown source_mode")
	assert.Equal(t, "mcpsync config edit", bad.FixHint)
}

func TestSourceCheck(t *testing.T) {
	ctx := context.Background()
	const path = "/data/mcpsync/servers.json"

	tests := []struct {
		name       string
		content    string
		wantStatus Severity
		wantMsg    string
		wantDetail string
	}{
		{
			name:       "missing file",
			wantStatus: SeverityWarning,
			wantMsg:    "no servers",
		},
		{
			name:       "valid",
			content:    `{"mcpServers":{"fs":{"command":"npx"},"web":{"url":"https://example.com/mcp"}}}`,
			wantStatus: SeverityPass,
			wantMsg:    "2 server(s)",
		},
		{
			name:       "neither command nor url",
			content:    `{"mcpServers":{"fs":{"command":"npx"},"empty":{}}}`,
			wantStatus: SeverityWarning,
			wantMsg:    "1 warning(s)",
			wantDetail: "empty",
		},
		{
			name:       "empty env key",
			content:    `{"mcpServers":{"fs":{"command":"npx","env":{"":"x"}}}}`,
			wantStatus: SeverityError,
			wantMsg:    "block every sync",
			wantDetail: "fs",
		},
		{
			name:       "unparseable",
			content:    `{"mcpServers":`,
			wantStatus: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.content != "" {
				require.NoError(t, afero.WriteFile(fs, path, []byte(tt.content), 0o644))
			}
			store := source.NewStore(storage.NewLocal(fs), path, backup.Policy{})

			r := (&SourceCheck{Source: store}).Run(ctx)
			assert.Equal(t, tt.wantStatus, r.Status, r.Message)
			if tt.wantMsg != "" {
				assert.Contains(t, r.Message, tt.wantMsg)
			}
			assert.Equal(t, "app-managed", r.Details["mode"])
			if tt.wantDetail != "" {
				assert.Contains(t, r.Details, tt.wantDetail)
			}
		})
	}
}

func TestSourceCheck_ClaudeHasNoImportHint(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := source.NewClaudeFile(storage.NewLocal(fs), "/home/me/.claude.json")

	r := (&SourceCheck{Source: src}).Run(context.Background())
	assert.Equal(t, SeverityWarning, r.Status)
	assert.Empty(t, r.FixHint)
}

type stubReader map[string]error

func (s stubReader) ReadTool(_ context.Context, id string) ([]mcp.Server, error) {
	if err := s[id]; err != nil {
		return nil, err
	}
	return []mcp.Server{{Name: "fs", Command: "npx"}}, nil
}

func TestToolFilesCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("no tools enabled", func(t *testing.T) {
		r := (&ToolFilesCheck{Reader: stubReader{}}).Run(ctx)
		assert.Equal(t, SeverityInfo, r.Status)
		assert.Equal(t, "mcpsync tools enable <tool>", r.FixHint)
	})

	t.Run("all parse", func(t *testing.T) {
		r := (&ToolFilesCheck{Reader: stubReader{}, IDs: []string{"cursor", "gemini"}}).Run(ctx)
		assert.Equal(t, SeverityPass, r.Status)
		assert.Equal(t, "1 server(s)", r.Details["cursor"])
	})

	t.Run("broken file", func(t *testing.T) {
		reader := stubReader{"gemini": errors.Wrap(errors.ErrInvalidFormat, "parsing Gemini CLI config")}
		r := (&ToolFilesCheck{Reader: reader, IDs: []string{"cursor", "gemini"}}).Run(ctx)
		assert.Equal(t, SeverityError, r.Status)
		assert.Contains(t, r.Message, "gemini")
		assert.NotContains(t, r.Message, "cursor")
		assert.Contains(t, r.Details["gemini"], "parsing Gemini CLI config")
	})
}

func TestPathSafetyCheck(t *testing.T) {
	ctx := context.Background()
	classifier := safety.Classifier{
		Blocked: []string{"/etc"},
		Safe:    []string{"/home/me/.cursor"},
	}

	tests := []struct {
		name       string
		paths      map[string]string
		allowWarn  bool
		wantStatus Severity
		wantHint   string
	}{
		{
			name:       "safe",
			paths:      map[string]string{"cursor": "/home/me/.cursor/mcp.json"},
			wantStatus: SeverityPass,
		},
		{
			name:       "unknown directory",
			paths:      map[string]string{"cursor": "/home/me/.cursor/mcp.json", "custom": "/opt/tool/mcp.json"},
			wantStatus: SeverityWarning,
			wantHint:   "mcpsync config set allow_unsafe_paths true",
		},
		{
			name:       "unknown directory allowed",
			paths:      map[string]string{"custom": "/opt/tool/mcp.json"},
			allowWarn:  true,
			wantStatus: SeverityInfo,
		},
		{
			name:       "blocked wins",
			paths:      map[string]string{"custom": "/opt/tool/mcp.json", "evil": "/etc/mcp.json"},
			allowWarn:  true,
			wantStatus: SeverityError,
			wantHint:   "point config_path at a user directory in the tool settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := (&PathSafetyCheck{Classifier: classifier, Paths: tt.paths, AllowWarn: tt.allowWarn}).Run(ctx)
			assert.Equal(t, tt.wantStatus, r.Status, r.Message)
			assert.Equal(t, tt.wantHint, r.FixHint)
			assert.Len(t, r.Details, len(tt.paths))
		})
	}
}
