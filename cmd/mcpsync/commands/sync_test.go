package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/cli/prompt"
	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
)

const conflictingGemini = `{
  "theme": "dark",
  "mcpServers": {
    "github": {"command": "uvx", "args": ["gh-mcp"]}
  }
}
`

func TestSync_SingleTool(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx", "args": ["-y", "gh"]}}`)
	env.write(t, "{\n  \"theme\": \"dark\"\n}\n", ".gemini", "settings.json")

	var buf bytes.Buffer
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli"}))

	got := env.read(t, ".gemini", "settings.json")
	assert.Contains(t, got, `"theme": "dark"`)
	assert.Contains(t, got, `"github"`)
	assert.Contains(t, buf.String(), "gemini-cli (~/.gemini/settings.json): synced")
	assert.Equal(t, "{\n  \"theme\": \"dark\"\n}\n", env.read(t, ".gemini", "settings.bak"))
}

func TestSync_ConflictsPending(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, conflictingGemini, ".gemini", "settings.json")

	var buf bytes.Buffer
	err := runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflictsPending))
	assert.Equal(t, conflictingGemini, env.read(t, ".gemini", "settings.json"), "file must be untouched")
	assert.Contains(t, buf.String(), "github")
}

func TestSync_StrategyTarget(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}, "docs": {"url": "https://docs.example/mcp"}}`)
	env.write(t, conflictingGemini, ".gemini", "settings.json")
	syncStrategy = "target"

	var buf bytes.Buffer
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-*"}))

	got := env.read(t, ".gemini", "settings.json")
	assert.Contains(t, got, `"uvx"`)
	assert.NotContains(t, got, `"npx"`)
	assert.Contains(t, got, `"docs"`)
}

func TestSync_ResolutionsFile(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, conflictingGemini, ".gemini", "settings.json")
	syncResolutions = env.write(t, `
- name: github
  choice: custom
  custom:
    name: github
    command: docker
    args: [run, gh]
`, "resolutions.yaml")

	var buf bytes.Buffer
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli"}))
	got := env.read(t, ".gemini", "settings.json")
	assert.Contains(t, got, `"docker"`)
	assert.NotContains(t, got, `"uvx"`)
}

func TestSync_Interactive(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, conflictingGemini, ".gemini", "settings.json")
	syncInteractive = true
	conflictResolver = stubResolver(reconcile.ChoiceSource)

	var buf bytes.Buffer
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli"}))
	assert.Contains(t, env.read(t, ".gemini", "settings.json"), `"npx"`)
}

func TestSync_InteractiveCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, conflictingGemini, ".gemini", "settings.json")
	syncInteractive = true
	conflictResolver = func([]reconcile.Conflict) ([]reconcile.Resolution, error) {
		return nil, prompt.ErrSelectionCancelled
	}

	var buf bytes.Buffer
	err := runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli"})
	require.ErrorIs(t, err, prompt.ErrSelectionCancelled)
	assert.Equal(t, conflictingGemini, env.read(t, ".gemini", "settings.json"))
}

func TestSync_Enabled(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, `{}`, ".gemini", "settings.json")
	env.write(t, conflictingGemini, ".qwen", "settings.json")

	cfg := config.Default()
	cfg.EnabledTools = []string{"gemini-cli", "qwen-code", "amp"}
	a := env.app(t, cfg)

	var buf bytes.Buffer
	err := runSyncWithWriter(env.ctx, &buf, a, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflictsPending))
	assert.Contains(t, buf.String(), "✓ gemini-cli")
	assert.Contains(t, buf.String(), "✗ qwen-code: conflicts detected: github")
	assert.NotContains(t, buf.String(), "amp", "tools without a config file are skipped")

	buf.Reset()
	syncStrategy = "source"
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, a, nil))
	assert.Contains(t, env.read(t, ".qwen", "settings.json"), `"npx"`)
}

func TestSync_ExplicitToolsKeepGoing(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	broken := "{not json"
	env.write(t, broken, ".gemini", "settings.json")
	env.write(t, `{}`, ".qwen", "settings.json")
	env.write(t, broken, ".factory", "mcp.json")

	var buf bytes.Buffer
	err := runSyncWithWriter(env.ctx, &buf, env.app(t, nil), []string{"gemini-cli", "qwen-code", "factory-droid"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidFormat), "got %v", err)
	assert.Contains(t, err.Error(), "syncing gemini-cli")
	assert.Contains(t, err.Error(), "syncing factory-droid")

	assert.Contains(t, env.read(t, ".qwen", "settings.json"), `"npx"`, "later tools still sync")
	assert.Contains(t, buf.String(), "✓ qwen-code")
	assert.Contains(t, buf.String(), "✗ syncing gemini-cli")
	assert.Equal(t, broken, env.read(t, ".gemini", "settings.json"))
}

func TestSync_NoEnabledTools(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	require.NoError(t, runSyncWithWriter(env.ctx, &buf, env.app(t, nil), nil))
	assert.Contains(t, buf.String(), "No tools enabled")
}

func TestSync_FlagValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
		args  []string
		want  string
	}{
		{
			name:  "custom strategy",
			setup: func() { syncStrategy = "custom" },
			args:  []string{"gemini-cli"},
			want:  "--resolutions file",
		},
		{
			name:  "unknown strategy",
			setup: func() { syncStrategy = "newest" },
			args:  []string{"gemini-cli"},
			want:  "unknown resolution",
		},
		{
			name:  "exclusive flags",
			setup: func() { syncStrategy, syncInteractive = "source", true },
			args:  []string{"gemini-cli"},
			want:  "mutually exclusive",
		},
		{
			name:  "interactive needs a tool",
			setup: func() { syncInteractive = true },
			want:  "need a single tool",
		},
		{
			name:  "unknown tool",
			args:  []string{"emacs"},
			want:  `no tool matches "emacs"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup()
			}
			var buf bytes.Buffer
			err := runSyncWithWriter(env.ctx, &buf, env.app(t, nil), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadResolutions(t *testing.T) {
	env := newTestEnv(t)

	path := env.write(t, `[{"name": "a", "choice": "target"}, {"name": "b", "choice": "source"}]`, "r.json")
	got, err := loadResolutions(path)
	require.NoError(t, err)
	assert.Equal(t, []reconcile.Resolution{
		{Name: "a", Choice: reconcile.ChoiceTarget},
		{Name: "b", Choice: reconcile.ChoiceSource},
	}, got)

	bad := env.write(t, "- name: a\n  choice: newest\n", "bad.yaml")
	_, err = loadResolutions(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `resolution for "a"`)

	_, err = loadResolutions(env.path("missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
