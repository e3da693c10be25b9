package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/syncer"
)

func TestPreview_Summary(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}, "docs": {"url": "https://docs.example/mcp"}}`)
	env.write(t, `{"mcpServers": {"github": {"command": "uvx"}, "local": {"command": "local-mcp"}}}`, ".gemini", "settings.json")
	before := env.read(t, ".gemini", "settings.json")

	var buf bytes.Buffer
	require.NoError(t, runPreviewWithWriter(env.ctx, &buf, env.app(t, nil), "gemini-cli"))
	out := buf.String()

	assert.Contains(t, out, "Gemini CLI conflicts (~/.gemini/settings.json)")
	assert.Contains(t, out, "Add (1):\n  + docs\n")
	assert.Contains(t, out, "Keep (1):\n    local\n")
	assert.Contains(t, out, "Conflicts (1):\n  ! github\n")
	assert.Equal(t, before, env.read(t, ".gemini", "settings.json"), "preview never writes")
}

func TestPreview_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	jsonOutput = true

	var buf bytes.Buffer
	require.NoError(t, runPreviewWithWriter(env.ctx, &buf, env.app(t, nil), "amp"))
	var p syncer.Preview
	require.NoError(t, json.Unmarshal(buf.Bytes(), &p))
	assert.False(t, p.Exists)
	assert.True(t, p.HasChanges)
	assert.Equal(t, env.path(".config", "amp", "settings.json"), p.Path)
}

func TestPreview_Diff(t *testing.T) {
	env := newTestEnv(t)
	env.claudeSource(t, `{"github": {"command": "npx"}}`)
	env.write(t, "{\n  \"mcpServers\": {\n    \"github\": {\n      \"command\": \"uvx\"\n    }\n  }\n}\n", ".gemini", "settings.json")
	previewDiff = true
	previewStrategy = "source"

	var buf bytes.Buffer
	require.NoError(t, runPreviewWithWriter(env.ctx, &buf, env.app(t, nil), "gemini-cli"))
	out := buf.String()
	assert.Contains(t, out, "--- a/~/.gemini/settings.json\n")
	assert.Contains(t, out, "-      \"command\": \"uvx\"\n")
	assert.Contains(t, out, "+      \"command\": \"npx\"\n")
}

func TestPreview_UnknownTool(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	err := runPreviewWithWriter(env.ctx, &buf, env.app(t, nil), "emacs")
	assert.True(t, errors.Is(err, errors.ErrToolNotSupported))
}

func TestDetect(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, `{"servers": {"gh": {"type": "stdio", "command": "npx", "env": {"GITHUB_TOKEN": "ghp_abcdefghijkl"}}}}`, ".vscode", "mcp.json")
	a := env.app(t, nil)

	var buf bytes.Buffer
	require.NoError(t, runDetectWithWriter(env.ctx, &buf, a, "~/.vscode/mcp.json"))
	assert.Contains(t, buf.String(), `Format: copilot (container "servers")`)
	assert.Contains(t, buf.String(), "  gh\n")

	buf.Reset()
	jsonOutput = true
	require.NoError(t, runDetectWithWriter(env.ctx, &buf, a, "~/.vscode/mcp.json"))
	var got detectOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "copilot", got.Format)
	require.Len(t, got.Servers, 1)
	assert.Equal(t, "****ijkl", got.Servers[0].Env["GITHUB_TOKEN"])

	env.write(t, `{"editor.fontSize": 12}`, "plain.json")
	err := runDetectWithWriter(env.ctx, &buf, a, env.path("plain.json"))
	assert.True(t, errors.Is(err, errors.ErrNoRecognizedFormat))
}

func TestImport(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, `{"mcpServers": {"gh": {"command": "npx"}, "docs": {"url": "https://docs.example/mcp"}}}`, ".cursor", "mcp.json")
	a := env.app(t, nil)

	var buf bytes.Buffer
	require.NoError(t, runImportWithWriter(env.ctx, &buf, a, "~/.cursor/mcp.json"))
	out := buf.String()
	assert.Contains(t, out, "Detected standard layout in ~/.cursor/mcp.json")
	assert.Contains(t, out, "Imported 2, skipped 0")
	assert.Contains(t, out, "source_mode is claude", "claude mode gets a hint")

	buf.Reset()
	require.NoError(t, runImportWithWriter(env.ctx, &buf, a, "~/.cursor/mcp.json"))
	assert.Contains(t, buf.String(), "Imported 0, skipped 2")

	servers, err := a.store.Servers(env.ctx)
	require.NoError(t, err)
	assert.Len(t, servers, 2)
}
