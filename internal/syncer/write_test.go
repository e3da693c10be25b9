package syncer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/jsonpath"
	"github.com/thoreinstein/mcpsync/internal/mcp"
)

const ampPath = home + "/.config/amp/settings.json"

func TestSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.write(t, ampPath, `{
  "amp.url": "https://old",
  "amp.mcpServers": {"a": {"command": "x"}},
  "editor.fontSize": 12
}`)

	entries, err := f.orch.Settings(ctx, catalog.Amp, "amp.url")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `"https://old"`, string(entries[0].Value))

	err = f.orch.SetSettings(ctx, catalog.Amp, "amp.url", []jsonpath.Entry{
		{Key: "amp.url", Value: json.RawMessage(`"https://new"`)},
	})
	require.NoError(t, err)

	got := f.read(t, ampPath)
	assert.Contains(t, got, `"https://new"`)
	assert.Contains(t, got, `"editor.fontSize": 12`)

	servers, err := f.orch.ReadTool(ctx, catalog.Amp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mcp.Names(servers), "server container untouched")

	_, err = f.orch.Settings(ctx, catalog.Codex, "x")
	assert.True(t, errors.Is(err, errors.ErrInvalidFormat))
}

func TestSetSettings_WholePrefixKeepsServers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.write(t, ampPath, `{"amp.url": "https://old", "amp.mcpServers": {"a": {"command": "x"}}}`)

	entries, err := f.orch.Settings(ctx, catalog.Amp, "amp.")
	require.NoError(t, err)
	require.Len(t, entries, 1, "the server container is not a setting")
	assert.Equal(t, "amp.url", entries[0].Key)

	err = f.orch.SetSettings(ctx, catalog.Amp, "amp.", []jsonpath.Entry{
		{Key: "amp.url", Value: json.RawMessage(`"https://new"`)},
	})
	require.NoError(t, err)

	servers, err := f.orch.ReadTool(ctx, catalog.Amp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mcp.Names(servers))
	assert.Contains(t, f.read(t, ampPath), `"https://new"`)

	err = f.orch.SetSettings(ctx, catalog.Amp, "amp.", []jsonpath.Entry{
		{Key: "amp.mcpServers", Value: json.RawMessage(`{}`)},
	})
	require.True(t, errors.Is(err, errors.ErrInvalidFormat), "got %v", err)
	assert.NotEmpty(t, errors.Hints(err))
}

func TestBackupsAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []mcp.Server{{Name: "a", Command: "x"}})
	f.write(t, geminiPath, `{"mcpServers":{}}`)

	_, err := f.orch.Sync(ctx, catalog.GeminiCLI, nil)
	require.NoError(t, err)

	slots, err := f.orch.Backups(ctx, catalog.GeminiCLI)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, home+"/.gemini/settings.bak", slots[0].Path)

	require.NoError(t, f.orch.RestoreBackup(ctx, catalog.GeminiCLI, 0))
	assert.Equal(t, `{"mcpServers":{}}`, f.read(t, geminiPath))

	slots, err = f.orch.Backups(ctx, catalog.GeminiCLI)
	require.NoError(t, err)
	assert.Len(t, slots, 2, "restoring rotates the replaced content too")
}

func TestWriteContent(t *testing.T) {
	ctx := context.Background()
	rec := &snapshotRecorder{}
	f := newFixture(t, nil, WithSnapshots(rec))
	f.write(t, geminiPath, `corrupt`)

	err := f.orch.WriteContent(ctx, catalog.GeminiCLI, []byte(`{"mcpServers":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidFormat))
	assert.Equal(t, "corrupt", f.read(t, geminiPath))

	require.NoError(t, f.orch.WriteContent(ctx, catalog.GeminiCLI, []byte(`{"mcpServers":{"b":{"command":"y"}}}`)))
	servers, err := f.orch.ReadTool(ctx, catalog.GeminiCLI)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, mcp.Names(servers))
	require.Len(t, rec.saved, 1)
	assert.Equal(t, "corrupt", rec.saved[0].content)

	exists, err := afero.Exists(f.fs, home+"/.gemini/settings.bak")
	require.NoError(t, err)
	assert.True(t, exists)
}
