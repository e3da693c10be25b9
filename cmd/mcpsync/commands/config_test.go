package commands

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/errors"
)

func TestConfig_SetGet(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.Default()

	var buf bytes.Buffer
	require.NoError(t, runConfigSetWithWriter(&buf, cfg, env.cfgPath, "backup.max_backups", "5"))
	assert.Equal(t, "Set backup.max_backups = 5\n", buf.String())

	require.NoError(t, runConfigSetWithWriter(&buf, cfg, env.cfgPath, "enabled_tools", "amp, codex"))

	saved, err := config.Load(env.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Backup.MaxBackups)
	assert.Equal(t, []string{"amp", "codex"}, saved.EnabledTools)

	buf.Reset()
	require.NoError(t, runConfigGetWithWriter(&buf, saved, "enabled_tools"))
	assert.Equal(t, "amp\ncodex\n", buf.String())

	buf.Reset()
	require.NoError(t, runConfigGetWithWriter(&buf, saved, "source_mode"))
	assert.Equal(t, "claude\n", buf.String())
}

func TestConfig_SetInvalid(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.Default()
	var buf bytes.Buffer

	err := runConfigSetWithWriter(&buf, cfg, env.cfgPath, "source_mode", "cloud")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	err = runConfigSetWithWriter(&buf, cfg, env.cfgPath, "colour", "red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "colour"`)

	_, statErr := os.Stat(env.cfgPath)
	assert.True(t, os.IsNotExist(statErr), "nothing is written on error")
}

func TestConfig_List(t *testing.T) {
	newTestEnv(t)
	var buf bytes.Buffer
	require.NoError(t, runConfigListWithWriter(&buf, config.Default()))
	assert.Contains(t, buf.String(), "source_mode: claude\n")
	assert.Contains(t, buf.String(), "max_backups:")
}

func TestConfig_Edit(t *testing.T) {
	env := newTestEnv(t)
	configFlag = env.cfgPath

	var opened string
	old := openEditor
	openEditor = func(_ context.Context, path string) error {
		opened = path
		return os.WriteFile(path, []byte("version: 1\nsource_mode: app-managed\n"), 0o600)
	}
	t.Cleanup(func() { openEditor = old })

	cmd := &cobra.Command{}
	cmd.SetContext(env.ctx)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, runConfigEdit(cmd, nil))
	assert.Equal(t, env.cfgPath, opened)
	assert.Contains(t, buf.String(), "Saved")

	openEditor = func(_ context.Context, path string) error {
		return os.WriteFile(path, []byte("version: 0\n"), 0o600)
	}
	err := runConfigEdit(cmd, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}
