package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/source"
)

func TestInit(t *testing.T) {
	viper.Reset()
	Init()

	assert.Equal(t, 1, viper.GetInt("version"))
	assert.Equal(t, "claude", viper.GetString("source_mode"))
	assert.True(t, viper.GetBool("backup.enabled"))
	assert.Equal(t, 5, viper.GetInt("backup.max_backups"))
}

func TestLoad_NoConfigFile(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	Init()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Backup, cfg.Backup)
	assert.Equal(t, string(source.ModeClaude), cfg.SourceMode)
}

func TestLoad_WithConfigFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte(`source_mode: app-managed
enabled_tools: [gemini-cli, my-editor]
backup:
  max_backups: 50
tools:
  - id: my-editor
    config_path: ~/.my-editor/mcp.json
`)
	require.NoError(t, os.WriteFile(configPath, content, 0o600))

	Init()
	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "app-managed", cfg.SourceMode)
	assert.Equal(t, []string{"gemini-cli", "my-editor"}, cfg.EnabledTools)
	assert.Equal(t, 20, cfg.Backup.MaxBackups, "clamped")
	assert.True(t, cfg.Backup.Enabled, "default kept for unset nested key")
	require.Len(t, cfg.Tools, 1)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	tool, err := cat.Lookup("my-editor")
	require.NoError(t, err)
	assert.Equal(t, "mcpServers", tool.JSONPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("MCPSYNC_BACKUP_MAX_BACKUPS", "2")

	Init()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Backup.MaxBackups)
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	viper.Reset()
	Init()

	_, err := Load("/non/existent/path/config.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_mode: cursor\nenabled_tools: [vim]\n"), 0o600))

	Init()
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "source_mode")
	assert.Contains(t, err.Error(), "vim")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default is valid", func(*Config) {}, nil},
		{"version", func(c *Config) { c.Version = 0 }, ErrVersionTooLow},
		{"unknown tool", func(c *Config) { c.EnabledTools = []string{"vim"} }, ErrUnknownTool},
		{"bad custom tool", func(c *Config) { c.Tools = []catalog.Tool{{ID: "x"}} }, errors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := Validate(cfg)
			if tt.wantErr == nil {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.True(t, errors.Is(errs[0], tt.wantErr), "got %v", errs[0])
		})
	}
	assert.NotEmpty(t, Validate(nil))
}

func TestSetGet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("backup.max_backups", "3"))
	require.NoError(t, cfg.Set("backup.enabled", "false"))
	require.NoError(t, cfg.Set("enabled_tools", "gemini-cli, amp,,"))
	require.NoError(t, cfg.Set("source_mode", "app-managed"))
	require.NoError(t, cfg.Set("allow_unsafe_paths", "true"))

	v, err := cfg.Get("backup.max_backups")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, []string{"gemini-cli", "amp"}, cfg.EnabledTools)
	assert.True(t, cfg.AllowUnsafePaths)

	require.NoError(t, cfg.Set("backup.max_backups", "99"))
	assert.Equal(t, 20, cfg.Backup.MaxBackups)

	err = cfg.Set("backup.enabled", "sometimes")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	err = cfg.Set("enabled_tools", "vim")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	err = cfg.Set("color", "blue")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	assert.NotEmpty(t, errors.Hints(err))

	_, err = cfg.Get("color")
	assert.Error(t, err)
}

func TestToggleTools(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.EnableTool("amp"))
	assert.False(t, cfg.EnableTool("amp"))
	assert.Equal(t, []string{"amp"}, cfg.EnabledTools)
	assert.True(t, cfg.DisableTool("amp"))
	assert.False(t, cfg.DisableTool("amp"))
	assert.Empty(t, cfg.EnabledTools)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.EnableTool("codex")
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, []string{"codex"}, got.EnabledTools)
	assert.Equal(t, cfg.Backup, got.Backup)
	assert.NotContains(t, string(data), "tools: []", "empty custom tools are omitted")

	viper.Reset()
	Init()
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.EnabledTools, loaded.EnabledTools)
}
