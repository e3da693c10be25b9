package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/source"
)

func TestNewApp_ClaudeSource(t *testing.T) {
	env := newTestEnv(t)
	a := env.app(t, nil)

	assert.Equal(t, source.ModeClaude, a.source.Mode())
	assert.Equal(t, env.path(".claude.json"), a.source.Path())
	assert.NotNil(t, a.versions, "versions are enabled by default")

	_, err := a.requireStore()
	var exitErr *errors.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Suggestion, "source_mode app-managed")
}

func TestNewApp_AppManaged(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.Default()
	cfg.SourceMode = string(source.ModeAppManaged)
	cfg.Versions.Enabled = false
	a := env.app(t, cfg)

	assert.Equal(t, env.resolver.SourceFile(), a.source.Path())
	store, err := a.requireStore()
	require.NoError(t, err)
	assert.Same(t, a.store, store)

	_, err = a.requireVersions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestNewApp_Errors(t *testing.T) {
	env := newTestEnv(t)

	cfg := config.Default()
	cfg.SourceMode = "cloud"
	_, err := newApp(env.ctx, cfg, env.cfgPath, "", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	_, err = newApp(env.ctx, config.Default(), env.cfgPath, "user@", false)
	var exitErr *errors.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Suggestion, "--remote")
}

func TestNewApp_Remote(t *testing.T) {
	env := newTestEnv(t)
	a, err := newApp(env.ctx, config.Default(), env.cfgPath, "dev@build-box", false)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.remote)
	assert.Nil(t, a.versions)
	_, err = a.requireVersions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local only")
}

func TestLoadApp_ConfigError(t *testing.T) {
	newTestEnv(t)
	old := configLoadErr
	configLoadErr = errors.Wrap(errors.ErrInvalidConfig, "bad yaml")
	t.Cleanup(func() { configLoadErr = old })

	_, err := loadApp(t.Context())
	var exitErr *errors.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, errors.ExitUser, exitErr.Code)
}
