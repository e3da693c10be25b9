package commands

import (
	"context"
	"log/slog"

	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/paths"
	"github.com/thoreinstein/mcpsync/internal/safety"
	"github.com/thoreinstein/mcpsync/internal/source"
	"github.com/thoreinstein/mcpsync/internal/storage"
	"github.com/thoreinstein/mcpsync/internal/syncer"
	"github.com/thoreinstein/mcpsync/internal/versions"
)

// Seams replaced by tests.
var (
	resolverFunc   = paths.DefaultResolver
	classifierFunc = safety.Default
)

// remoteResolver expands tool paths on a remote host. "~" is kept so the
// remote shell expands it.
var remoteResolver = paths.Resolver{
	Home:       "~",
	AppData:    "~/.config",
	ConfigHome: "~/.config",
	DataHome:   "~/.local/share",
}

// app bundles what commands need, built from the loaded config and the
// global flags.
type app struct {
	cfg      *config.Config
	cfgPath  string
	resolver paths.Resolver
	catalog  catalog.Catalog
	local    *storage.Local
	store    *source.Store
	source   source.Provider
	orch     *syncer.Orchestrator
	versions *versions.Store
	remote   *storage.SSH
}

// newApp wires the orchestrator for cfg. remote selects SSH storage for tool
// files; the source always stays local.
func newApp(ctx context.Context, cfg *config.Config, cfgPath, remote string, force bool) (*app, error) {
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	mode, err := source.ParseMode(cfg.SourceMode)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}

	r := resolverFunc()
	a := &app{
		cfg:      cfg,
		cfgPath:  cfgPath,
		resolver: r,
		catalog:  cat,
		local:    storage.NewOS(),
	}
	a.store = source.NewStore(a.local, r.SourceFile(), cfg.Backup)
	a.source = a.store
	if mode == source.ModeClaude {
		claude, err := cat.Lookup(catalog.ClaudeCode)
		if err != nil {
			return nil, err
		}
		path, err := r.Expand(claude.ConfigPath)
		if err != nil {
			return nil, err
		}
		a.source = source.NewClaudeFile(a.local, path)
	}

	opts := []syncer.Option{syncer.WithBackupPolicy(cfg.Backup)}
	var target storage.Storage = a.local
	if remote != "" {
		t, err := storage.ParseTarget(remote)
		if err != nil {
			return nil, errors.NewUserError(err, "Use --remote user@host[:port]")
		}
		a.remote = storage.NewSSH(t)
		target = a.remote
		opts = append(opts, syncer.WithResolver(remoteResolver))
		logging.FromContext(ctx).Debug("using remote target", slog.String("host", t.String()))
	} else {
		opts = append(opts,
			syncer.WithResolver(r),
			syncer.WithSafety(classifierFunc(r), cfg.AllowUnsafePaths || force),
		)
		if cfg.Versions.Enabled {
			vs, err := versions.Open(ctx, r.VersionsFile())
			if err != nil {
				return nil, err
			}
			a.versions = vs
			opts = append(opts, syncer.WithSnapshots(vs))
		}
	}

	a.orch = syncer.New(cat, target, a.source, opts...)
	return a, nil
}

// Close releases the version store.
func (a *app) Close() {
	if a.versions != nil {
		_ = a.versions.Close()
	}
}

// requireVersions returns the version store or a user error when history
// is unavailable.
func (a *app) requireVersions() (*versions.Store, error) {
	if a.versions != nil {
		return a.versions, nil
	}
	if a.remote != nil {
		return nil, errors.NewUserError(errors.New("version history is local only"), "Drop --remote to use versions")
	}
	return nil, errors.NewUserError(errors.New("version history is disabled"), "Run: mcpsync config set versions.enabled true")
}

// requireStore returns the app-managed store, or a user error when the
// source is the Claude Code file.
func (a *app) requireStore() (*source.Store, error) {
	if a.source.Mode() == source.ModeAppManaged {
		return a.store, nil
	}
	return nil, errors.NewUserError(
		errors.Newf("source_mode is %s; servers are edited in Claude Code", a.source.Mode()),
		"Run: mcpsync config set source_mode app-managed",
	)
}

// loadApp builds the app from the config loaded at startup and the global
// flags.
func loadApp(ctx context.Context) (*app, error) {
	if configLoadErr != nil {
		return nil, errors.NewConfigError(configLoadErr)
	}
	return newApp(ctx, loadedConfig, configPath(), remoteFlag, forceFlag)
}

// configPath is the file config changes are written to.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.File()
}
