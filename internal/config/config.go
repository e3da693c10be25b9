// Package config provides configuration management for mcpsync using Viper.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/thoreinstein/mcpsync/internal/backup"
	"github.com/thoreinstein/mcpsync/internal/catalog"
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/paths"
	"github.com/thoreinstein/mcpsync/internal/source"
	"github.com/thoreinstein/mcpsync/pkg/fileutil"
)

// EnvPrefix prefixes environment overrides: MCPSYNC_SOURCE_MODE,
// MCPSYNC_BACKUP_MAX_BACKUPS and so on.
const EnvPrefix = "MCPSYNC"

// Config represents the top-level configuration structure.
type Config struct {
	Version          int            `mapstructure:"version" json:"version" yaml:"version"`
	SourceMode       string         `mapstructure:"source_mode" json:"source_mode" yaml:"source_mode"`
	EnabledTools     []string       `mapstructure:"enabled_tools" json:"enabled_tools" yaml:"enabled_tools"`
	Backup           backup.Policy  `mapstructure:"backup" json:"backup" yaml:"backup"`
	Versions         VersionsConfig `mapstructure:"versions" json:"versions" yaml:"versions"`
	Tools            []catalog.Tool `mapstructure:"tools" json:"tools,omitempty" yaml:"tools,omitempty"`
	AllowUnsafePaths bool           `mapstructure:"allow_unsafe_paths" json:"allow_unsafe_paths" yaml:"allow_unsafe_paths"`
}

// VersionsConfig controls the version history store.
type VersionsConfig struct {
	// Enabled snapshots every file a sync replaces.
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:      1,
		SourceMode:   string(source.ModeClaude),
		EnabledTools: []string{},
		Backup:       backup.DefaultPolicy(),
		Versions:     VersionsConfig{Enabled: true},
	}
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName(strings.TrimSuffix(paths.ConfigFileName, filepath.Ext(paths.ConfigFileName)))
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.DefaultResolver().AppConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	d := Default()
	viper.SetDefault("version", d.Version)
	viper.SetDefault("source_mode", d.SourceMode)
	viper.SetDefault("enabled_tools", d.EnabledTools)
	viper.SetDefault("backup.enabled", d.Backup.Enabled)
	viper.SetDefault("backup.max_backups", d.Backup.MaxBackups)
	viper.SetDefault("versions.enabled", d.Versions.Enabled)
	viper.SetDefault("allow_unsafe_paths", d.AllowUnsafePaths)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
// The result is validated; all problems are reported together.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// implicit load; defaults apply
		case path != "" && errors.Is(err, os.ErrNotExist):
			return nil, errors.Wrapf(errors.MarkIO(err, path), "config file not found")
		default:
			return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidConfig), "unmarshaling config")
	}
	cfg.Backup = cfg.Backup.Normalize()

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig)
	}
	return &cfg, nil
}

// File returns the config file in use, or the default location when none
// was read.
func File() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	return paths.DefaultResolver().ConfigFile()
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if err := paths.EnsureDir(filepath.Dir(path), 0); err != nil {
		return errors.Wrap(errors.MarkIO(err, filepath.Dir(path)), "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, cfg); err != nil {
		return errors.Wrap(errors.MarkIO(err, path), "writing config file")
	}
	return nil
}

// Catalog returns the default tool catalog extended by cfg.Tools.
func (c *Config) Catalog() (catalog.Catalog, error) {
	return catalog.New(c.Tools...)
}

// EnableTool adds id to EnabledTools. It reports whether anything changed.
func (c *Config) EnableTool(id string) bool {
	if slices.Contains(c.EnabledTools, id) {
		return false
	}
	c.EnabledTools = append(c.EnabledTools, id)
	return true
}

// DisableTool removes id from EnabledTools. It reports whether anything
// changed.
func (c *Config) DisableTool(id string) bool {
	n := len(c.EnabledTools)
	c.EnabledTools = slices.DeleteFunc(c.EnabledTools, func(t string) bool { return t == id })
	return len(c.EnabledTools) != n
}

// Keys lists the keys accepted by Get and Set.
func Keys() []string {
	return []string{
		"version",
		"source_mode",
		"enabled_tools",
		"backup.enabled",
		"backup.max_backups",
		"versions.enabled",
		"allow_unsafe_paths",
	}
}

func unknownKey(key string) error {
	return errors.WithHint(
		errors.Wrapf(errors.ErrInvalidConfig, "unknown config key %q", key),
		"known keys: "+strings.Join(Keys(), ", ")+"; edit custom tools with 'mcpsync config edit'",
	)
}

// Get returns the value of key.
func (c *Config) Get(key string) (any, error) {
	switch key {
	case "version":
		return c.Version, nil
	case "source_mode":
		return c.SourceMode, nil
	case "enabled_tools":
		return c.EnabledTools, nil
	case "backup.enabled":
		return c.Backup.Enabled, nil
	case "backup.max_backups":
		return c.Backup.MaxBackups, nil
	case "versions.enabled":
		return c.Versions.Enabled, nil
	case "allow_unsafe_paths":
		return c.AllowUnsafePaths, nil
	case "tools":
		return c.Tools, nil
	default:
		return nil, unknownKey(key)
	}
}

// Set parses value for key and stores it. enabled_tools takes a
// comma-separated list.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "version":
		c.Version, err = cast.ToIntE(value)
	case "source_mode":
		var mode source.Mode
		mode, err = source.ParseMode(value)
		c.SourceMode = string(mode)
	case "enabled_tools":
		c.EnabledTools = splitList(value)
	case "backup.enabled":
		c.Backup.Enabled, err = cast.ToBoolE(value)
	case "backup.max_backups":
		c.Backup.MaxBackups, err = cast.ToIntE(value)
		c.Backup = c.Backup.Normalize()
	case "versions.enabled":
		c.Versions.Enabled, err = cast.ToBoolE(value)
	case "allow_unsafe_paths":
		c.AllowUnsafePaths, err = cast.ToBoolE(value)
	default:
		return unknownKey(key)
	}
	if err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrInvalidConfig), "%s", key)
	}
	if errs := Validate(c); len(errs) > 0 {
		return errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig)
	}
	return nil
}

// splitList splits a comma-separated string, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
