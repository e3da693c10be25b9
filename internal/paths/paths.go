package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// AppName is the directory name used under the XDG config and data homes.
const AppName = "mcpsync"

// File names inside the application directories.
const (
	ConfigFileName   = "config.yaml"
	SourceFileName   = "servers.json"
	VersionsFileName = "versions.db"
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// Home-relative tokens understood by [Resolver.Expand].
const (
	tokenHome        = "~"
	tokenUserProfile = "%USERPROFILE%"
	tokenAppData     = "%APPDATA%"
)

// Resolver expands configuration path tokens against a fixed set of base
// directories. The zero value resolves nothing; use [DefaultResolver] or
// fill the fields explicitly in tests.
type Resolver struct {
	// Home is the user's home directory.
	Home string
	// AppData is the per-user roaming configuration root that %APPDATA%
	// stands for.
	AppData string
	// ConfigHome is the XDG config home (~/.config on Linux).
	ConfigHome string
	// DataHome is the XDG data home (~/.local/share on Linux).
	DataHome string
}

// DefaultResolver returns a resolver for the current user. A missing home
// directory leaves Home empty; Expand then reports ErrPathResolution for
// home-relative paths.
func DefaultResolver() Resolver {
	home, _ := ResolveHome()
	appData := os.Getenv("APPDATA")
	if appData == "" {
		appData = xdg.ConfigHome
	}
	return Resolver{
		Home:       home,
		AppData:    appData,
		ConfigHome: xdg.ConfigHome,
		DataHome:   xdg.DataHome,
	}
}

// ResolveHome returns the user's home directory.
// Returns ErrPathResolution if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.Mark(err, errors.ErrPathResolution), "resolving home directory")
	}
	return home, nil
}

// Expand resolves the leading token of p:
//
//	~                -> Home
//	~/rest           -> Home/rest
//	%USERPROFILE%\x  -> Home/x
//	%APPDATA%\x      -> AppData/x
//
// The remainder is split on both slash and backslash so that Windows-style
// catalog entries resolve on every platform. Paths without a token are
// returned unchanged.
func (r Resolver) Expand(p string) (string, error) {
	base, rest, ok := r.splitToken(p)
	if !ok {
		return p, nil
	}
	if base == "" {
		return "", errors.Wrapf(errors.ErrPathResolution, "cannot expand %q: base directory unknown", p)
	}
	parts := strings.FieldsFunc(rest, func(c rune) bool { return c == '/' || c == '\\' })
	return filepath.Join(append([]string{base}, parts...)...), nil
}

// splitToken reports the base directory for p's leading token and the
// remainder after it.
func (r Resolver) splitToken(p string) (base, rest string, ok bool) {
	switch {
	case p == tokenHome:
		return r.Home, "", true
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, `~\`):
		return r.Home, p[2:], true
	}
	for _, t := range []struct {
		token string
		base  string
	}{
		{tokenUserProfile, r.Home},
		{tokenAppData, r.AppData},
	} {
		if len(p) < len(t.token) || !strings.EqualFold(p[:len(t.token)], t.token) {
			continue
		}
		rest := p[len(t.token):]
		if rest != "" && rest[0] != '/' && rest[0] != '\\' {
			continue
		}
		return t.base, rest, true
	}
	return "", "", false
}

// MustExpand is Expand for paths known to carry no token or a resolvable
// one; on failure it returns p unchanged.
func (r Resolver) MustExpand(p string) string {
	out, err := r.Expand(p)
	if err != nil {
		return p
	}
	return out
}

// Contract replaces a Home prefix with "~" for display.
func (r Resolver) Contract(p string) string {
	if r.Home == "" {
		return p
	}
	if p == r.Home {
		return tokenHome
	}
	rel, err := filepath.Rel(r.Home, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return tokenHome + string(filepath.Separator) + rel
}

// AppConfigDir returns <ConfigHome>/mcpsync.
func (r Resolver) AppConfigDir() string {
	return filepath.Join(r.ConfigHome, AppName)
}

// AppDataDir returns <DataHome>/mcpsync.
func (r Resolver) AppDataDir() string {
	return filepath.Join(r.DataHome, AppName)
}

// ConfigFile returns the default configuration file path.
func (r Resolver) ConfigFile() string {
	return filepath.Join(r.AppConfigDir(), ConfigFileName)
}

// SourceFile returns the app-managed server list path.
func (r Resolver) SourceFile() string {
	return filepath.Join(r.AppDataDir(), SourceFileName)
}

// VersionsFile returns the version store database path.
func (r Resolver) VersionsFile() string {
	return filepath.Join(r.AppDataDir(), VersionsFileName)
}

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}
