// Package safety classifies write destinations before any config file is
// touched.
package safety

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/paths"
)

// Level is the outcome of classifying a path.
type Level int

const (
	// Safe paths live under known configuration directories.
	Safe Level = iota
	// Warn paths are allowed only with explicit confirmation.
	Warn
	// Block paths are never written.
	Block
)

func (l Level) String() string {
	switch l {
	case Safe:
		return "safe"
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// knownToolDirs are home-relative directories that MCP clients keep their
// configuration in.
var knownToolDirs = []string{
	".aider",
	".amp",
	".augment",
	".claude",
	".codex",
	".continue",
	".copilot",
	".cody",
	".cursor",
	".droid",
	".factory",
	".gemini",
	".github",
	".kiro",
	".opencode",
	".qwen",
	".qwen-code",
	".rovodev",
	".vscode",
}

// Classifier holds the directory lists a path is checked against. Build
// one with [Default] or populate the lists directly.
type Classifier struct {
	Blocked []string
	Safe    []string
	// SafeFiles are individual files outside any safe directory that are
	// still safe to write, such as ~/.claude.json.
	SafeFiles []string
}

// Default returns the classifier for the current platform. Blocked system
// directories that contain the home directory are left out so that a user
// whose home sits under one of them (root on Linux) can still sync.
func Default(r paths.Resolver) Classifier {
	return forOS(runtime.GOOS, r)
}

func forOS(goos string, r paths.Resolver) Classifier {
	var blocked []string
	switch goos {
	case "windows":
		blocked = []string{`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`}
	case "darwin":
		blocked = []string{"/System", "/Library", "/private", "/bin", "/sbin", "/usr/bin", "/usr/sbin", "/usr/lib", "/etc", "/var"}
	default:
		blocked = []string{"/bin", "/sbin", "/usr/bin", "/usr/sbin", "/usr/lib", "/usr/lib64", "/lib", "/lib64", "/etc", "/var", "/boot", "/root"}
	}

	c := Classifier{}
	for _, dir := range blocked {
		if r.Home != "" && within(r.Home, dir) {
			continue
		}
		c.Blocked = append(c.Blocked, dir)
	}

	if r.Home != "" {
		c.Safe = append(c.Safe, filepath.Join(r.Home, ".config"), filepath.Join(r.Home, ".local"))
		if goos == "darwin" {
			c.Safe = append(c.Safe,
				filepath.Join(r.Home, "Library", "Application Support"),
				filepath.Join(r.Home, "Library", "Preferences"),
			)
		}
		for _, d := range knownToolDirs {
			c.Safe = append(c.Safe, filepath.Join(r.Home, d))
		}
		c.SafeFiles = append(c.SafeFiles, filepath.Join(r.Home, ".claude.json"))
	}
	for _, d := range []string{r.ConfigHome, r.DataHome, r.AppData} {
		if d != "" {
			c.Safe = append(c.Safe, d)
		}
	}
	return c
}

// Classify returns the level for path. Block is evaluated first, on the
// canonical form of the path; for a file that does not exist yet the nearest
// existing ancestor is resolved and the rest re-appended.
func (c Classifier) Classify(path string) Level {
	canonical := Canonical(path)
	for _, dir := range c.Blocked {
		if within(canonical, Canonical(dir)) || within(path, dir) {
			return Block
		}
	}
	for _, f := range c.SafeFiles {
		if canonical == Canonical(f) {
			return Safe
		}
	}
	for _, dir := range c.Safe {
		if within(canonical, Canonical(dir)) {
			return Safe
		}
	}
	return Warn
}

// Canonical returns the absolute, symlink-resolved form of path. Components
// that do not exist are kept verbatim beneath the deepest existing ancestor.
// It never fails; unresolvable input is returned cleaned.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	existing := abs
	for {
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs
		}
		existing = parent
		if _, err := os.Stat(existing); err == nil {
			break
		}
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return abs
	}
	rest, err := filepath.Rel(existing, abs)
	if err != nil {
		return abs
	}
	return filepath.Join(resolved, rest)
}

// within reports whether path equals dir or lies beneath it.
func within(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if sameFold(path, dir) {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func sameFold(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Check turns a level into a gate. Warn passes only when allowWarn is set.
func Check(path string, level Level, allowWarn bool) error {
	switch level {
	case Block:
		return errors.WithHint(
			errors.Wrapf(errors.ErrPathBlocked, "refusing to write %s", path),
			"system directories are never written",
		)
	case Warn:
		if allowWarn {
			return nil
		}
		return errors.WithHint(
			errors.Wrapf(errors.ErrPathUnsafe, "refusing to write %s", path),
			"re-run with --force or set allow_unsafe_paths: true to write outside known config directories",
		)
	default:
		return nil
	}
}

// Gate classifies path and applies Check in one step.
func (c Classifier) Gate(path string, allowWarn bool) (Level, error) {
	level := c.Classify(path)
	return level, Check(path, level, allowWarn)
}
