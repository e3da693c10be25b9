package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/paths"
)

func testClassifier(t *testing.T) (Classifier, string) {
	t.Helper()
	root := Canonical(t.TempDir())
	blocked := filepath.Join(root, "system")
	safe := filepath.Join(root, "home", ".config")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.MkdirAll(safe, 0o755))
	return Classifier{
		Blocked:   []string{blocked},
		Safe:      []string{safe},
		SafeFiles: []string{filepath.Join(root, "home", ".claude.json")},
	}, root
}

func TestClassifier_Classify(t *testing.T) {
	c, root := testClassifier(t)
	tests := []struct {
		name string
		path string
		want Level
	}{
		{name: "blocked dir itself", path: "system", want: Block},
		{name: "blocked descendant", path: "system/etc/app.json", want: Block},
		{name: "safe descendant", path: "home/.config/tool/settings.json", want: Safe},
		{name: "safe missing nested", path: "home/.config/new/deep/mcp.json", want: Safe},
		{name: "safe file", path: "home/.claude.json", want: Safe},
		{name: "sibling of safe file", path: "home/.other.json", want: Warn},
		{name: "prefix lookalike is not a descendant", path: "systemd/x.json", want: Warn},
		{name: "elsewhere", path: "tmp/random/config.json", want: Warn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(filepath.Join(root, filepath.FromSlash(tt.path)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_SymlinkIntoBlocked(t *testing.T) {
	c, root := testClassifier(t)
	link := filepath.Join(root, "home", ".config", "sneaky")
	if err := os.Symlink(filepath.Join(root, "system"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	assert.Equal(t, Block, c.Classify(filepath.Join(link, "mcp.json")))
}

func TestClassifier_BlockWinsOverSafe(t *testing.T) {
	root := Canonical(t.TempDir())
	c := Classifier{Blocked: []string{root}, Safe: []string{root}}
	assert.Equal(t, Block, c.Classify(filepath.Join(root, "x.json")))
}

func TestCanonical_MissingTail(t *testing.T) {
	root := Canonical(t.TempDir())
	p := filepath.Join(root, "a", "b", "c.json")
	assert.Equal(t, p, Canonical(p))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check("/p", Safe, false))
	require.NoError(t, Check("/p", Warn, true))

	err := Check("/p", Warn, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPathUnsafe))
	assert.NotEmpty(t, errors.Hints(err))

	err = Check("/p", Block, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPathBlocked))
}

func TestForOS(t *testing.T) {
	t.Run("linux home under root is not blocked", func(t *testing.T) {
		c := forOS("linux", paths.Resolver{Home: "/root"})
		assert.NotContains(t, c.Blocked, "/root")
		assert.Contains(t, c.Blocked, "/etc")
		assert.Contains(t, c.Safe, filepath.Join("/root", ".claude"))
	})
	t.Run("linux regular home", func(t *testing.T) {
		c := forOS("linux", paths.Resolver{Home: "/home/me", ConfigHome: "/home/me/.config"})
		assert.Contains(t, c.Blocked, "/root")
		assert.Contains(t, c.Safe, filepath.Join("/home/me", ".gemini"))
		assert.Contains(t, c.SafeFiles, filepath.Join("/home/me", ".claude.json"))
	})
	t.Run("darwin", func(t *testing.T) {
		c := forOS("darwin", paths.Resolver{Home: "/Users/me"})
		assert.Contains(t, c.Blocked, "/System")
		assert.Contains(t, c.Safe, filepath.Join("/Users/me", "Library", "Application Support"))
	})
	t.Run("no home", func(t *testing.T) {
		c := forOS("linux", paths.Resolver{})
		assert.Empty(t, c.Safe)
		assert.NotEmpty(t, c.Blocked)
	})
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "safe", Safe.String())
	assert.Equal(t, "warn", Warn.String())
	assert.Equal(t, "block", Block.String())
}
