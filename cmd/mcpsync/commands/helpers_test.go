package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/config"
	"github.com/thoreinstein/mcpsync/internal/logging"
	"github.com/thoreinstein/mcpsync/internal/paths"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/safety"
)

// testEnv is a throwaway home directory wired into the command seams.
type testEnv struct {
	home     string
	resolver paths.Resolver
	cfgPath  string
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	r := paths.Resolver{
		Home:       home,
		AppData:    filepath.Join(home, ".config"),
		ConfigHome: filepath.Join(home, ".config"),
		DataHome:   filepath.Join(home, ".local", "share"),
	}

	oldResolver, oldClassifier := resolverFunc, classifierFunc
	resolverFunc = func() paths.Resolver { return r }
	classifierFunc = func(r paths.Resolver) safety.Classifier {
		return safety.Classifier{Safe: []string{r.Home}}
	}
	t.Cleanup(func() {
		resolverFunc, classifierFunc = oldResolver, oldClassifier
	})

	resetFlags(t)
	color.NoColor = true

	return &testEnv{
		home:     home,
		resolver: r,
		cfgPath:  r.ConfigFile(),
		ctx:      logging.NewContext(context.Background(), logging.ForTest(t)),
	}
}

// resetFlags puts every package-level flag back to its default for the
// duration of a test.
func resetFlags(t *testing.T) {
	t.Helper()
	set := func() {
		verbosity, quiet, logFormat, logFile = 0, false, "text", ""
		configFlag, remoteFlag, forceFlag = "", "", false
		outputFormat, jsonOutput = outputText, false
		syncAll, syncStrategy, syncResolutions, syncInteractive = false, "", "", false
		previewDiff, previewStrategy, previewResolutions = false, "", ""
		serverURL, serverEnv, serverDisabled, serverTarget, serverRename, serverReveal = "", nil, false, "", "", false
		backupSlot = 0
		versionName, versionDescription, versionDefault = "", "", false
		watchSync, watchStrategy = false, ""
		doctorFix, doctorAll = false, false
	}
	oldResolver := conflictResolver
	set()
	t.Cleanup(func() {
		set()
		conflictResolver = oldResolver
	})
}

// app builds an app for cfg. A nil cfg uses the defaults.
func (e *testEnv) app(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	a, err := newApp(e.ctx, cfg, e.cfgPath, "", false)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// path joins elem under the test home.
func (e *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{e.home}, elem...)...)
}

func (e *testEnv) write(t *testing.T, content string, elem ...string) string {
	t.Helper()
	p := e.path(elem...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func (e *testEnv) read(t *testing.T, elem ...string) string {
	t.Helper()
	b, err := os.ReadFile(e.path(elem...))
	require.NoError(t, err)
	return string(b)
}

// claudeSource writes a ~/.claude.json holding servers.
func (e *testEnv) claudeSource(t *testing.T, servers string) {
	t.Helper()
	e.write(t, `{"numStartups": 3, "mcpServers": `+servers+`}`, ".claude.json")
}

// stubResolver answers every conflict with choice.
func stubResolver(choice reconcile.Choice) func([]reconcile.Conflict) ([]reconcile.Resolution, error) {
	return func(conflicts []reconcile.Conflict) ([]reconcile.Resolution, error) {
		out := make([]reconcile.Resolution, 0, len(conflicts))
		for _, c := range conflicts {
			out = append(out, reconcile.Resolution{Name: c.Name, Choice: choice})
		}
		return out, nil
	}
}
