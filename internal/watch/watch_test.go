package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/logging"
)

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	w, err := New(path, 100*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logging.ForTest(t)))
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	for i := range 5 {
		require.NoError(t, os.WriteFile(path, []byte{byte('0' + i)}, 0o600))
	}
	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0o600))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst fires once")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.json")

	w, err := New(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, path, w.Path())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	go func() {
		_ = w.Run(ctx, func(context.Context) error {
			changed <- struct{}{}
			return nil
		})
	}()

	tmp := filepath.Join(dir, ".servers.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("{}"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("rename over the watched file was not reported")
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "servers.json"), 0)
	require.Error(t, err)
}
