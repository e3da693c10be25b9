package versions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "versions.db"), WithClock(tick()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSanitizeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"claude-code", "claude-code"},
		{"qwen_code", "qwen_code"},
		{"../etc/passwd", "___etc_passwd"},
		{"a b.c", "a_b_c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeID(tt.in), tt.in)
	}
}

func TestSaveListLoad(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	first, err := s.Save(ctx, "gemini-cli", "before sync", `{"a":1}`, "", SourceAuto)
	require.NoError(t, err)
	second, err := s.Save(ctx, "gemini-cli", "manual", `{"a":2}`, "note", "")
	require.NoError(t, err)
	_, err = s.Save(ctx, "amp", "other", `{}`, "", SourceManual)
	require.NoError(t, err)

	assert.Equal(t, SourceManual, second.Source, "empty source defaults to manual")

	list, err := s.List(ctx, "gemini-cli")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "note", list[0].Description)

	got, err := s.Load(ctx, "gemini-cli", first.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got.Content)
	assert.Equal(t, SourceAuto, got.Source)
	assert.True(t, first.Timestamp.Equal(got.Timestamp))

	_, err = s.Load(ctx, "amp", first.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound), "versions are scoped by config id")
}

func TestList_Empty(t *testing.T) {
	list, err := openTest(t).List(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	v, err := s.Save(ctx, "codex", "x", "content", "", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "codex", v.ID))
	err = s.Delete(ctx, "codex", v.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRenameAndDefault(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	a, err := s.Save(ctx, "amp", "a", "A", "", "")
	require.NoError(t, err)
	b, err := s.Save(ctx, "amp", "b", "B", "", "")
	require.NoError(t, err)

	m, err := s.Rename(ctx, "amp", a.ID, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", m.Name)
	assert.True(t, m.Timestamp.After(b.Timestamp), "update refreshes the timestamp")

	yes := true
	_, err = s.Update(ctx, "amp", a.ID, Update{IsDefault: &yes})
	require.NoError(t, err)
	_, err = s.Update(ctx, "amp", b.ID, Update{IsDefault: &yes})
	require.NoError(t, err)

	list, err := s.List(ctx, "amp")
	require.NoError(t, err)
	defaults := 0
	for _, v := range list {
		if v.IsDefault {
			defaults++
			assert.Equal(t, b.ID, v.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	_, err = s.Rename(ctx, "amp", "missing", "x")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(ctx, "x", "n", "c", "", "")
	require.NoError(t, err)
	list, err := s.List(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
