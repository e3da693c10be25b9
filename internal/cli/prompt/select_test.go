package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
)

func conflicts() []reconcile.Conflict {
	return []reconcile.Conflict{
		{
			Name:   "github",
			ToolID: "gemini-cli",
			Source: mcp.Server{Name: "github", Command: "npx"},
			Target: mcp.Server{Name: "github", Command: "docker"},
		},
		{
			Name:   "docs",
			ToolID: "gemini-cli",
			Source: mcp.Server{Name: "docs", URL: "https://a"},
			Target: mcp.Server{Name: "docs", URL: "https://b"},
		},
	}
}

func TestResolveConflicts_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	got, err := NewSelectorWithIO(strings.NewReader(""), &buf).ResolveConflicts(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, buf.Len(), "no prompt without conflicts")
}

func TestResolveConflicts_Choices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []reconcile.Choice
	}{
		{"defaults", "\n\n", []reconcile.Choice{reconcile.ChoiceSource, reconcile.ChoiceSource}},
		{"short forms", "t\ns\n", []reconcile.Choice{reconcile.ChoiceTarget, reconcile.ChoiceSource}},
		{"long forms", "TARGET\n  target \n", []reconcile.Choice{reconcile.ChoiceTarget, reconcile.ChoiceTarget}},
		{"last line without newline", "s\nt", []reconcile.Choice{reconcile.ChoiceSource, reconcile.ChoiceTarget}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			got, err := NewSelectorWithIO(strings.NewReader(tt.input), &buf).ResolveConflicts(conflicts())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "github", got[0].Name)
			assert.Equal(t, "docs", got[1].Name)
			assert.Equal(t, tt.want, []reconcile.Choice{got[0].Choice, got[1].Choice})
			assert.Contains(t, buf.String(), `"docker"`)
		})
	}
}

func TestResolveConflicts_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"eof", "", ErrSelectionCancelled},
		{"eof after first", "s\n", ErrSelectionCancelled},
		{"quit", "q\n", ErrSelectionCancelled},
		{"invalid", "maybe\n", ErrInvalidSelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			_, err := NewSelectorWithIO(strings.NewReader(tt.input), &buf).ResolveConflicts(conflicts())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRender_MasksSecrets(t *testing.T) {
	t.Parallel()

	out := Render(mcp.Server{Name: "gh", Command: "npx", Env: map[string]string{"GITHUB_TOKEN": "ghp_abcdefghijkl"}})
	assert.Contains(t, out, `"name": "gh"`)
	assert.Contains(t, out, "****ijkl")
	assert.NotContains(t, out, "ghp_abcdefghijkl")
}
