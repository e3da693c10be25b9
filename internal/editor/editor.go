// Package editor launches the user's preferred text editor.
package editor

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/mcpsync/internal/errors"
)

// Open launches the user's editor on path and waits for it to exit.
// $EDITOR and $VISUAL may carry arguments, as in "code --wait".
func Open(ctx context.Context, path string) error {
	argv := append(strings.Fields(detectEditor()), path)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running editor %s", argv[0])
	}
	return nil
}

// detectEditor returns the editor command line. Fallback chain:
// $EDITOR, $VISUAL, nano, vi.
func detectEditor() string {
	if editor := strings.TrimSpace(os.Getenv("EDITOR")); editor != "" {
		return editor
	}
	if visual := strings.TrimSpace(os.Getenv("VISUAL")); visual != "" {
		return visual
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
