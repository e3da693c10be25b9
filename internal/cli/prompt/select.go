// Package prompt provides interactive CLI prompts for settling merge
// conflicts.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/mcp"
	"github.com/thoreinstein/mcpsync/internal/reconcile"
	"github.com/thoreinstein/mcpsync/internal/redact"
)

// Sentinel errors for conflict selection.
var (
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector asks the user how to settle each conflict.
type Selector struct {
	reader io.Reader
	writer io.Writer
	fuzzy  bool
}

// NewSelector returns a Selector on stdin and stdout. It uses the fuzzy
// finder when stdin is a terminal and a line prompt otherwise.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stdout,
		fuzzy:  term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// NewSelectorWithIO returns a line-prompt Selector on r and w.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{reader: r, writer: w}
}

// choices are offered in this order; the first is the default.
var choices = []reconcile.Choice{reconcile.ChoiceSource, reconcile.ChoiceTarget}

// ResolveConflicts returns one resolution per conflict, in order.
// Cancelling (Esc, Ctrl+C, EOF or "q") returns ErrSelectionCancelled.
func (s *Selector) ResolveConflicts(conflicts []reconcile.Conflict) ([]reconcile.Resolution, error) {
	out := make([]reconcile.Resolution, 0, len(conflicts))
	if len(conflicts) == 0 {
		return out, nil
	}

	var reader *bufio.Reader
	if !s.fuzzy {
		reader = bufio.NewReader(s.reader)
	}
	for i, c := range conflicts {
		var (
			choice reconcile.Choice
			err    error
		)
		if s.fuzzy {
			choice, err = s.find(c)
		} else {
			choice, err = s.ask(reader, c, i+1, len(conflicts))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, reconcile.Resolution{Name: c.Name, Choice: choice})
	}
	return out, nil
}

func (s *Selector) find(c reconcile.Conflict) (reconcile.Choice, error) {
	idx, err := fuzzyfinder.Find(
		choices,
		func(i int) string {
			return fmt.Sprintf("%s: keep %s version", c.Name, choices[i])
		},
		fuzzyfinder.WithHeader(fmt.Sprintf("Conflict in %s for server %q", c.ToolID, c.Name)),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			if choices[i] == reconcile.ChoiceTarget {
				return "Target (" + c.ToolID + "):\n" + Render(c.Target)
			}
			return "Source:\n" + Render(c.Source)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "conflict selection failed")
	}
	return choices[idx], nil
}

func (s *Selector) ask(reader *bufio.Reader, c reconcile.Conflict, n, total int) (reconcile.Choice, error) {
	fmt.Fprintf(s.writer, "Conflict %d/%d: server %q differs in %s\n", n, total, c.Name, c.ToolID)
	fmt.Fprintf(s.writer, "  [s] source:\n%s\n", indent(Render(c.Source)))
	fmt.Fprintf(s.writer, "  [t] target:\n%s\n", indent(Render(c.Target)))
	fmt.Fprintf(s.writer, "Keep [s]ource or [t]arget? (q to quit) [s]: ")

	input, err := reader.ReadString('\n')
	if err != nil && (input == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "reading selection")
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "s", "source":
		return reconcile.ChoiceSource, nil
	case "t", "target":
		return reconcile.ChoiceTarget, nil
	case "q", "quit":
		return "", ErrSelectionCancelled
	default:
		return "", errors.Wrapf(ErrInvalidSelection, "%q (want s or t)", strings.TrimSpace(input))
	}
}

// Render formats a server as indented JSON with secrets masked.
func Render(s mcp.Server) string {
	data, err := redact.Server(s).MarshalJSON()
	if err != nil {
		return s.Name
	}
	return strings.TrimRight(string(pretty.Pretty(data)), "\n")
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
