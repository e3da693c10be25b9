// Package diff renders line diffs between two versions of a config file.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of a line diff, without its newline.
type Line struct {
	Op   Op
	Text string
}

// Lines computes a line-level diff of before and after. Each distinct line
// is mapped to one rune so the character diff runs on whole lines.
func Lines(before, after string) []Line {
	var table lineTable
	a, b := table.encode(before), table.encode(after)

	var out []Line
	for _, df := range dmp.New().DiffMainRunes(a, b, false) {
		op := Equal
		switch df.Type {
		case dmp.DiffInsert:
			op = Insert
		case dmp.DiffDelete:
			op = Delete
		}
		for _, r := range df.Text {
			out = append(out, Line{Op: op, Text: table.line(r)})
		}
	}
	return out
}

// lineTable assigns runes to distinct lines. Surrogate code points are
// skipped so every rune survives a round trip through a string.
type lineTable struct {
	index map[string]rune
	lines []string
}

const (
	surrogateMin = 0xD800
	surrogateLen = 0x800
)

func (t *lineTable) encode(s string) []rune {
	if t.index == nil {
		t.index = make(map[string]rune)
	}
	lines := splitLines(s)
	out := make([]rune, len(lines))
	for i, l := range lines {
		r, ok := t.index[l]
		if !ok {
			r = rune(len(t.lines))
			if r >= surrogateMin {
				r += surrogateLen
			}
			t.index[l] = r
			t.lines = append(t.lines, l)
		}
		out[i] = r
	}
	return out
}

func (t *lineTable) line(r rune) string {
	if r >= surrogateMin+surrogateLen {
		r -= surrogateLen
	}
	return t.lines[r]
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Changed reports whether any line differs.
func Changed(lines []Line) bool {
	for _, l := range lines {
		if l.Op != Equal {
			return true
		}
	}
	return false
}

// Hunk is a run of changes with surrounding context. Start positions are
// 1-based, as in unified diff headers.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []Line
}

// Hunks groups lines into unified-diff hunks with context lines of
// unchanged text around each change.
func Hunks(lines []Line, context int) []Hunk {
	var hunks []Hunk
	n := len(lines)
	i := 0
	oldLine, newLine := 1, 1
	// positions[k] holds the old/new line numbers before lines[k].
	type pos struct{ old, new int }
	positions := make([]pos, n+1)
	for k, l := range lines {
		positions[k] = pos{oldLine, newLine}
		if l.Op != Insert {
			oldLine++
		}
		if l.Op != Delete {
			newLine++
		}
	}
	positions[n] = pos{oldLine, newLine}

	for i < n {
		if lines[i].Op == Equal {
			i++
			continue
		}
		start := max(i-context, 0)
		end := i
		// Extend while the next change is within 2*context equal lines.
		for end < n {
			if lines[end].Op != Equal {
				end++
				continue
			}
			run := end
			for run < n && lines[run].Op == Equal {
				run++
			}
			if run == n || run-end > 2*context {
				end = min(end+context, n)
				break
			}
			end = run
		}

		h := Hunk{
			OldStart: positions[start].old,
			NewStart: positions[start].new,
			Lines:    lines[start:end],
		}
		for _, l := range h.Lines {
			if l.Op != Insert {
				h.OldLines++
			}
			if l.Op != Delete {
				h.NewLines++
			}
		}
		hunks = append(hunks, h)
		i = end
	}
	return hunks
}

// Printer writes unified diffs, styled when the writer supports color.
type Printer struct {
	w       io.Writer
	context int
	header  lipgloss.Style
	hunk    lipgloss.Style
	add     lipgloss.Style
	del     lipgloss.Style
	faint   lipgloss.Style
}

// NewPrinter returns a printer for w. Colors follow the terminal profile
// lipgloss detects for w, so plain writers get plain text.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return &Printer{
		w:       w,
		context: 3,
		header:  base.Bold(true),
		hunk:    base.Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"}),
		add:     base.Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"}),
		del:     base.Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}),
		faint:   base.Faint(true),
	}
}

// Unified writes the diff of before and after labelled with name. Identical
// input prints "No changes".
func (p *Printer) Unified(name, before, after string) error {
	lines := Lines(before, after)
	if !Changed(lines) {
		_, err := fmt.Fprintln(p.w, "No changes")
		return err
	}

	var b strings.Builder
	b.WriteString(p.header.Render("--- a/"+name) + "\n")
	b.WriteString(p.header.Render("+++ b/"+name) + "\n")
	for _, h := range Hunks(lines, p.context) {
		b.WriteString(p.hunk.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)) + "\n")
		for _, l := range h.Lines {
			switch l.Op {
			case Insert:
				b.WriteString(p.add.Render("+"+l.Text) + "\n")
			case Delete:
				b.WriteString(p.del.Render("-"+l.Text) + "\n")
			default:
				b.WriteString(p.faint.Render(" "+l.Text) + "\n")
			}
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}
