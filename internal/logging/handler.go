package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/thoreinstein/mcpsync/internal/redact"
)

// Handler is a slog.Handler producing one line per record:
//
//	3:04PM INFO  wrote config tool=opencode servers=4
//
// Levels and keys are colored when the writer is a color-capable terminal.
// Attribute values whose key or content looks like a secret are masked.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string

	colored bool
	palette map[slog.Level]*color.Color
	dim     *color.Color
	keys    *color.Color
}

// NewHandler creates a text handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	h := &Handler{opts: *opts, out: out, mu: &sync.Mutex{}}
	if SupportsColor(out) {
		h.colored = true
		h.dim = color.New(color.FgHiBlack)
		h.keys = color.New(color.FgCyan)
		h.palette = map[slog.Level]*color.Color{
			LevelTrace:      color.New(color.FgHiBlack),
			slog.LevelDebug: color.New(color.FgMagenta),
			slog.LevelInfo:  color.New(color.FgGreen),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		}
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle writes the record as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	if !r.Time.IsZero() {
		b.WriteString(h.paint(h.dim, r.Time.Format(time.Kitchen)))
		b.WriteByte(' ')
	}

	level := levelName(r.Level)
	fmt.Fprintf(&b, "%s%s ", h.paint(h.palette[bucket(r.Level)], level), strings.Repeat(" ", max(0, 5-len(level))))
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(b, groupPrefix, ga)
		}
		return
	}

	value := fmt.Sprint(a.Value.Any())
	switch {
	case redact.SensitiveKey(a.Key), redact.LooksLikeToken(value):
		value = redact.Value(value)
	case a.Key == "url":
		value = redact.URL(value)
	}
	fmt.Fprintf(b, " %s=%s", h.paint(h.keys, prefix+a.Key), value)
}

func (h *Handler) paint(c *color.Color, s string) string {
	if !h.colored || c == nil {
		return s
	}
	return c.Sprint(s)
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup returns a new Handler that prefixes subsequent keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func bucket(level slog.Level) slog.Level {
	switch {
	case level >= slog.LevelError:
		return slog.LevelError
	case level >= slog.LevelWarn:
		return slog.LevelWarn
	case level >= slog.LevelInfo:
		return slog.LevelInfo
	case level >= slog.LevelDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

func levelName(level slog.Level) string {
	if level < slog.LevelDebug {
		return "TRACE"
	}
	return level.String()
}
