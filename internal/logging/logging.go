package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// Format specifies the output format for log messages.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// LevelTrace is more verbose than Debug. It is used for per-file I/O detail.
const LevelTrace = slog.LevelDebug - 4

// Config holds the configuration for creating a new logger.
type Config struct {
	// Level sets the minimum log level.
	Level slog.Level
	// Format specifies the output format (text or JSON).
	Format Format
	// Output is where log messages are written. Defaults to os.Stderr if nil.
	Output io.Writer
}

// ParseFormat converts a flag value into a Format. Unknown values map to
// FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// New creates a logger with the given configuration.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	return slog.New(NewFormatHandler(output, cfg.Format, &slog.HandlerOptions{Level: cfg.Level}))
}

// NewFormatHandler returns the handler for the given format.
func NewFormatHandler(w io.Writer, format Format, opts *slog.HandlerOptions) slog.Handler {
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return NewHandler(w, opts)
}

// Default returns a logger at Warn level in text format on stderr, matching
// a CLI run without -v.
func Default() *slog.Logger {
	return New(Config{Level: slog.LevelWarn, Format: FormatText, Output: os.Stderr})
}

// NewDiscard creates a logger that discards all output.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LevelFromVerbosity maps the count of -v flags to a level: none is Warn,
// -v is Info, -vv is Debug and anything above is Trace.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// testWriter adapts testing.T to io.Writer for use with slog handlers.
type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ForTest creates a Trace-level logger that writes to the test's log output.
func ForTest(t *testing.T) *slog.Logger {
	t.Helper()
	return New(Config{Level: LevelTrace, Format: FormatText, Output: &testWriter{t: t}})
}
