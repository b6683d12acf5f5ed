package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger represents application logger.
type Logger struct {
	*slog.Logger
}

// Options configures a Logger.
type Options struct {
	Level   int
	Format  string // "text" or "json"
	Service string
	Version string
	Output  io.Writer
}

// New creates new Logger instance with the specified level.
func New(level int) *Logger {
	return NewWithOptions(Options{Level: level, Format: "text"})
}

// NewWithOptions creates a Logger writing records in the requested format.
// Records are tagged with service and version, and with trace and span ids
// when the context carries an OpenTelemetry span.
func NewWithOptions(opts Options) *Logger {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.Level(opts.Level)}

	var base slog.Handler
	if opts.Format == "json" {
		base = slog.NewJSONHandler(w, handlerOpts)
	} else {
		base = slog.NewTextHandler(w, handlerOpts)
	}

	return &Logger{
		Logger: slog.New(&traceHandler{
			handler: base,
			service: opts.Service,
			version: opts.Version,
		}),
	}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
