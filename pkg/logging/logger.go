package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a structured, leveled logger shared by every component.
type Logger struct {
	*slog.Logger
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// New builds a JSON logger writing to stdout at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func New(level string) *Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter is New with an explicit destination, used by tests.
func NewWithWriter(w io.Writer, level string) *Logger {
	if w == nil {
		w = io.Discard
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a process-wide info logger.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("info")
	})
	return defaultLogger
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Default().With(args...)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel maps a textual level onto slog.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
