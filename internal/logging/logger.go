// Package logging provides the structured logger of the sociogrid app and
// CLI. It wraps log/slog with a JSON handler writing either to stderr or
// to a file in a log directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// FileName is the log file created inside the log directory.
const FileName = "sociogrid.log"

// Logger is safe for concurrent use. Child loggers share the parent's file.
type Logger struct {
	logger *slog.Logger
	out    *sink
}

type sink struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger creates a Logger writing JSON lines to {dir}/sociogrid.log, or
// to stderr when dir is empty. Unknown levels fall back to INFO.
func NewLogger(dir string, level string) (*Logger, error) {
	var writer io.Writer = os.Stderr
	var file *os.File

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		file, err = os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
	}

	return New(writer, level, file), nil
}

// New creates a Logger over any writer. closer, when not nil, is closed by
// Close.
func New(w io.Writer, level string, closer *os.File) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{logger: slog.New(handler), out: &sink{file: closer}}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger that adds the key-value pairs to every entry.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With(args...), out: l.out}
}

// WithComponent tags entries with the part of the app that wrote them.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// Slog returns the underlying slog logger, for packages that take one.
func (l *Logger) Slog() *slog.Logger { return l.logger }

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Close flushes and closes the log file. It is a no-op for stderr loggers.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file != nil {
		if err := l.out.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
		if err := l.out.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.out.file = nil
	}
	return nil
}

// NopLogger returns a Logger that discards all output.
func NopLogger() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler), out: &sink{}}
}

// ValidLevels returns the accepted level names.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// IsValidLevel reports whether level names a known level, ignoring case.
func IsValidLevel(level string) bool {
	for _, v := range ValidLevels() {
		if strings.EqualFold(v, level) {
			return true
		}
	}
	return false
}
