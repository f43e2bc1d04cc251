// Package debug holds the process-wide slog logger used by the CLI and
// handed to data access clients.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger  *slog.Logger
	enabled bool
	output  io.Writer = os.Stderr
	mu      sync.RWMutex
)

func init() {
	Init(false)
}

// Init replaces the logger. When enable is false only errors are written.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	level := slog.LevelError
	if enable {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}

// SetOutput redirects the logger and re-initializes it
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	enable := enabled
	mu.Unlock()
	Init(enable)
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs an info message
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs a warning message
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs an error message
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger { return current().With(args...) }

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger { return current() }
