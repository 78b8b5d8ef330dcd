// Package debug holds the process-wide structured logger. Logging is off
// until Init or Setup enables it.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.DiscardHandler)
	enabled bool
)

// Options configures Setup.
type Options struct {
	// Enabled turns logging on.
	Enabled bool
	// JSON writes JSON lines instead of key=value text.
	JSON bool
	// Writer receives the log output. Nil means os.Stderr.
	Writer io.Writer
	// Level is the minimum level. The zero value is slog.LevelInfo.
	Level slog.Level
}

// Init turns debug logging to stderr on or off.
func Init(enable bool) {
	Setup(Options{Enabled: enable, Level: slog.LevelDebug})
}

// Setup replaces the process-wide logger.
func Setup(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	enabled = opts.Enabled
	if !opts.Enabled {
		logger = slog.New(slog.DiscardHandler)
		return
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		logger = slog.New(slog.NewJSONHandler(w, hopts))
	} else {
		logger = slog.New(slog.NewTextHandler(w, hopts))
	}
}

// Enabled reports whether logging is on.
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

// Debug logs at debug level.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a child logger carrying args.
func With(args ...any) *slog.Logger { return current().With(args...) }

// Logger returns the current logger.
func Logger() *slog.Logger { return current() }
