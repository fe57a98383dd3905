// Package logging builds the process logger. Records fan out to a console
// handler on stderr, colourised when stderr is a terminal, and to a
// plain-text handler appending to the log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const (
	logFilePermissions = 0o644
	logDirPermissions  = 0o755
	consoleTimeFormat  = "2006-01-02 15:04:05"
)

// Options configures New.
type Options struct {
	// Level applies to both handlers.
	Level slog.Level
	// Quiet raises only the console handler to error. The file keeps Level.
	Quiet bool
	// Console defaults to os.Stderr.
	Console io.Writer
	// FilePath is appended to, parents created. Empty disables the file
	// handler.
	FilePath string
}

// ParseLevel maps a config log_level string to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds the logger. The returned close function flushes nothing (both
// handlers write synchronously) but releases the log file and must be called
// on exit.
func New(opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleLevel := opts.Level
	if opts.Quiet {
		consoleLevel = max(consoleLevel, slog.LevelError)
	}

	handlers := []slog.Handler{
		tint.NewHandler(console, &tint.Options{
			Level:      consoleLevel,
			TimeFormat: consoleTimeFormat,
			NoColor:    !isTerminal(console),
		}),
	}

	closeFn := func() error { return nil }

	if opts.FilePath != "" {
		f, err := openLogFile(opts.FilePath)
		if err != nil {
			return nil, nil, err
		}

		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level}))
		closeFn = f.Close
	}

	return slog.New(NewMultiHandler(handlers...)), closeFn, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return f, nil
}

// isTerminal reports whether w is a terminal. Anything that is not an
// *os.File (a buffer in tests, a pipe wrapper) is treated as not one.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
