// Package logger builds the structured slog logger used across the service.
// All logs are written as JSON, either to stdout (the default, suited to
// container runtimes) or to a size-rotated file when a path is configured.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxFileSizeMB = 50
	maxBackups    = 5
	maxAgeDays    = 14
)

// New creates a JSON slog.Logger. When logFile is empty logs go to stdout;
// otherwise they are appended to logFile, which is rotated by size.
// The returned closer must be called on shutdown to flush the file.
func New(logFile string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if logFile == "" {
		return NewWithWriter(os.Stdout, level), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", filepath.Dir(logFile), err)
	}

	w := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return NewWithWriter(w, level), w, nil
}

// NewWithWriter creates a JSON slog.Logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
