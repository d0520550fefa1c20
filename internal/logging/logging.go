// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	File  string // Rotating log file; empty logs to stderr
	Debug bool
	Quiet bool // Warnings and errors only; ignored when Debug is set
}

// New returns a JSON logger and a cleanup func that closes the log file.
func New(cfg Config) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Quiet:
		level = slog.LevelWarn
	}

	var out io.Writer = os.Stderr
	cleanup := func() error { return nil }
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = rotator
		cleanup = rotator.Close
	}

	log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Debug,
	}))
	return log, cleanup, nil
}
