// Package common holds helpers shared by every booth component.
package common

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lugondev/exchange-booth/internal/config"
)

// NewLogger builds a slog logger writing to stderr in the configured format and level.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// LoggerMixin provides common logging functionality.
type LoggerMixin struct {
	Logger *slog.Logger
}

// NewLoggerMixin creates a new logger mixin with default logger.
func NewLoggerMixin() LoggerMixin {
	return LoggerMixin{
		Logger: slog.Default(),
	}
}

// SetLogger sets a custom logger.
func (l *LoggerMixin) SetLogger(logger *slog.Logger) {
	if logger != nil {
		l.Logger = logger
	}
}

// GetLogger returns the logger.
func (l *LoggerMixin) GetLogger() *slog.Logger {
	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	return l.Logger
}
