package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/natefinch/lumberjack"

	"textscrub/internal/config"
)

// settings mirrors config.LogConfig with validation rules attached.
type settings struct {
	Level      string `validate:"required,oneof=debug info warn warning error"`
	File       string
	MaxSizeMB  int `validate:"omitempty,min=1,max=1000"`
	MaxBackups int `validate:"omitempty,min=0,max=100"`
	MaxAgeDays int `validate:"omitempty,min=0,max=365"`
}

// New builds the process logger: JSON lines on stdout, optionally tee'd to a
// rotating file when cfg.File is set. The returned closer releases the file.
func New(cfg config.LogConfig, loc *time.Location) (*slog.Logger, io.Closer, error) {
	s := settings{
		Level:      strings.ToLower(cfg.Level),
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, nil, fmt.Errorf("invalid log config: %w", err)
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if s.File != "" {
		rot := &lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    s.MaxSizeMB,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stdout, rot)
		closer = rot
	}
	return NewWithWriter(w, s.Level, loc), closer, nil
}

// NewWithWriter returns a JSON logger writing to w. Timestamps are rendered
// under "ts" in loc.
func NewWithWriter(w io.Writer, level string, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(h)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseLevel maps a textual level to slog. Unknown values map to info.
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
