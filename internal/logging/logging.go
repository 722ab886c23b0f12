// Package logging builds the structured logger shared by every component.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	Level      zerolog.Level
	File       string // rotated log file; empty disables file output
	MaxSizeMB  int
	MaxBackups int
	Console    io.Writer // human-readable output, e.g. os.Stderr in headless mode
}

// New returns a logger writing to the rotated file and, optionally, the
// console. With neither configured it discards everything, since the
// terminal UI owns stdout. The returned closer flushes the log file.
func New(opts Options) (zerolog.Logger, io.Closer) {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     28,
			Compress:   true,
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: "15:04:05",
		})
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		return zerolog.Nop(), closer
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(out).
		With().
		Timestamp().
		Str("service", "ghnotify").
		Logger().
		Level(opts.Level)

	return logger, closer
}

// ParseLevel maps a config string to a level, falling back to info.
func ParseLevel(value string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}

// DefaultFile returns ~/.local/state/ghnotify/ghnotify.log.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ghnotify.log")
	}
	return filepath.Join(home, ".local", "state", "ghnotify", "ghnotify.log")
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
