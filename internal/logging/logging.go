// Package logging builds the application's zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const consoleTimeFormat = "15:04:05"

// Options controls where log lines go.
type Options struct {
	// Level is one of trace, debug, info, warn, error.
	Level string
	// File is the log file path. Empty disables file logging.
	File string
	// Console mirrors log lines to Console (stderr when nil).
	Console bool
	// ConsoleOut overrides the console destination.
	ConsoleOut io.Writer
}

// Logger is a root logger plus the resources it owns.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// New builds a logger from opts. With neither a file nor the console
// enabled, it discards everything.
func New(opts Options) *Logger {
	lvl := ParseLevel(opts.Level, zerolog.InfoLevel)

	writers := make([]io.Writer, 0, 2)
	var rotator *lumberjack.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		writers = append(writers, rotator)
	}
	if opts.Console {
		out := opts.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat})
	}

	if len(writers) == 0 {
		return &Logger{Logger: zerolog.Nop()}
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	return &Logger{Logger: zl, rotator: rotator}
}

// Component returns a child logger tagged with name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// ParseLevel maps a level name to a zerolog level, falling back to def.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
