// Package logger is the process-wide leveled logger.
//
// The printf-style helpers (Debug, Info, Warn, Error) are what most of the
// code base uses. They write through a zerolog logger so that the output can
// be switched between a human readable console format and JSON lines without
// touching call sites.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config controls where and how log lines are written.
type Config struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case insensitive).
	Level string

	// Format is "text" or "json".
	Format string

	// Output is "stdout", "stderr" or a file path.
	Output string
}

var (
	mu           sync.RWMutex
	currentLevel = LevelInfo
	base         = newZerolog(consoleWriter(os.Stdout))
	closer       io.Closer
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel converts a level name. Unknown names map to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = ParseLevel(level)
	base = base.Level(currentLevel.zerolog())
}

// GetLevel returns the active level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Configure replaces the output sink and format. It is meant to be called
// once at startup, before any goroutine starts logging.
func Configure(cfg Config) error {
	w, c, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	if !strings.EqualFold(cfg.Format, "json") {
		w = consoleWriter(w)
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		_ = closer.Close()
	}
	closer = c
	currentLevel = ParseLevel(cfg.Level)
	base = newZerolog(w).Level(currentLevel.zerolog())
	return nil
}

// SetOutput redirects log output to w in JSON form. Tests use it to
// capture log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newZerolog(w).Level(currentLevel.zerolog())
}

// With returns a child logger carrying the given fields.
func With(fields map[string]any) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Fields(fields).Logger()
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %q: %w", output, err)
		}
		return f, f, nil
	}
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
		FormatLevel: func(i any) string {
			return fmt.Sprintf("[%s]", strings.ToUpper(fmt.Sprint(i)))
		},
	}
}

func newZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	if level < currentLevel {
		mu.RUnlock()
		return
	}
	l := base
	mu.RUnlock()

	l.WithLevel(level.zerolog()).Msg(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
