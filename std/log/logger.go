package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime"
)

// Level is a logging severity. Values line up with log/slog levels so
// the two convert directly.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func ParseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if name == s {
			return level, nil
		}
	}
	return LevelInfo, errors.New("invalid log level")
}

func (level Level) String() string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "UNKNOWN"
}

// Tag identifies the module a log message originates from.
type Tag interface {
	String() string
}

// Logger is a leveled, tagged logger on top of log/slog.
type Logger struct {
	slog  *slog.Logger
	level Level
}

// NewText creates a logger writing human-readable lines to w.
func NewText(w io.Writer) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.Level(LevelTrace),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Value = slog.StringValue(Level(a.Value.Any().(slog.Level)).String())
			}
			return a
		},
	})
	return &Logger{slog: slog.New(handler), level: LevelInfo}
}

// SetLevel sets the logging level and returns the previous level.
func (l *Logger) SetLevel(level Level) (prev Level) {
	prev = l.level
	l.level = level
	return
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) log(t any, msg string, level Level, v ...any) {
	if l.level > level {
		return
	}

	// Attach the calling function when debugging.
	if l.level <= LevelDebug {
		if pc, _, _, ok := runtime.Caller(2); ok {
			if f := runtime.FuncForPC(pc); f != nil {
				v = append(v, slog.SourceKey, f.Name())
			}
		}
	}

	if t != nil {
		if tag, ok := t.(Tag); ok {
			v = append([]any{"tag", tag.String()}, v...)
		} else {
			v = append([]any{"tag", t}, v...)
		}
	}

	l.slog.Log(context.Background(), slog.Level(level), msg, v...)
}

// Trace level message.
func (l *Logger) Trace(t any, msg string, v ...any) {
	l.log(t, msg, LevelTrace, v...)
}

// Debug level message.
func (l *Logger) Debug(t any, msg string, v ...any) {
	l.log(t, msg, LevelDebug, v...)
}

// Info level message.
func (l *Logger) Info(t any, msg string, v ...any) {
	l.log(t, msg, LevelInfo, v...)
}

// Warn level message.
func (l *Logger) Warn(t any, msg string, v ...any) {
	l.log(t, msg, LevelWarn, v...)
}

// Error level message.
func (l *Logger) Error(t any, msg string, v ...any) {
	l.log(t, msg, LevelError, v...)
}

// Fatal level message, followed by an exit.
func (l *Logger) Fatal(t any, msg string, v ...any) {
	l.log(t, msg, LevelFatal, v...)
	os.Exit(1)
}
