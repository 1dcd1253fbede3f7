// Package telemetry wraps the stdlib log package into the small set
// of severities PX4's PX4_INFO/PX4_WARN/PX4_ERR macros distinguish. No
// third-party logging library appears anywhere in the retrieved
// pack (the teacher itself logs with stdlib log in server/udp.go and
// web/server.go), so this stays on stdlib log rather than reaching
// for an ecosystem logger the corpus never demonstrates.
package telemetry

import (
	"log"
	"os"
)

// Level orders the severities this module logs at.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Logger is a minimal leveled wrapper over *log.Logger.
type Logger struct {
	std *log.Logger
	min Level
}

// New builds a Logger writing to stderr with the given prefix.
func New(prefix string) *Logger {
	return &Logger{std: log.New(os.Stderr, prefix+" ", log.LstdFlags|log.Lmicroseconds)}
}

// SetMinLevel suppresses messages below the given severity.
func (l *Logger) SetMinLevel(lvl Level) { l.min = lvl }

func (l *Logger) log(lvl Level, format string, args ...any) {
	if lvl < l.min {
		return
	}
	l.std.Printf("["+lvl.String()+"] "+format, args...)
}

func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }
