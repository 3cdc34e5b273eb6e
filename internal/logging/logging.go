// Package logging provides a minimal leveled wrapper over the standard
// library's log.Logger, scoped per component, matching the plain
// log/fmt style the rest of this codebase's lineage uses rather than
// pulling in a structured-logging dependency.
package logging

import (
	"log"
	"os"
)

// Level is a logging verbosity tier.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
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

// Logger is a component-scoped leveled logger.
type Logger struct {
	component string
	min       Level
	out       *log.Logger
}

// New returns a Logger for component, writing to stderr, filtering out
// anything below min.
func New(component string, min Level) *Logger {
	return &Logger{
		component: component,
		min:       min,
		out:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	l.out.Printf("[%s] %s: "+format, append([]interface{}{level, l.component}, args...)...)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }
