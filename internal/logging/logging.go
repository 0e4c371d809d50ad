// Package logging provides the level-gated wrapper around the standard
// log package that every ambient logging seam (browser.Logger,
// mcpserver.Logger) is satisfied by. Matching the teacher, there is no
// structured/leveled logging framework anywhere in the retrieval pack,
// so this stays a thin filter in front of *log.Logger rather than
// introducing one.
package logging

import (
	"log"
	"strings"
)

// Level orders the four severities REASONKIT_LOG / Logging.Level select
// between. Lower is more verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug"/"info"/"warn"/"error" (case-insensitive) to a
// Level, defaulting to LevelInfo for anything else, including empty.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger filters Printf/Debugf/Warnf/Errorf calls against a configured
// threshold before forwarding to the wrapped *log.Logger. Printf is the
// info-level call, matching every existing unleveled call site in the
// tree; Debugf/Warnf/Errorf exist for call sites that want to be more or
// less chatty than that without changing the Logger interface callers
// already depend on (both browser.Logger and mcpserver.Logger are
// satisfied by Printf alone).
type Logger struct {
	level  Level
	target *log.Logger
}

// New constructs a Logger gating at level. A nil target uses log.Default().
func New(level Level, target *log.Logger) *Logger {
	if target == nil {
		target = log.Default()
	}
	return &Logger{level: level, target: target}
}

func (l *Logger) Printf(format string, args ...interface{}) { l.logAt(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logAt(LevelDebug, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logAt(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logAt(LevelError, format, args...) }

func (l *Logger) logAt(at Level, format string, args ...interface{}) {
	if at < l.level {
		return
	}
	l.target.Printf(format, args...)
}
