// Package notify delivers transient, non-blocking user notices (toasts).
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single user-visible message.
type Notice struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier surfaces notices to the user without interrupting rendering.
type Notifier interface {
	Notify(level Level, message string)
}

// Info sends an info notice.
func Info(n Notifier, message string) { n.Notify(LevelInfo, message) }

// Success sends a success notice.
func Success(n Notifier, message string) { n.Notify(LevelSuccess, message) }

// Warn sends a warning notice.
func Warn(n Notifier, message string) { n.Notify(LevelWarn, message) }

// Error sends an error notice.
func Error(n Notifier, message string) { n.Notify(LevelError, message) }

// Logger writes notices to a slog.Logger.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a Notifier backed by logger.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{log: logger}
}

// Notify logs the notice at the matching slog level.
func (l *Logger) Notify(level Level, message string) {
	switch level {
	case LevelWarn:
		l.log.Warn(message, "notice", true)
	case LevelError:
		l.log.Error(message, "notice", true)
	default:
		l.log.Info(message, "notice", true, "kind", string(level))
	}
}

// Recorder keeps every notice in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records the notice.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: message, At: time.Now()})
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Count returns how many notices of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Level == level {
			n++
		}
	}
	return n
}

// Discard drops every notice.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(Level, string) {}
