// Package diag records the human-readable trace of one scrape request.
//
// A Log is owned by a single request (or a single quality within it) and is
// never shared, so it carries no lock. Concurrent stages each write to their
// own Log and the owner merges them with Append once they finish.
package diag

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity classifies a trace line.
type Severity int

const (
	Step Severity = iota
	OK
	Warn
	Fail
)

// Glyph returns the marker printed in front of a line.
func (s Severity) Glyph() string {
	switch s {
	case OK:
		return "✅"
	case Warn:
		return "⚠️"
	case Fail:
		return "❌"
	default:
		return "➡️"
	}
}

// Entry is a single trace line.
type Entry struct {
	Severity Severity
	Message  string
}

func (e Entry) String() string {
	return e.Severity.Glyph() + " " + e.Message
}

// Log is an append-only, ordered list of entries.
type Log struct {
	entries []Entry
	attrs   []any
}

// New creates an empty Log. attrs are attached to the slog mirror of every entry.
func New(attrs ...any) *Log {
	return &Log{attrs: attrs}
}

// Stepf records that a step is starting.
func (l *Log) Stepf(format string, args ...any) { l.add(Step, format, args...) }

// OKf records a successful step.
func (l *Log) OKf(format string, args ...any) { l.add(OK, format, args...) }

// Warnf records a degraded but non-fatal outcome.
func (l *Log) Warnf(format string, args ...any) { l.add(Warn, format, args...) }

// Failf records a failed step.
func (l *Log) Failf(format string, args ...any) { l.add(Fail, format, args...) }

func (l *Log) add(sev Severity, format string, args ...any) {
	if l == nil {
		return
	}
	e := Entry{Severity: sev, Message: fmt.Sprintf(format, args...)}
	l.entries = append(l.entries, e)

	level := slog.LevelDebug
	if sev == Fail {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, e.Message, l.attrs...)
}

// Append copies other's entries onto the end of l.
func (l *Log) Append(other *Log) {
	if l == nil || other == nil {
		return
	}
	l.entries = append(l.entries, other.entries...)
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Strings renders every entry as "<glyph> <message>".
func (l *Log) Strings() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
