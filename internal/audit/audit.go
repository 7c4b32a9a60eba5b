// Package audit holds the ordered, append-only record of cleaning decisions.
package audit

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Log is an append-only sequence of human-readable entries. Entries are never
// reordered, rewritten or deduplicated. A Log belongs to exactly one pipeline session
// and is not safe for concurrent use.
type Log struct {
	entries []string
	logger  logrus.FieldLogger
	onAdd   func()
}

// New returns an empty log. Entries are mirrored to logger when it is non-nil.
func New(logger logrus.FieldLogger) *Log {
	return &Log{logger: logger}
}

// OnAppend registers a hook invoked after every append (used for metrics).
func (l *Log) OnAppend(fn func()) { l.onAdd = fn }

// Add appends one entry.
func (l *Log) Add(entry string) {
	if l == nil {
		return
	}
	l.entries = append(l.entries, entry)
	if l.logger != nil {
		l.logger.WithField("seq", len(l.entries)-1).Info(entry)
	}
	if l.onAdd != nil {
		l.onAdd()
	}
}

// Addf appends a formatted entry.
func (l *Log) Addf(format string, args ...interface{}) {
	l.Add(fmt.Sprintf(format, args...))
}

// Warnf appends a formatted entry and mirrors it at warn level. Used for capability
// fallbacks, which analysts need to notice.
func (l *Log) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.entries = append(l.entries, msg)
	if l.logger != nil {
		l.logger.WithField("seq", len(l.entries)-1).Warn(msg)
	}
	if l.onAdd != nil {
		l.onAdd()
	}
}

// Entries returns a copy of the entries in append order.
func (l *Log) Entries() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
