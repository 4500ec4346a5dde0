package logs

import (
	"github.com/five82/lookout/internal/state"
)

// Writer receives every entry a logger accepts, e.g. a persistent archive.
type Writer interface {
	Write(logger string, entries ...Entry) error
	Close() error
}

// DiscardWriter drops everything.
type DiscardWriter struct{}

func (DiscardWriter) Write(string, ...Entry) error { return nil }
func (DiscardWriter) Close() error                 { return nil }

// Logger is a named, bounded collection of entries fed by providers.
type Logger struct {
	name   string
	store  *state.Store[Entry]
	writer Writer
}

func newLogger(name string, capacity int, w Writer) *Logger {
	if w == nil {
		w = DiscardWriter{}
	}
	return &Logger{
		name:   name,
		store:  state.NewStore[Entry](capacity),
		writer: w,
	}
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Add records entries. It is safe to call from provider goroutines. Writer
// failures do not drop entries from the in-memory view.
func (l *Logger) Add(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	l.store.Append(entries...)
	return l.writer.Write(l.name, entries...)
}

// Clear drops retained entries.
func (l *Logger) Clear() { l.store.Reset() }

// Snapshot returns the retained entries, oldest first.
func (l *Logger) Snapshot() state.Snapshot[Entry] { return l.store.Snapshot() }
