package logs

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrDuplicateName indicates a logger with the same name already exists.
	ErrDuplicateName = errors.New("logs: duplicate logger name")
	// ErrEmptyName indicates a blank logger name.
	ErrEmptyName = errors.New("logs: logger name is empty")
)

// Manager owns the named loggers of a session.
type Manager struct {
	mu       sync.RWMutex
	loggers  []*Logger
	capacity int
	writer   Writer
}

// NewManager creates a Manager whose loggers retain capacity entries each and
// write through to w (nil discards).
func NewManager(capacity int, w Writer) *Manager {
	return &Manager{capacity: capacity, writer: w}
}

// NormalizeName trims and NFC-normalizes a logger name so visually identical
// names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Add creates a logger named name.
func (m *Manager) Add(name string) (*Logger, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.loggers {
		if l.name == name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	l := newLogger(name, m.capacity, m.writer)
	m.loggers = append(m.loggers, l)
	return l, nil
}

// Get returns the logger named name.
func (m *Manager) Get(name string) (*Logger, bool) {
	name = NormalizeName(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.loggers {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Any reports whether some logger satisfies pred.
func (m *Manager) Any(pred func(*Logger) bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.loggers {
		if pred(l) {
			return true
		}
	}
	return false
}

// Loggers returns the loggers in creation order.
func (m *Manager) Loggers() []*Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Logger, len(m.loggers))
	copy(out, m.loggers)
	return out
}

// ValidateName is the pre-flight check a setup source runs before asking for
// a logger: the name must be non-blank and unused.
func (m *Manager) ValidateName(name string) error {
	normalized := NormalizeName(name)
	if normalized == "" {
		return ErrEmptyName
	}
	if m.Any(func(l *Logger) bool { return l.name == normalized }) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, normalized)
	}
	return nil
}
