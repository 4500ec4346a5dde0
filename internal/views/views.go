package views

import (
	"errors"
	"fmt"
	"sync"

	"github.com/five82/lookout/internal/logs"
)

// ErrUnknownView indicates a view identifier that is not registered.
var ErrUnknownView = errors.New("views: unknown view")

// Built-in view identifiers.
const (
	TableID  = "lookout.view.table"
	DetailID = "lookout.view.detail"
)

// Descriptor describes a way of presenting a logger's entries.
type Descriptor struct {
	ID   string
	Name string
}

// Manager knows the registered view descriptors and the live viewers.
type Manager struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	viewers     []*Frame
}

// NewManager returns a Manager with the built-in table and detail views.
func NewManager() *Manager {
	m := &Manager{}
	m.Register(Descriptor{ID: TableID, Name: "Table"})
	m.Register(Descriptor{ID: DetailID, Name: "Detail"})
	return m
}

// Register adds d, replacing a descriptor with the same ID.
func (m *Manager) Register(d Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.descriptors {
		if m.descriptors[i].ID == d.ID {
			m.descriptors[i] = d
			return
		}
	}
	m.descriptors = append(m.descriptors, d)
}

// GetRegistered returns the descriptors in registration order.
func (m *Manager) GetRegistered() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, len(m.descriptors))
	copy(out, m.descriptors)
	return out
}

// Lookup returns the descriptor registered under id.
func (m *Manager) Lookup(id string) (Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// AddViewer makes f visible to the application.
func (m *Manager) AddViewer(f *Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.viewers {
		if v == f {
			return
		}
	}
	m.viewers = append(m.viewers, f)
}

// Viewers returns the live frames in the order they were added.
func (m *Manager) Viewers() []*Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Frame, len(m.viewers))
	copy(out, m.viewers)
	return out
}

// Frame is a multiple-view window frame: one logger shown through one or
// more views, one of them current.
type Frame struct {
	manager *Manager

	mu      sync.RWMutex
	log     *logs.Logger
	views   []Descriptor
	current int
}

// NewFrame returns an empty frame resolving view identifiers through m.
func NewFrame(m *Manager) *Frame {
	return &Frame{manager: m}
}

// SetLog binds the frame to l.
func (f *Frame) SetLog(l *logs.Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = l
}

// Log returns the bound logger, or nil.
func (f *Frame) Log() *logs.Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.log
}

// SetViews replaces the frame's views. Nothing changes if any id is unknown.
func (f *Frame) SetViews(ids []string) error {
	resolved := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		d, ok := f.manager.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownView, id)
		}
		resolved = append(resolved, d)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = resolved
	f.current = 0
	return nil
}

// Views returns the frame's views in order.
func (f *Frame) Views() []Descriptor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Descriptor, len(f.views))
	copy(out, f.views)
	return out
}

// ViewIDs returns the identifiers of the frame's views.
func (f *Frame) ViewIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.views))
	for i, d := range f.views {
		out[i] = d.ID
	}
	return out
}

// Current returns the view being shown.
func (f *Frame) Current() (Descriptor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.views) == 0 {
		return Descriptor{}, false
	}
	return f.views[f.current], true
}

// Cycle switches to the next view and returns it.
func (f *Frame) Cycle() (Descriptor, bool) {
	f.mu.Lock()
	if len(f.views) > 0 {
		f.current = (f.current + 1) % len(f.views)
	}
	f.mu.Unlock()
	return f.Current()
}
