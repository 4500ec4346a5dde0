package providers

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/five82/lookout/internal/logs"
)

// ErrUnknownProvider indicates a Create for an unregistered identifier.
var ErrUnknownProvider = errors.New("providers: unknown provider")

// Provider is a live data source feeding a logger.
type Provider interface {
	ID() string
	Info() Info
	Settings() Settings
	SetLogger(l *logs.Logger)
	Start() error
	Close() error
	IsActive() bool
}

// Builder constructs a provider for settings. id is the instance identifier.
type Builder func(id string, settings Settings, logger *log.Logger) (Provider, error)

type registration struct {
	info    Info
	builder Builder
}

// Manager creates providers and tracks the running instances.
type Manager struct {
	mu        sync.Mutex
	builders  []registration
	instances []Provider
	log       *log.Logger
}

// NewManager returns a Manager with the network and UDP appender providers
// registered. A nil logger discards diagnostics.
func NewManager(logger *log.Logger) *Manager {
	m := NewEmptyManager(logger)
	m.Register(NetworkInfo, newNetworkProvider)
	m.Register(UDPAppenderInfo, newUDPAppenderProvider)
	return m
}

// NewEmptyManager returns a Manager with no providers registered.
func NewEmptyManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{log: logger}
}

// Register adds or replaces the builder for info.Identifier.
func (m *Manager) Register(info Info, b Builder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.builders {
		if r.info.Identifier == info.Identifier {
			m.builders[i] = registration{info: info, builder: b}
			return
		}
	}
	m.builders = append(m.builders, registration{info: info, builder: b})
}

// Registered lists the available providers in registration order.
func (m *Manager) Registered() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.builders))
	for _, r := range m.builders {
		out = append(out, r.info)
	}
	return out
}

// Create builds a provider instance and tracks it. The provider is not started.
func (m *Manager) Create(identifier string, s Settings) (Provider, error) {
	if s == nil {
		return nil, fmt.Errorf("create %s: settings are nil", identifier)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("create %s: %w", identifier, err)
	}

	m.mu.Lock()
	var builder Builder
	for _, r := range m.builders {
		if r.info.Identifier == identifier {
			builder = r.builder
			break
		}
	}
	m.mu.Unlock()
	if builder == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, identifier)
	}

	id := uuid.Must(uuid.NewV7()).String()
	p, err := builder(id, s, m.log.With("provider", s.InstanceName(), "id", id))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", identifier, err)
	}

	m.mu.Lock()
	m.instances = append(m.instances, p)
	m.mu.Unlock()
	m.log.Debug("provider created", "identifier", identifier, "name", s.InstanceName(), "address", s.Address())
	return p, nil
}

// Instances returns the tracked providers in creation order.
func (m *Manager) Instances() []Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Provider, len(m.instances))
	copy(out, m.instances)
	return out
}

// Remove stops tracking p. It reports whether p was tracked.
func (m *Manager) Remove(p Provider) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.instances {
		if q == p {
			m.instances = append(m.instances[:i], m.instances[i+1:]...)
			return true
		}
	}
	return false
}

// CloseAll closes every tracked provider and joins the errors.
func (m *Manager) CloseAll() error {
	var errs []error
	for _, p := range m.Instances() {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.Settings().InstanceName(), err))
		}
	}
	return errors.Join(errs...)
}
