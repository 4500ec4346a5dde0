package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/codec"
	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/views"
)

// DefaultName is the name of a session nobody has named yet.
const DefaultName = "Untitled"

// Options configures a Manager. The zero value works.
type Options struct {
	// Logger receives diagnostics. Nil discards them.
	Logger *log.Logger
	// BufferSize is the number of entries each logger retains in memory.
	BufferSize int
	// Preferences seeds the UserPreferences of every new session.
	Preferences services.UserPreferences
	// NewLogWriter opens the log writer of a session. Nil discards entries.
	NewLogWriter func() (logs.Writer, error)
	// NewProviderManager builds the provider manager of a session. Nil
	// registers the network and UDP appender providers.
	NewProviderManager func(*log.Logger) *providers.Manager
	// ProviderWizard is bound as the session's provider wizard.
	ProviderWizard setup.ProviderSource
	// OnChange is called after a watched service changed the session.
	OnChange func()
}

// Manager drives the lifecycle of the running session.
type Manager struct {
	opts Options
	log  *log.Logger

	name     string
	path     string
	saved    bool
	dirty    bool
	fresh    bool
	closed   bool
	registry *registry.Registry
	tracker  tracker
	logger   *logs.Logger

	// counters observed by tests
	cleanups int
	resets   int
}

// NewManager returns a Fresh manager holding default bindings.
func NewManager(opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.NewProviderManager == nil {
		opts.NewProviderManager = defaultProviderManager
	}
	if opts.Preferences == (services.UserPreferences{}) {
		opts.Preferences = *services.NewUserPreferences("")
	}

	m := &Manager{opts: opts, log: opts.Logger}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the session name.
func (m *Manager) Name() string { return m.name }

// Path returns the file the session was last loaded from or saved to.
func (m *Manager) Path() string { return m.path }

// IsSaved reports whether the session matches its file.
func (m *Manager) IsSaved() bool { return m.saved }

// IsDirty reports whether a watched service changed since the last Save or
// Load.
func (m *Manager) IsDirty() bool { return m.dirty }

// IsFresh reports whether the registry holds untouched defaults.
func (m *Manager) IsFresh() bool { return m.fresh }

// Registry returns the current registry. It is replaced by New and Load.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Logger returns the session logger, or nil while Fresh.
func (m *Manager) Logger() *logs.Logger { return m.logger }

// ProviderSettings returns the settings of every provider of the session.
func (m *Manager) ProviderSettings() []providers.Settings {
	pm, err := registry.Resolve[*providers.Manager](m.registry, services.ProviderManagerCap)
	if err != nil {
		return nil
	}
	instances := pm.Instances()
	out := make([]providers.Settings, 0, len(instances))
	for _, p := range instances {
		out = append(out, p.Settings())
	}
	return out
}

// New starts a session from the settings src supplies. A non-Fresh session is
// cleaned up and reset first. When src is cancelled New returns nil and the
// manager stays Fresh.
func (m *Manager) New(src setup.SessionSource) error {
	if m.closed {
		return ErrClosed
	}
	if !m.fresh {
		m.cleanup()
		if err := m.reset(); err != nil {
			return err
		}
	}

	settings, ok, err := src.SessionSettings()
	if err != nil {
		return fmt.Errorf("session settings: %w", err)
	}
	if !ok {
		m.log.Debug("new session cancelled")
		return nil
	}

	logger, err := configure(m.registry, settings.LogName, settings.ViewIDs, settings.Providers)
	if err != nil {
		m.abandon()
		return fmt.Errorf("new session %q: %w", settings.LogName, err)
	}

	m.logger = logger
	m.name = logger.Name()
	m.path = ""
	m.saved = false
	m.dirty = false
	m.fresh = false
	m.log.Info("session started", "name", m.name, "providers", len(settings.Providers))
	return nil
}

// plan is a decoded session file, not yet applied.
type plan struct {
	envelope *codec.SessionRecord
	services []*codec.ServiceRecord
}

// Load replaces the running session with the one stored at path. The file is
// decoded completely first; on any error the running session is untouched.
func (m *Manager) Load(path string) error {
	if m.closed {
		return ErrClosed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	records, err := codec.DecodeStream(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	var p plan
	for _, rec := range records {
		switch r := rec.(type) {
		case *codec.SessionRecord:
			p.envelope = r
		case *codec.ServiceRecord:
			p.services = append(p.services, r)
		}
	}
	if p.envelope == nil {
		base := filepath.Base(path)
		p.envelope = &codec.SessionRecord{Name: strings.TrimSuffix(base, filepath.Ext(base))}
	}

	if err := m.preflight(p); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	m.cleanup()
	r := m.buildFromPlan(p)
	m.registry = r
	m.fresh = false
	if err := m.tracker.watch(r, m.changed); err != nil {
		m.abandon()
		return fmt.Errorf("load %s: %w", path, err)
	}

	logger, err := configure(r, p.envelope.Name, p.envelope.Views, p.envelope.Providers)
	if err != nil {
		m.abandon()
		return fmt.Errorf("load %s: %w", path, err)
	}

	m.logger = logger
	m.name = logger.Name()
	m.path = path
	m.saved = false
	m.dirty = false
	m.log.Info("session loaded", "name", m.name, "path", path,
		"records", len(records), "providers", len(p.envelope.Providers))
	return nil
}

// preflight rejects a plan that decoded cleanly but could not be wired, while
// the running session is still intact.
func (m *Manager) preflight(p plan) error {
	if logs.NormalizeName(p.envelope.Name) == "" {
		return logs.ErrEmptyName
	}

	vm := views.NewManager()
	for _, id := range p.envelope.Views {
		if _, ok := vm.Lookup(id); !ok {
			return fmt.Errorf("%w: %q", views.ErrUnknownView, id)
		}
	}

	known := make(map[string]bool)
	for _, info := range m.opts.NewProviderManager(m.log).Registered() {
		known[info.Identifier] = true
	}
	for _, rec := range p.envelope.Providers {
		if !known[rec.Info.Identifier] {
			return fmt.Errorf("%w: %s", providers.ErrUnknownProvider, rec.Info.Identifier)
		}
		if err := rec.Settings.Validate(); err != nil {
			return fmt.Errorf("provider %s: %w", rec.Settings.InstanceName(), err)
		}
	}
	return nil
}

// buildFromPlan binds the decoded services, then the infrastructure, then
// defaults for whatever the file did not contain.
func (m *Manager) buildFromPlan(p plan) *registry.Registry {
	r := registry.New()
	for _, s := range p.services {
		r.Register(s.Capability, s.Service)
	}
	m.registerInfrastructure(r)
	m.registerServices(r, true)
	if !r.IsRegistered(services.ClassifyingPipelineCap) {
		registerClassifier(r)
	}
	return r
}

// Save writes the session to path atomically.
func (m *Manager) Save(path string) error {
	if m.closed {
		return ErrClosed
	}
	bindings, err := m.registry.AllPersistable()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	env := codec.SessionRecord{Name: m.name}
	if frame, err := registry.Resolve[*views.Frame](m.registry, services.WindowFrameCap); err == nil {
		env.Views = frame.ViewIDs()
	}
	for _, s := range m.ProviderSettings() {
		env.Providers = append(env.Providers, providers.Pending(s))
	}

	data, err := codec.EncodeStream(env, bindings)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}

	m.path = path
	m.saved = true
	m.dirty = false
	m.log.Info("session saved", "name", m.name, "path", path, "records", len(bindings)+1)
	return nil
}

// AddProviders starts the providers src supplies in the running session.
// A nil src uses the session's provider wizard.
func (m *Manager) AddProviders(src setup.ProviderSource) error {
	if m.closed {
		return ErrClosed
	}
	if m.logger == nil {
		return errors.New("add providers: no session")
	}
	if src == nil {
		wizard, err := registry.Resolve[setup.ProviderSource](m.registry, services.ProviderWizardCap)
		if err != nil {
			return err
		}
		src = wizard
	}
	pending, ok, err := src.ProviderSettings()
	if err != nil {
		return fmt.Errorf("provider settings: %w", err)
	}
	if !ok || len(pending) == 0 {
		return nil
	}
	if err := startProviders(m.registry, m.logger, pending); err != nil {
		return err
	}
	m.changed()
	return nil
}

// Close shuts the session down. The manager is unusable afterwards.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	err := m.cleanup()
	m.closed = true
	m.registry = nil
	return err
}

// changed is the change tracker callback.
func (m *Manager) changed() {
	m.saved = false
	m.dirty = true
	m.fresh = false
	if m.opts.OnChange != nil {
		m.opts.OnChange()
	}
}

// reset installs a default registry and makes the manager Fresh.
func (m *Manager) reset() error {
	r := m.defaultRegistry()
	if err := m.tracker.watch(r, m.changed); err != nil {
		return err
	}
	m.registry = r
	m.logger = nil
	m.name = DefaultName
	m.path = ""
	m.saved = false
	m.dirty = false
	m.fresh = true
	return nil
}

// abandon discards a partially wired session and falls back to defaults.
func (m *Manager) abandon() {
	m.cleanup()
	if err := m.reset(); err != nil {
		m.log.Error("reset after failed wiring", "err", err)
	}
}

// cleanup stops everything the current registry started. The registry itself
// is dropped by the caller replacing it.
func (m *Manager) cleanup() error {
	m.cleanups++
	m.tracker.stop()
	if m.registry == nil {
		return nil
	}

	var errs []error
	if pm, err := registry.Resolve[*providers.Manager](m.registry, services.ProviderManagerCap); err == nil {
		if err := pm.CloseAll(); err != nil {
			errs = append(errs, err)
		}
	}
	if w, err := registry.Resolve[logs.Writer](m.registry, services.LogWriterCap); err == nil {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log writer: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		m.log.Warn("session cleanup", "err", err)
	}
	return err
}
