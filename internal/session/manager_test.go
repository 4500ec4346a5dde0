package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/lookout/internal/codec"
	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/views"
)

type fakeProvider struct {
	id       string
	settings providers.Settings

	startErr error

	mu      sync.Mutex
	logger  *logs.Logger
	started bool
	closed  bool
}

func (p *fakeProvider) ID() string                   { return p.id }
func (p *fakeProvider) Info() providers.Info         { return p.settings.ProviderInfo() }
func (p *fakeProvider) Settings() providers.Settings { return p.settings }
func (p *fakeProvider) SetLogger(l *logs.Logger)     { p.mu.Lock(); p.logger = l; p.mu.Unlock() }
func (p *fakeProvider) Close() error                 { p.mu.Lock(); p.closed = true; p.mu.Unlock(); return nil }

func (p *fakeProvider) Start() error {
	if p.startErr != nil {
		return p.startErr
	}
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	return nil
}

func (p *fakeProvider) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakeProvider) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started && !p.closed
}

// fakes records every provider built by the managers of a test.
type fakes struct {
	mu    sync.Mutex
	built []*fakeProvider
	// failStart names instances whose Start fails with errAddressInUse.
	failStart string
}

var errAddressInUse = errors.New("address in use")

func (f *fakes) builder(id string, s providers.Settings, _ *log.Logger) (providers.Provider, error) {
	p := &fakeProvider{id: id, settings: s}
	if f.failStart != "" && s.InstanceName() == f.failStart {
		p.startErr = errAddressInUse
	}
	f.mu.Lock()
	f.built = append(f.built, p)
	f.mu.Unlock()
	return p, nil
}

func (f *fakes) all() []*fakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeProvider(nil), f.built...)
}

func newTestManager(t *testing.T) (*Manager, *fakes) {
	t.Helper()
	f := &fakes{}
	m, err := NewManager(Options{
		NewProviderManager: func(l *log.Logger) *providers.Manager {
			pm := providers.NewEmptyManager(l)
			pm.Register(providers.NetworkInfo, f.builder)
			pm.Register(providers.UDPAppenderInfo, f.builder)
			return pm
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, f
}

func prodSettings() setup.Settings {
	return setup.Settings{
		LogName: "Prod",
		ViewIDs: []string{views.TableID, views.DetailID},
		Providers: []providers.PendingRecord{
			providers.Pending(providers.NewNetworkSettings("prod-net", "10.0.0.5", 5000, "tcp")),
			providers.Pending(providers.NewUDPAppenderSettings("appender", "0.0.0.0", 4445)),
		},
	}
}

func resolve[T any](t *testing.T, m *Manager, c registry.Capability) T {
	t.Helper()
	v, err := registry.Resolve[T](m.Registry(), c)
	require.NoError(t, err)
	return v
}

// encodedServices returns every persisted service of m in canonical form,
// keyed by capability.
func encodedServices(t *testing.T, m *Manager) map[registry.Capability]string {
	t.Helper()
	bindings, err := m.Registry().AllPersistable()
	require.NoError(t, err)
	out := make(map[registry.Capability]string, len(bindings))
	for _, b := range bindings {
		raw, err := codec.Encode(b.Instance.(registry.Persistable))
		require.NoError(t, err)
		out[b.Capability] = string(raw)
	}
	return out
}

func TestNewManager_StartsFresh(t *testing.T) {
	m, _ := newTestManager(t)

	assert.True(t, m.IsFresh())
	assert.False(t, m.IsSaved())
	assert.Equal(t, DefaultName, m.Name())
	assert.Nil(t, m.Logger())

	kinds := make([]string, 0)
	for _, s := range encodedServices(t, m) {
		rec, err := codec.Decode([]byte(s))
		require.NoError(t, err)
		kinds = append(kinds, rec.RecordKind())
	}
	assert.ElementsMatch(t, codec.Kinds()[:len(codec.Kinds())-1], kinds)
}

func TestNew_OnFreshSkipsCleanupAndDefaults(t *testing.T) {
	m, f := newTestManager(t)
	before := m.Registry()
	require.Equal(t, 1, m.resets)
	require.Equal(t, 0, m.cleanups)

	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))

	assert.Equal(t, 1, m.resets, "defaults must not be registered again")
	assert.Equal(t, 0, m.cleanups, "cleanup must not run")
	assert.Same(t, before, m.Registry())
	assert.False(t, m.IsFresh())
	assert.False(t, m.IsSaved())
	assert.Equal(t, "Prod", m.Name())
	require.Len(t, f.all(), 2)
	for _, p := range f.all() {
		assert.True(t, p.IsActive())
		assert.Same(t, m.Logger(), p.logger)
	}

	frame := resolve[*views.Frame](t, m, services.WindowFrameCap)
	assert.Equal(t, []string{views.TableID, views.DetailID}, frame.ViewIDs())
	assert.Same(t, m.Logger(), frame.Log())
	assert.Len(t, resolve[*views.Manager](t, m, services.ViewManagerCap).Viewers(), 1)
}

func TestNew_ReplacesActiveSession(t *testing.T) {
	m, f := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
	first := m.Registry()
	old := f.all()

	require.NoError(t, m.New(setup.Static{Settings: setup.Settings{LogName: "Staging"}}))

	assert.Equal(t, 1, m.cleanups)
	assert.Equal(t, 2, m.resets)
	assert.NotSame(t, first, m.Registry())
	for _, p := range old {
		assert.False(t, p.IsActive(), "providers of the previous session must be closed")
	}
	assert.Equal(t, "Staging", m.Name())
	assert.Empty(t, m.ProviderSettings())
	frame := resolve[*views.Frame](t, m, services.WindowFrameCap)
	assert.Equal(t, []string{views.TableID}, frame.ViewIDs(), "no requested views falls back to the first registered view")
}

func TestNew_CancelledLeavesFresh(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Cancelled: true}))
	assert.True(t, m.IsFresh())
	assert.Equal(t, DefaultName, m.Name())

	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
	require.NoError(t, m.New(setup.Static{Cancelled: true}))
	assert.True(t, m.IsFresh(), "a cancelled New after cleanup leaves the reset defaults")
	assert.Equal(t, DefaultName, m.Name())
}

func TestNew_UnknownViewFallsBackToDefaults(t *testing.T) {
	m, f := newTestManager(t)
	s := prodSettings()
	s.ViewIDs = []string{"nope"}

	err := m.New(setup.Static{Settings: s})
	require.ErrorIs(t, err, views.ErrUnknownView)
	assert.True(t, m.IsFresh())
	assert.Empty(t, f.all(), "no provider starts when wiring fails before them")
}

func TestRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))

	filter := resolve[*services.SearchFilter](t, m, services.SearchFilterCap)
	filter.SetPattern("ERROR")
	highlights := resolve[*services.HighlightingPipeline](t, m, services.HighlightingPipelineCap)
	highlights.Add(services.Highlighter{
		Rule:  services.Rule{Name: "slow", Enabled: true, Matcher: services.Matcher{Field: "description", Pattern: "took ~\\d+ms", Mode: services.MatchRegex}},
		Style: services.Style{Foreground: "#FF8800"},
	})
	images := resolve[*services.TypeImageMap](t, m, services.TypeImageMapCap)
	images.Set("AUDIT", "A")
	prefs := resolve[*services.UserPreferences](t, m, services.UserPreferencesCap)
	prefs.UseUTC = true

	path := filepath.Join(t.TempDir(), "prod.session")
	require.NoError(t, m.Save(path))

	loaded, f2 := newTestManager(t)
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, "Prod", loaded.Name())
	assert.Equal(t, path, loaded.Path())
	assert.Equal(t, encodedServices(t, m), encodedServices(t, loaded))
	assert.Equal(t, m.ProviderSettings(), loaded.ProviderSettings())
	require.Len(t, f2.all(), 2)
	for _, p := range f2.all() {
		assert.True(t, p.IsActive())
		assert.Equal(t, "Prod", p.logger.Name())
	}
	frame := resolve[*views.Frame](t, loaded, services.WindowFrameCap)
	assert.Equal(t, []string{views.TableID, views.DetailID}, frame.ViewIDs())
}

func TestDirtyMonotonicity(t *testing.T) {
	var changes int
	f := &fakes{}
	m, err := NewManager(Options{
		OnChange: func() { changes++ },
		NewProviderManager: func(l *log.Logger) *providers.Manager {
			pm := providers.NewEmptyManager(l)
			pm.Register(providers.NetworkInfo, f.builder)
			return pm
		},
	})
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.New(setup.Static{Settings: setup.Settings{LogName: "Prod"}}))

	path := filepath.Join(t.TempDir(), "s.session")
	require.NoError(t, m.Save(path))
	assert.True(t, m.IsSaved())
	assert.False(t, m.IsDirty())

	resolve[*services.FilteringPipeline](t, m, services.FilteringPipelineCap).Add(services.Rule{Name: "noise"})
	assert.False(t, m.IsSaved())
	assert.True(t, m.IsDirty())
	assert.Equal(t, 1, changes)

	// Unwatched services do not dirty the session.
	resolve[*services.TypeImageMap](t, m, services.TypeImageMapCap).Set("X", "x")
	resolve[*services.SearchFilter](t, m, services.SearchFilterCap).SetPattern("boom")
	assert.True(t, m.IsDirty(), "stays dirty until the next save")
	assert.Equal(t, 2, changes)

	require.NoError(t, m.Save(path))
	assert.True(t, m.IsSaved())
	assert.False(t, m.IsDirty())

	require.NoError(t, m.Load(path))
	assert.False(t, m.IsDirty())
	assert.False(t, m.IsSaved())

	resolve[*services.ClassifyingPipeline](t, m, services.ClassifyingPipelineCap).Update(0, func(c *services.Classifier) { c.Enabled = true })
	assert.True(t, m.IsDirty())
	assert.False(t, m.IsFresh())
}

func TestChangeOnFreshRegistryClearsFresh(t *testing.T) {
	m, _ := newTestManager(t)
	before := m.Registry()
	resolve[*services.SearchExtractor](t, m, services.SearchExtractorCap).SetPattern("x")
	assert.False(t, m.IsFresh())

	require.NoError(t, m.New(setup.Static{Settings: setup.Settings{LogName: "A"}}))
	assert.NotSame(t, before, m.Registry(), "a touched registry is reset before New")
	assert.Equal(t, 1, m.cleanups)
}

func TestIdempotentResave(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
	resolve[*services.SearchHighlighter](t, m, services.SearchHighlighterCap).SetPattern("timeout ~ 5s")

	dir := t.TempDir()
	first := filepath.Join(dir, "first.session")
	second := filepath.Join(dir, "second.session")
	require.NoError(t, m.Save(first))

	loaded, _ := newTestManager(t)
	require.NoError(t, loaded.Load(first))
	require.NoError(t, loaded.Save(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLoad_UnknownKindAbortsAndKeepsSession(t *testing.T) {
	m, f := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
	resolve[*services.SearchFilter](t, m, services.SearchFilterCap).SetPattern("keep me")
	before := m.Registry()

	path := filepath.Join(t.TempDir(), "bad.session")
	content := `{"$type":"Session","name":"Other"}~` + "\n" +
		`{"$type":"SearchFilter","enabled":true,"field":"description","mode":"substring","pattern":"ERROR"}~` + "\n" +
		`{"$type":"Mystery","x":1}~` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	err := m.Load(path)
	require.ErrorIs(t, err, codec.ErrUnknownKind)

	assert.Same(t, before, m.Registry())
	assert.Equal(t, "Prod", m.Name())
	assert.Equal(t, 0, m.cleanups)
	assert.Equal(t, "keep me", resolve[*services.SearchFilter](t, m, services.SearchFilterCap).Pattern)
	for _, p := range f.all() {
		assert.True(t, p.IsActive())
	}
}

func TestLoad_MalformedRecordAborts(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "bad.session")
	require.NoError(t, os.WriteFile(path, []byte("{not json~\n"), 0o644))

	err := m.Load(path)
	assert.ErrorIs(t, err, codec.ErrMalformedRecord)
	assert.True(t, m.IsFresh())
}

func TestLoad_MissingFile(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Load(filepath.Join(t.TempDir(), "missing.session"))
	assert.ErrorIs(t, err, ErrIO)
	assert.True(t, m.IsFresh())
}

func TestSave_UnwritableDirectory(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "s.session"))
	assert.ErrorIs(t, err, ErrIO)
	assert.False(t, m.IsSaved())
}

func TestScenario_ProdNetworkProviderAndErrorFilter(t *testing.T) {
	m, f := newTestManager(t)
	path := filepath.Join(t.TempDir(), "prod.session")
	content := `{"$type":"Session","name":"Prod","providers":[{"$type":"NetworkSettings","host":"10.1.2.3","info":{"identifier":"lookout.network","name":"Network listener"},"name":"prod-net","port":5140,"protocol":"udp"}]}~` + "\n" +
		`{"$type":"SearchFilter","enabled":true,"field":"description","mode":"substring","pattern":"ERROR"}~` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, m.Load(path))

	filter := resolve[*services.SearchFilter](t, m, services.SearchFilterCap)
	assert.Equal(t, "ERROR", filter.Pattern)
	assert.True(t, filter.Enabled)

	require.Len(t, f.all(), 1)
	p := f.all()[0]
	assert.True(t, p.IsActive())
	assert.Equal(t, "Prod", p.logger.Name())
	assert.Equal(t, "10.1.2.3:5140", p.Settings().Address())

	lm := resolve[*logs.Manager](t, m, services.LogManagerCap)
	l, ok := lm.Get("Prod")
	require.True(t, ok)
	assert.Same(t, l, p.logger)

	frame := resolve[*views.Frame](t, m, services.WindowFrameCap)
	assert.Equal(t, []string{views.TableID}, frame.ViewIDs())

	// Services missing from the file get defaults; the classifier is built
	// from the default type-image map.
	classifier := resolve[*services.ClassifyingPipeline](t, m, services.ClassifyingPipelineCap)
	images := resolve[*services.TypeImageMap](t, m, services.TypeImageMapCap)
	assert.Equal(t, len(images.Mappings), classifier.Len())
}

func TestLoad_KeepsClassifierFromFile(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "c.session")
	content := `{"$type":"ClassifyingPipeline","items":[{"enabled":true,"field":"description","mode":"substring","name":"oom","pattern":"OutOfMemory","type":"FATAL"}]}~` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, m.Load(path))
	assert.Equal(t, "c", m.Name(), "a file without an envelope is named after the file")
	classifier := resolve[*services.ClassifyingPipeline](t, m, services.ClassifyingPipelineCap)
	require.Equal(t, 1, classifier.Len())
	assert.Equal(t, "oom", classifier.Items[0].Name)
}

func TestAddProviders(t *testing.T) {
	m, f := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: setup.Settings{LogName: "Prod"}}))
	path := filepath.Join(t.TempDir(), "s.session")
	require.NoError(t, m.Save(path))

	require.NoError(t, m.AddProviders(setup.Static{Settings: setup.Settings{Providers: []providers.PendingRecord{
		providers.Pending(providers.NewNetworkSettings("late", "127.0.0.1", 9000, "udp")),
	}}}))
	require.Len(t, f.all(), 1)
	assert.True(t, f.all()[0].IsActive())
	assert.False(t, m.IsSaved())

	// The default wizard binding supplies nothing.
	require.NoError(t, m.AddProviders(nil))
	assert.Len(t, f.all(), 1)
}

func TestClose(t *testing.T) {
	m, f := newTestManager(t)
	require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
	require.NoError(t, m.Close())
	for _, p := range f.all() {
		assert.False(t, p.IsActive())
	}
	assert.ErrorIs(t, m.New(setup.Static{}), ErrClosed)
	assert.NoError(t, m.Close())
}

func TestAddProviders_FailedStartIsForgotten(t *testing.T) {
	m, f := newTestManager(t)
	f.failStart = "bad"
	require.NoError(t, m.New(setup.Static{Settings: setup.Settings{LogName: "Prod"}}))

	err := m.AddProviders(setup.Static{Settings: setup.Settings{Providers: []providers.PendingRecord{
		providers.Pending(providers.NewNetworkSettings("bad", "127.0.0.1", 9000, "udp")),
	}}})
	require.ErrorIs(t, err, errAddressInUse)
	require.Len(t, f.all(), 1)
	assert.True(t, f.all()[0].IsClosed())
	assert.Empty(t, m.ProviderSettings())

	path := filepath.Join(t.TempDir(), "s.session")
	require.NoError(t, m.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"name":"bad"`)

	records, err := codec.DecodeStream(data)
	require.NoError(t, err)
	assert.Empty(t, records[0].(*codec.SessionRecord).Providers)
}

func TestLoad_UnwirableFileKeepsSession(t *testing.T) {
	provider := func(identifier string) string {
		return `{"$type":"NetworkSettings","host":"10.1.2.3","info":{"identifier":"` + identifier + `"},"name":"n","port":5140,"protocol":"udp"}`
	}
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty name", `{"$type":"Session","name":""}~`, codec.ErrMalformedRecord},
		{"blank name", `{"$type":"Session","name":"   "}~`, codec.ErrMalformedRecord},
		{"unnamed file without envelope", "", logs.ErrEmptyName},
		{"unknown view", `{"$type":"Session","name":"Other","views":["nope"]}~`, views.ErrUnknownView},
		{"unregistered provider", `{"$type":"Session","name":"Other","providers":[` + provider("lookout.kafka") + `]}~`, providers.ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, f := newTestManager(t)
			require.NoError(t, m.New(setup.Static{Settings: prodSettings()}))
			before := m.Registry()

			path := filepath.Join(t.TempDir(), "other.session")
			content := tt.content
			if content == "" {
				path = filepath.Join(t.TempDir(), ".session")
				content = `{"$type":"SearchFilter","enabled":true,"field":"description","mode":"substring","pattern":"x"}~`
			}
			require.NoError(t, os.WriteFile(path, []byte(content+"\n"), 0o644))

			err := m.Load(path)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, m.cleanups)
			assert.Same(t, before, m.Registry())
			assert.Equal(t, "Prod", m.Name())
			assert.False(t, m.IsFresh())
			require.Len(t, f.all(), 2)
			for _, p := range f.all() {
				assert.True(t, p.IsActive())
			}
		})
	}
}

func TestLoad_NetworkProtocolNormalized(t *testing.T) {
	m, f := newTestManager(t)
	path := filepath.Join(t.TempDir(), "prod.session")
	content := `{"$type":"Session","name":"Prod","providers":[` +
		`{"$type":"NetworkSettings","host":"10.1.2.3","info":{"identifier":"lookout.network"},"name":"plain","port":5140},` +
		`{"$type":"NetworkSettings","host":"10.1.2.3","info":{"identifier":"lookout.network"},"name":"upper","port":5141,"protocol":"TCP"}]}~` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	require.NoError(t, m.Load(path))
	require.Len(t, f.all(), 2)
	assert.Equal(t, "udp", f.all()[0].Settings().(*providers.NetworkSettings).Protocol)
	assert.Equal(t, "tcp", f.all()[1].Settings().(*providers.NetworkSettings).Protocol)

	saved := filepath.Join(t.TempDir(), "saved.session")
	require.NoError(t, m.Save(saved))
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"protocol":"udp"`)
	assert.Contains(t, string(data), `"protocol":"tcp"`)
	assert.NotContains(t, string(data), `"TCP"`)
}
