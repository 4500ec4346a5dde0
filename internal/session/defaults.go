package session

import (
	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/views"
)

func singleton(r *registry.Registry, c registry.Capability, f func() any) {
	r.RegisterFactory(c, func(*registry.Registry) (any, error) { return f(), nil }, true)
}

// registerServices binds a default for every persisted service except the
// classifying pipeline. With onlyMissing set, capabilities a session file
// already bound are left alone.
func (m *Manager) registerServices(r *registry.Registry, onlyMissing bool) {
	defaults := []struct {
		c registry.Capability
		f func() any
	}{
		{services.UserPreferencesCap, func() any { seed := m.opts.Preferences; return &seed }},
		{services.SearchFilterCap, func() any { return services.NewSearchFilter() }},
		{services.SearchExtractorCap, func() any { return services.NewSearchExtractor() }},
		{services.FilteringPipelineCap, func() any { return services.NewFilteringPipeline() }},
		{services.ExtractingPipelineCap, func() any { return services.NewExtractingPipeline() }},
		{services.HighlightingPipelineCap, func() any { return services.NewHighlightingPipeline() }},
		{services.SearchHighlighterCap, func() any { return services.NewSearchHighlighter() }},
		{services.TypeImageMapCap, func() any { return services.NewTypeImageMap() }},
	}
	for _, d := range defaults {
		if onlyMissing && r.IsRegistered(d.c) {
			continue
		}
		singleton(r, d.c, d.f)
	}
}

// registerClassifier binds the default classifying pipeline. It resolves the
// type-image map, so it is registered after everything else.
func registerClassifier(r *registry.Registry) {
	r.RegisterFactory(services.ClassifyingPipelineCap, func(r *registry.Registry) (any, error) {
		images, err := registry.Resolve[*services.TypeImageMap](r, services.TypeImageMapCap)
		if err != nil {
			return nil, err
		}
		return services.NewClassifyingPipeline(images), nil
	}, true)
}

// registerInfrastructure binds the services that are rebuilt for every
// session and never written to a file.
func (m *Manager) registerInfrastructure(r *registry.Registry) {
	var writer logs.Writer = logs.DiscardWriter{}
	if m.opts.NewLogWriter != nil {
		w, err := m.opts.NewLogWriter()
		if err != nil {
			m.log.Warn("log writer unavailable, entries will not be archived", "err", err)
		} else {
			writer = w
		}
	}
	r.Register(services.LogWriterCap, writer)

	r.RegisterFactory(services.LogManagerCap, func(r *registry.Registry) (any, error) {
		w, err := registry.Resolve[logs.Writer](r, services.LogWriterCap)
		if err != nil {
			return nil, err
		}
		return logs.NewManager(m.opts.BufferSize, w), nil
	}, true)
	singleton(r, services.ViewManagerCap, func() any { return views.NewManager() })
	singleton(r, services.ProviderManagerCap, func() any { return m.opts.NewProviderManager(m.log.With("component", "providers")) })
	r.RegisterFactory(services.WindowFrameCap, func(r *registry.Registry) (any, error) {
		vm, err := registry.Resolve[*views.Manager](r, services.ViewManagerCap)
		if err != nil {
			return nil, err
		}
		return views.NewFrame(vm), nil
	}, true)
	r.Register(services.ExporterCap, logs.Exporter{})

	var wizard setup.ProviderSource = setup.Static{Cancelled: true}
	if m.opts.ProviderWizard != nil {
		wizard = m.opts.ProviderWizard
	}
	r.Register(services.ProviderWizardCap, wizard)
}

// defaultRegistry returns a registry holding only default bindings.
func (m *Manager) defaultRegistry() *registry.Registry {
	m.resets++
	r := registry.New()
	m.registerServices(r, false)
	m.registerInfrastructure(r)
	registerClassifier(r)
	return r
}

func defaultProviderManager(logger *log.Logger) *providers.Manager {
	return providers.NewManager(logger)
}
