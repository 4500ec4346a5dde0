package services

import "github.com/five82/lookout/internal/registry"

// Capabilities of the persisted services.
const (
	UserPreferencesCap      registry.Capability = "user-preferences"
	SearchFilterCap         registry.Capability = "search-filter"
	SearchExtractorCap      registry.Capability = "search-extractor"
	SearchHighlighterCap    registry.Capability = "search-highlighter"
	FilteringPipelineCap    registry.Capability = "filtering-pipeline"
	ExtractingPipelineCap   registry.Capability = "extracting-pipeline"
	HighlightingPipelineCap registry.Capability = "highlighting-pipeline"
	ClassifyingPipelineCap  registry.Capability = "classifying-pipeline"
	TypeImageMapCap         registry.Capability = "type-image-map"
)

// Capabilities of the infrastructure services. They are rebuilt for every
// session and never written to a session file.
const (
	LogManagerCap      registry.Capability = "log-manager"
	LogWriterCap       registry.Capability = "log-writer"
	ViewManagerCap     registry.Capability = "view-manager"
	ProviderManagerCap registry.Capability = "provider-manager"
	WindowFrameCap     registry.Capability = "window-frame"
	ExporterCap        registry.Capability = "exporter"
	ProviderWizardCap  registry.Capability = "provider-wizard"
)

// Record kinds (discriminators) of the persisted services.
const (
	KindUserPreferences      = "UserPreferences"
	KindSearchFilter         = "SearchFilter"
	KindSearchExtractor      = "SearchExtractor"
	KindSearchHighlighter    = "SearchHighlighter"
	KindFilteringPipeline    = "FilteringPipeline"
	KindExtractingPipeline   = "ExtractingPipeline"
	KindHighlightingPipeline = "HighlightingPipeline"
	KindClassifyingPipeline  = "ClassifyingPipeline"
	KindTypeImageMap         = "TypeImageMap"
)
