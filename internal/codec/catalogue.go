package codec

import (
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
)

// KindSession is the discriminator of the session envelope.
const KindSession = "Session"

type kind struct {
	name       string
	capability registry.Capability
	// blank returns the instance a record of this kind is decoded into.
	blank func() registry.Persistable
}

// catalogue is ordered; the first exact match wins. The envelope is handled
// separately because it produces a SessionRecord.
var catalogue = []kind{
	{services.KindUserPreferences, services.UserPreferencesCap, func() registry.Persistable { return &services.UserPreferences{} }},
	{services.KindSearchFilter, services.SearchFilterCap, func() registry.Persistable { return services.NewSearchFilter() }},
	{services.KindSearchExtractor, services.SearchExtractorCap, func() registry.Persistable { return services.NewSearchExtractor() }},
	{services.KindFilteringPipeline, services.FilteringPipelineCap, func() registry.Persistable { return services.NewFilteringPipeline() }},
	{services.KindExtractingPipeline, services.ExtractingPipelineCap, func() registry.Persistable { return services.NewExtractingPipeline() }},
	{services.KindHighlightingPipeline, services.HighlightingPipelineCap, func() registry.Persistable { return &services.HighlightingPipeline{} }},
	{services.KindSearchHighlighter, services.SearchHighlighterCap, func() registry.Persistable { return services.NewSearchHighlighter() }},
	{services.KindClassifyingPipeline, services.ClassifyingPipelineCap, func() registry.Persistable { return services.NewClassifyingPipeline(nil) }},
	{services.KindTypeImageMap, services.TypeImageMapCap, func() registry.Persistable { return &services.TypeImageMap{} }},
}

// Kinds lists every known discriminator in catalogue order.
func Kinds() []string {
	out := make([]string, 0, len(catalogue)+1)
	for _, k := range catalogue {
		out = append(out, k.name)
	}
	return append(out, KindSession)
}

// CapabilityOf returns the capability a service kind is registered under.
func CapabilityOf(kindName string) (registry.Capability, bool) {
	if k, ok := lookup(kindName); ok {
		return k.capability, true
	}
	return "", false
}

func lookup(name string) (kind, bool) {
	for _, k := range catalogue {
		if k.name == name {
			return k, true
		}
	}
	return kind{}, false
}
