package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
)

// searchTarget selects which quick-search service the search box drives.
type searchTarget int

const (
	searchHighlight searchTarget = iota
	searchFilter
	searchExtract
)

func (t searchTarget) String() string {
	switch t {
	case searchFilter:
		return "filter"
	case searchExtract:
		return "extract"
	default:
		return "highlight"
	}
}

func (t searchTarget) next() searchTarget { return (t + 1) % 3 }

// row is one displayed entry.
type row struct {
	entry logs.Entry
	image string
	style services.Style
	lit   bool
}

// pipeline is the set of session services an entry passes through before it
// is displayed.
type pipeline struct {
	prefs             *services.UserPreferences
	classifier        *services.ClassifyingPipeline
	filters           *services.FilteringPipeline
	extractors        *services.ExtractingPipeline
	highlights        *services.HighlightingPipeline
	searchFilter      *services.SearchFilter
	searchExtractor   *services.SearchExtractor
	searchHighlighter *services.SearchHighlighter
	images            *services.TypeImageMap
}

// resolvePipeline looks the display services up in r.
func resolvePipeline(r *registry.Registry) (pipeline, error) {
	var (
		p   pipeline
		err error
	)
	if p.prefs, err = registry.Resolve[*services.UserPreferences](r, services.UserPreferencesCap); err != nil {
		return p, err
	}
	if p.classifier, err = registry.Resolve[*services.ClassifyingPipeline](r, services.ClassifyingPipelineCap); err != nil {
		return p, err
	}
	if p.filters, err = registry.Resolve[*services.FilteringPipeline](r, services.FilteringPipelineCap); err != nil {
		return p, err
	}
	if p.extractors, err = registry.Resolve[*services.ExtractingPipeline](r, services.ExtractingPipelineCap); err != nil {
		return p, err
	}
	if p.highlights, err = registry.Resolve[*services.HighlightingPipeline](r, services.HighlightingPipelineCap); err != nil {
		return p, err
	}
	if p.searchFilter, err = registry.Resolve[*services.SearchFilter](r, services.SearchFilterCap); err != nil {
		return p, err
	}
	if p.searchExtractor, err = registry.Resolve[*services.SearchExtractor](r, services.SearchExtractorCap); err != nil {
		return p, err
	}
	if p.searchHighlighter, err = registry.Resolve[*services.SearchHighlighter](r, services.SearchHighlighterCap); err != nil {
		return p, err
	}
	if p.images, err = registry.Resolve[*services.TypeImageMap](r, services.TypeImageMapCap); err != nil {
		return p, err
	}
	return p, nil
}

// apply classifies, filters, extracts and highlights entries, in that order.
func (p pipeline) apply(entries []logs.Entry) []row {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		if p.classifier != nil {
			e = p.classifier.Classify(e)
		}
		if p.filters != nil && p.filters.Hides(e) {
			continue
		}
		if p.searchFilter != nil && p.searchFilter.Hides(e) {
			continue
		}
		if p.extractors != nil && !p.extractors.Keeps(e) {
			continue
		}
		if p.searchExtractor != nil && !p.searchExtractor.Keeps(e) {
			continue
		}

		r := row{entry: e}
		if p.searchHighlighter != nil {
			r.style, r.lit = p.searchHighlighter.Highlight(e)
		}
		if !r.lit && p.highlights != nil {
			r.style, r.lit = p.highlights.Highlight(e)
		}
		if p.images != nil {
			r.image, _ = p.images.Image(e.Type)
		}
		rows = append(rows, r)
	}
	return rows
}

// search returns the quick-search service bound to t.
func (p pipeline) search(t searchTarget) searcher {
	switch t {
	case searchFilter:
		if p.searchFilter != nil {
			return p.searchFilter
		}
	case searchExtract:
		if p.searchExtractor != nil {
			return p.searchExtractor
		}
	default:
		if p.searchHighlighter != nil {
			return p.searchHighlighter
		}
	}
	return nil
}

// searcher is the mutable surface shared by the quick-search services.
type searcher interface {
	SetPattern(pattern string)
	SetEnabled(enabled bool)
	Active() bool
}

// formatRow renders the plain text of r, without color.
func (p pipeline) formatRow(r row) string {
	layout := services.DefaultTimeFormat
	showClass := false
	ts := r.entry.Time
	if p.prefs != nil {
		if p.prefs.TimeFormat != "" {
			layout = p.prefs.TimeFormat
		}
		if p.prefs.UseUTC {
			ts = ts.UTC()
		} else {
			ts = ts.In(time.Local)
		}
		showClass = p.prefs.ShowClassifications
	}

	image := r.image
	if image == "" {
		image = " "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %-5s", ts.Format(layout), image, r.entry.Type)
	if r.entry.System != "" {
		fmt.Fprintf(&b, " [%s]", r.entry.System)
	}
	if r.entry.Source != "" {
		fmt.Fprintf(&b, " <%s>", r.entry.Source)
	}
	b.WriteString(" ")
	b.WriteString(strings.ReplaceAll(r.entry.Description, "\n", " ⏎ "))
	if showClass && r.entry.Classification != "" {
		fmt.Fprintf(&b, " (%s)", r.entry.Classification)
	}
	return b.String()
}
