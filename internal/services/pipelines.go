package services

import (
	"fmt"
	"regexp"

	"github.com/five82/lookout/internal/logs"
)

// Pipeline is an ordered, observable list of rules.
type Pipeline[T any] struct {
	Observable
	Items []T `json:"items"`
}

// Len returns the number of rules.
func (p *Pipeline[T]) Len() int { return len(p.Items) }

// Add appends a rule.
func (p *Pipeline[T]) Add(item T) {
	p.Items = append(p.Items, item)
	p.Notify()
}

// Remove deletes the rule at i.
func (p *Pipeline[T]) Remove(i int) bool {
	if i < 0 || i >= len(p.Items) {
		return false
	}
	p.Items = append(p.Items[:i], p.Items[i+1:]...)
	p.Notify()
	return true
}

// Update mutates the rule at i in place.
func (p *Pipeline[T]) Update(i int, fn func(*T)) bool {
	if i < 0 || i >= len(p.Items) {
		return false
	}
	fn(&p.Items[i])
	p.Notify()
	return true
}

// Rule is a named, switchable matcher used by filters and extractors.
type Rule struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Matcher
}

// Style is a foreground/background colour pair in #RRGGBB form.
type Style struct {
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
}

// Highlighter colours matching entries.
type Highlighter struct {
	Rule
	Style Style `json:"style"`
}

// Classifier rewrites the type of matching entries.
type Classifier struct {
	Rule
	Type string `json:"type"`
}

// FilteringPipeline hides entries matching any enabled rule.
type FilteringPipeline struct{ Pipeline[Rule] }

// NewFilteringPipeline returns an empty pipeline.
func NewFilteringPipeline() *FilteringPipeline { return &FilteringPipeline{} }

// RecordKind implements registry.Persistable.
func (*FilteringPipeline) RecordKind() string { return KindFilteringPipeline }

// Hides reports whether e is filtered out.
func (p *FilteringPipeline) Hides(e logs.Entry) bool {
	for _, r := range p.Items {
		if r.Enabled && r.Match(e) {
			return true
		}
	}
	return false
}

// ExtractingPipeline keeps only entries matching an enabled rule. With no
// enabled rule every entry is kept.
type ExtractingPipeline struct{ Pipeline[Rule] }

// NewExtractingPipeline returns an empty pipeline.
func NewExtractingPipeline() *ExtractingPipeline { return &ExtractingPipeline{} }

// RecordKind implements registry.Persistable.
func (*ExtractingPipeline) RecordKind() string { return KindExtractingPipeline }

// Keeps reports whether e survives extraction.
func (p *ExtractingPipeline) Keeps(e logs.Entry) bool {
	anyEnabled := false
	for _, r := range p.Items {
		if !r.Enabled {
			continue
		}
		anyEnabled = true
		if r.Match(e) {
			return true
		}
	}
	return !anyEnabled
}

// HighlightingPipeline colours entries by the first matching enabled rule.
type HighlightingPipeline struct{ Pipeline[Highlighter] }

// NewHighlightingPipeline returns the stock error and warning highlighters.
func NewHighlightingPipeline() *HighlightingPipeline {
	p := &HighlightingPipeline{}
	p.Items = []Highlighter{
		{Rule: Rule{Name: "Error", Enabled: true, Matcher: Matcher{Field: "type", Pattern: "ERROR", Mode: MatchExact}}, Style: Style{Foreground: "#FF6B6B"}},
		{Rule: Rule{Name: "Fatal", Enabled: true, Matcher: Matcher{Field: "type", Pattern: "FATAL", Mode: MatchExact}}, Style: Style{Foreground: "#FFFFFF", Background: "#FF6B6B"}},
		{Rule: Rule{Name: "Warning", Enabled: true, Matcher: Matcher{Field: "type", Pattern: "WARN", Mode: MatchExact}}, Style: Style{Foreground: "#FFD700"}},
	}
	return p
}

// RecordKind implements registry.Persistable.
func (*HighlightingPipeline) RecordKind() string { return KindHighlightingPipeline }

// Highlight returns the style of the first matching enabled rule.
func (p *HighlightingPipeline) Highlight(e logs.Entry) (Style, bool) {
	for _, h := range p.Items {
		if h.Enabled && h.Match(e) {
			return h.Style, true
		}
	}
	return Style{}, false
}

// ClassifyingPipeline rewrites entry types by the first matching enabled rule.
type ClassifyingPipeline struct{ Pipeline[Classifier] }

// NewClassifyingPipeline returns one disabled tag classifier per type known
// to images: a description starting with "[TYPE]" is classified as TYPE.
func NewClassifyingPipeline(images *TypeImageMap) *ClassifyingPipeline {
	p := &ClassifyingPipeline{}
	if images == nil {
		return p
	}
	for _, m := range images.Mappings {
		p.Items = append(p.Items, Classifier{
			Rule: Rule{
				Name:    fmt.Sprintf("%s tag", m.Type),
				Matcher: Matcher{Field: "description", Pattern: "^\\[" + regexp.QuoteMeta(m.Type) + "\\]", Mode: MatchRegex},
			},
			Type: m.Type,
		})
	}
	return p
}

// RecordKind implements registry.Persistable.
func (*ClassifyingPipeline) RecordKind() string { return KindClassifyingPipeline }

// Classify returns e with its type and classification rewritten by the first
// matching enabled rule.
func (p *ClassifyingPipeline) Classify(e logs.Entry) logs.Entry {
	for _, c := range p.Items {
		if c.Enabled && c.Match(e) {
			e.Type = c.Type
			e.Classification = c.Name
			return e
		}
	}
	return e
}
