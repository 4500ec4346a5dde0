package services

import "github.com/five82/lookout/internal/logs"

// search is the state shared by the quick-search services.
type search struct {
	Observable
	Enabled bool `json:"enabled"`
	Matcher
}

func newSearch() search {
	return search{Matcher: Matcher{Field: "description", Mode: MatchSubstring}}
}

// Active reports whether the search currently affects entries.
func (s *search) Active() bool { return s.Enabled && s.Pattern != "" }

// SetPattern replaces the pattern and enables the search when non-empty.
func (s *search) SetPattern(pattern string) {
	s.Pattern = pattern
	s.Enabled = pattern != ""
	s.Notify()
}

// SetField selects the entry field the pattern applies to.
func (s *search) SetField(field string) {
	s.Field = field
	s.Notify()
}

// SetMode selects the comparison mode.
func (s *search) SetMode(mode MatchMode) {
	s.Mode = mode
	s.Notify()
}

// SetEnabled toggles the search without touching its pattern.
func (s *search) SetEnabled(enabled bool) {
	s.Enabled = enabled
	s.Notify()
}

// SearchFilter hides entries matching its pattern.
type SearchFilter struct{ search }

// NewSearchFilter returns a disabled filter over entry descriptions.
func NewSearchFilter() *SearchFilter { return &SearchFilter{newSearch()} }

// RecordKind implements registry.Persistable.
func (*SearchFilter) RecordKind() string { return KindSearchFilter }

// Hides reports whether e is filtered out.
func (f *SearchFilter) Hides(e logs.Entry) bool { return f.Active() && f.Match(e) }

// SearchExtractor keeps only entries matching its pattern.
type SearchExtractor struct{ search }

// NewSearchExtractor returns a disabled extractor over entry descriptions.
func NewSearchExtractor() *SearchExtractor { return &SearchExtractor{newSearch()} }

// RecordKind implements registry.Persistable.
func (*SearchExtractor) RecordKind() string { return KindSearchExtractor }

// Keeps reports whether e survives extraction.
func (x *SearchExtractor) Keeps(e logs.Entry) bool { return !x.Active() || x.Match(e) }

// SearchHighlighter colours entries matching its pattern.
type SearchHighlighter struct {
	search
	Style Style `json:"style"`
}

// NewSearchHighlighter returns a disabled highlighter.
func NewSearchHighlighter() *SearchHighlighter {
	return &SearchHighlighter{search: newSearch(), Style: Style{Background: "#44475A", Foreground: "#F1FA8C"}}
}

// RecordKind implements registry.Persistable.
func (*SearchHighlighter) RecordKind() string { return KindSearchHighlighter }

// Highlight returns the style for e, if it matches.
func (h *SearchHighlighter) Highlight(e logs.Entry) (Style, bool) {
	if h.Active() && h.Match(e) {
		return h.Style, true
	}
	return Style{}, false
}
