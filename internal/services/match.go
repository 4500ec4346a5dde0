package services

import (
	"regexp"
	"strings"
	"sync"

	"github.com/five82/lookout/internal/logs"
)

// MatchMode selects how a pattern is compared to a field.
type MatchMode string

const (
	MatchExact     MatchMode = "exact"
	MatchSubstring MatchMode = "substring"
	MatchRegex     MatchMode = "regex"
)

// Matcher compares one entry field against a pattern.
type Matcher struct {
	Field   string    `json:"field"`
	Pattern string    `json:"pattern"`
	Mode    MatchMode `json:"mode"`
}

var regexCache sync.Map // pattern -> *regexp.Regexp, nil for invalid patterns

// Match reports whether e matches. An empty pattern never matches and an
// invalid regular expression never matches.
func (m Matcher) Match(e logs.Entry) bool {
	if m.Pattern == "" {
		return false
	}
	value := e.Field(m.Field)
	switch m.Mode {
	case MatchExact:
		return value == m.Pattern
	case MatchRegex:
		re := compile(m.Pattern)
		return re != nil && re.MatchString(value)
	default:
		return strings.Contains(strings.ToLower(value), strings.ToLower(m.Pattern))
	}
}

func compile(pattern string) *regexp.Regexp {
	if cached, ok := regexCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	regexCache.Store(pattern, re)
	return re
}
