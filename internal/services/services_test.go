package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/lookout/internal/logs"
)

func TestMatcher_Modes(t *testing.T) {
	e := logs.Entry{Type: "ERROR", Description: "Connection refused by db-01"}
	tests := []struct {
		name string
		m    Matcher
		want bool
	}{
		{"empty pattern never matches", Matcher{Mode: MatchSubstring}, false},
		{"substring case-insensitive", Matcher{Pattern: "REFUSED", Mode: MatchSubstring}, true},
		{"default mode is substring", Matcher{Pattern: "db-01"}, true},
		{"exact on type", Matcher{Field: "type", Pattern: "ERROR", Mode: MatchExact}, true},
		{"exact is case-sensitive", Matcher{Field: "type", Pattern: "error", Mode: MatchExact}, false},
		{"regex", Matcher{Pattern: `db-\d+$`, Mode: MatchRegex}, true},
		{"invalid regex never matches", Matcher{Pattern: `(`, Mode: MatchRegex}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Match(e))
		})
	}
}

func TestSearchFilter_NotifiesAndHides(t *testing.T) {
	f := NewSearchFilter()
	calls := 0
	unsubscribe := f.Subscribe(func() { calls++ })

	e := logs.Entry{Description: "ERROR: disk"}
	assert.False(t, f.Hides(e))

	f.SetPattern("ERROR")
	assert.True(t, f.Enabled)
	assert.True(t, f.Hides(e))
	assert.Equal(t, 1, calls)

	f.SetEnabled(false)
	assert.False(t, f.Hides(e))
	assert.Equal(t, 2, calls)

	unsubscribe()
	unsubscribe()
	f.SetMode(MatchExact)
	assert.Equal(t, 2, calls, "no notification after unsubscribe")
	assert.Equal(t, 0, f.Subscribers())
}

func TestSearchExtractor_Keeps(t *testing.T) {
	x := NewSearchExtractor()
	e := logs.Entry{Description: "payment accepted"}
	assert.True(t, x.Keeps(e), "inactive extractor keeps everything")

	x.SetPattern("refund")
	assert.False(t, x.Keeps(e))
	x.SetPattern("payment")
	assert.True(t, x.Keeps(e))
}

func TestSearchHighlighter(t *testing.T) {
	h := NewSearchHighlighter()
	h.SetPattern("slow")
	style, ok := h.Highlight(logs.Entry{Description: "slow query"})
	require.True(t, ok)
	assert.Equal(t, h.Style, style)

	_, ok = h.Highlight(logs.Entry{Description: "fast query"})
	assert.False(t, ok)
}

func TestPipelines_FilterExtract(t *testing.T) {
	noisy := logs.Entry{System: "health", Description: "ping"}
	useful := logs.Entry{System: "api", Description: "order placed"}

	f := NewFilteringPipeline()
	f.Add(Rule{Name: "health", Enabled: true, Matcher: Matcher{Field: "system", Pattern: "health", Mode: MatchExact}})
	assert.True(t, f.Hides(noisy))
	assert.False(t, f.Hides(useful))

	require.True(t, f.Update(0, func(r *Rule) { r.Enabled = false }))
	assert.False(t, f.Hides(noisy))
	assert.False(t, f.Update(5, func(*Rule) {}))

	x := NewExtractingPipeline()
	assert.True(t, x.Keeps(noisy))
	x.Add(Rule{Name: "api", Enabled: true, Matcher: Matcher{Field: "system", Pattern: "api"}})
	assert.False(t, x.Keeps(noisy))
	assert.True(t, x.Keeps(useful))
	require.True(t, x.Remove(0))
	assert.False(t, x.Remove(0))
	assert.True(t, x.Keeps(noisy))
}

func TestPipeline_NotifiesOnEveryMutation(t *testing.T) {
	p := NewHighlightingPipeline()
	calls := 0
	p.Subscribe(func() { calls++ })

	p.Add(Highlighter{Rule: Rule{Name: "x"}})
	p.Update(0, func(h *Highlighter) { h.Enabled = false })
	p.Remove(0)
	assert.Equal(t, 3, calls)
}

func TestHighlightingPipeline_Defaults(t *testing.T) {
	p := NewHighlightingPipeline()
	style, ok := p.Highlight(logs.Entry{Type: "ERROR"})
	require.True(t, ok)
	assert.Equal(t, "#FF6B6B", style.Foreground)

	_, ok = p.Highlight(logs.Entry{Type: "INFO"})
	assert.False(t, ok)
}

func TestClassifyingPipeline_SeededFromImages(t *testing.T) {
	images := NewTypeImageMap()
	p := NewClassifyingPipeline(images)
	require.Equal(t, len(images.Mappings), p.Len())

	e := logs.Entry{Type: "INFO", Description: "[WARN] cache miss"}
	assert.Equal(t, "INFO", p.Classify(e).Type, "seeded classifiers start disabled")

	for i := range p.Items {
		p.Update(i, func(c *Classifier) { c.Enabled = true })
	}
	got := p.Classify(e)
	assert.Equal(t, "WARN", got.Type)
	assert.Equal(t, "WARN tag", got.Classification)

	assert.Zero(t, NewClassifyingPipeline(nil).Len())
}

func TestTypeImageMap(t *testing.T) {
	m := NewTypeImageMap()
	img, ok := m.Image("error")
	require.True(t, ok)
	assert.Equal(t, "x", img)

	m.Set("AUDIT", "@")
	m.Set("error", "E")
	img, _ = m.Image("ERROR")
	assert.Equal(t, "E", img)
	img, _ = m.Image("audit")
	assert.Equal(t, "@", img)
}

func TestSerializedShape(t *testing.T) {
	f := NewSearchFilter()
	f.SetPattern("ERROR")
	f.Subscribe(func() {})

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"field":"description","pattern":"ERROR","mode":"substring"}`, string(data))

	p := &FilteringPipeline{}
	p.Add(Rule{Name: "n", Enabled: true, Matcher: Matcher{Field: "type", Pattern: "DEBUG", Mode: MatchExact}})
	data, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"name":"n","enabled":true,"field":"type","pattern":"DEBUG","mode":"exact"}]}`, string(data))
}
