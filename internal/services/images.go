package services

import "strings"

// TypeImage maps an entry type to the glyph shown next to it.
type TypeImage struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

// TypeImageMap is the type-to-image service.
type TypeImageMap struct {
	Mappings []TypeImage `json:"mappings"`
}

// NewTypeImageMap returns glyphs for the standard levels.
func NewTypeImageMap() *TypeImageMap {
	return &TypeImageMap{Mappings: []TypeImage{
		{Type: "TRACE", Image: "·"},
		{Type: "DEBUG", Image: "•"},
		{Type: "INFO", Image: "i"},
		{Type: "WARN", Image: "!"},
		{Type: "ERROR", Image: "x"},
		{Type: "FATAL", Image: "X"},
	}}
}

// RecordKind implements registry.Persistable.
func (*TypeImageMap) RecordKind() string { return KindTypeImageMap }

// Image returns the glyph for typ (case-insensitive).
func (m *TypeImageMap) Image(typ string) (string, bool) {
	for _, ti := range m.Mappings {
		if strings.EqualFold(ti.Type, typ) {
			return ti.Image, true
		}
	}
	return "", false
}

// Set adds or replaces the glyph for typ.
func (m *TypeImageMap) Set(typ, image string) {
	for i := range m.Mappings {
		if strings.EqualFold(m.Mappings[i].Type, typ) {
			m.Mappings[i].Image = image
			return
		}
	}
	m.Mappings = append(m.Mappings, TypeImage{Type: typ, Image: image})
}
