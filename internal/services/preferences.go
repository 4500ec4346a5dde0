package services

// UserPreferences holds per-session display preferences.
type UserPreferences struct {
	Theme               string `json:"theme"`
	UseUTC              bool   `json:"useUtc"`
	TimeFormat          string `json:"timeFormat"`
	AutoScroll          bool   `json:"autoScroll"`
	ShowClassifications bool   `json:"showClassifications"`
}

// DefaultTimeFormat is the entry timestamp layout used when none is set.
const DefaultTimeFormat = "15:04:05.000"

// NewUserPreferences returns preferences with the given theme and defaults
// for everything else.
func NewUserPreferences(theme string) *UserPreferences {
	return &UserPreferences{
		Theme:      theme,
		TimeFormat: DefaultTimeFormat,
		AutoScroll: true,
	}
}

// RecordKind implements registry.Persistable.
func (*UserPreferences) RecordKind() string { return KindUserPreferences }
