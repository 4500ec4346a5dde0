package logs

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one log event received from a provider.
type Entry struct {
	Time        time.Time         `json:"time"`
	Type        string            `json:"type"` // level, e.g. INFO, ERROR
	System      string            `json:"system"`
	Thread      string            `json:"thread,omitempty"`
	Host        string            `json:"host,omitempty"`
	Source      string            `json:"source,omitempty"` // provider instance name
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	// Classification is set by the classifying pipeline before display.
	Classification string `json:"-"`
}

// Field returns the value of a named entry field. Unknown names resolve to
// metadata keys so filters can target arbitrary provider properties.
func (e Entry) Field(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "description", "message":
		return e.Description
	case "type", "level":
		return e.Type
	case "system", "logger":
		return e.System
	case "thread":
		return e.Thread
	case "host":
		return e.Host
	case "source":
		return e.Source
	case "classification":
		return e.Classification
	default:
		return e.Metadata[name]
	}
}

// String renders the entry as a single text line.
func (e Entry) String() string {
	ts := e.Time.Format("2006-01-02 15:04:05.000")
	if e.System == "" {
		return fmt.Sprintf("%s %-5s %s", ts, e.Type, e.Description)
	}
	return fmt.Sprintf("%s %-5s [%s] %s", ts, e.Type, e.System, e.Description)
}
