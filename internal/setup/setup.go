// Package setup supplies the settings of a new session or a new provider.
// Interactive sources (the TUI wizard) collect them from the user; file
// sources read them from a TOML or YAML file.
package setup

import (
	"github.com/five82/lookout/internal/providers"
)

// Settings is the payload a new session is built from.
type Settings struct {
	LogName   string
	ViewIDs   []string
	Providers []providers.PendingRecord
}

// SessionSource supplies the settings of a new session. ok is false when the
// user cancelled.
type SessionSource interface {
	SessionSettings() (s Settings, ok bool, err error)
}

// ProviderSource supplies provider configurations for a running session.
type ProviderSource interface {
	ProviderSettings() (pending []providers.PendingRecord, ok bool, err error)
}

// Static replays a fixed payload. A Static with Cancelled set reports a
// cancellation.
type Static struct {
	Settings  Settings
	Cancelled bool
}

// SessionSettings implements SessionSource.
func (s Static) SessionSettings() (Settings, bool, error) {
	if s.Cancelled {
		return Settings{}, false, nil
	}
	return s.Settings, true, nil
}

// ProviderSettings implements ProviderSource.
func (s Static) ProviderSettings() ([]providers.PendingRecord, bool, error) {
	if s.Cancelled {
		return nil, false, nil
	}
	return s.Settings.Providers, true, nil
}

// SessionFunc adapts a function to SessionSource.
type SessionFunc func() (Settings, bool, error)

// SessionSettings implements SessionSource.
func (f SessionFunc) SessionSettings() (Settings, bool, error) { return f() }
