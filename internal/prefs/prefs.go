// Package prefs handles lookout user preferences persistence.
// Preferences are stored in ~/.config/lookout/prefs.toml and seed the
// UserPreferences of every new session.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/lookout/internal/services"
)

// Prefs holds user preferences for lookout.
type Prefs struct {
	Theme               string `toml:"theme"`
	UseUTC              bool   `toml:"use_utc"`
	TimeFormat          string `toml:"time_format"`
	AutoScroll          *bool  `toml:"auto_scroll,omitempty"`
	ShowClassifications bool   `toml:"show_classifications"`
}

const (
	defaultPrefsPath = "~/.config/lookout/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Session returns the UserPreferences a new session starts with.
func (p Prefs) Session() services.UserPreferences {
	up := *services.NewUserPreferences(p.Theme)
	up.UseUTC = p.UseUTC
	up.ShowClassifications = p.ShowClassifications
	if strings.TrimSpace(p.TimeFormat) != "" {
		up.TimeFormat = p.TimeFormat
	}
	if p.AutoScroll != nil {
		up.AutoScroll = *p.AutoScroll
	}
	return up
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. A missing, unreadable or malformed file
// yields the defaults; preferences never stop lookout from starting.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return defaults(), nil
	}

	p := defaults()
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults(), nil
	}
	return p.normalize(), nil
}

// Save writes p to path through a temp file in the same directory, so an
// interrupted write leaves the previous preferences intact.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.TimeFormat = strings.TrimSpace(p.TimeFormat)
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
