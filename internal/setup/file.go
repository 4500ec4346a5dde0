package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/lookout/internal/providers"
)

// ErrUnsupportedFormat indicates a setup file with an unknown extension.
var ErrUnsupportedFormat = errors.New("setup: unsupported file format")

// Provider kinds accepted in setup files.
const (
	ProviderNetwork     = "network"
	ProviderUDPAppender = "udp-appender"
)

type fileProvider struct {
	Kind     string `toml:"kind" yaml:"kind"`
	Name     string `toml:"name" yaml:"name"`
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	Protocol string `toml:"protocol" yaml:"protocol"`
}

type fileSettings struct {
	Name      string         `toml:"name" yaml:"name"`
	Views     []string       `toml:"views" yaml:"views"`
	Providers []fileProvider `toml:"providers" yaml:"providers"`
}

// FileSource reads session settings from a .toml, .yaml or .yml file:
//
//	name = "Prod"
//	views = ["lookout.view.table"]
//
//	[[providers]]
//	kind = "network"
//	name = "prod-net"
//	host = "0.0.0.0"
//	port = 5000
//	protocol = "tcp"
type FileSource struct {
	Path string
	// Validate, when set, checks the logger name before it is returned.
	Validate func(name string) error
}

// SessionSettings implements SessionSource.
func (f FileSource) SessionSettings() (Settings, bool, error) {
	raw, err := f.read()
	if err != nil {
		return Settings{}, false, err
	}
	if f.Validate != nil {
		if err := f.Validate(raw.Name); err != nil {
			return Settings{}, false, err
		}
	}
	pending, err := convertProviders(raw.Providers)
	if err != nil {
		return Settings{}, false, err
	}
	return Settings{LogName: strings.TrimSpace(raw.Name), ViewIDs: raw.Views, Providers: pending}, true, nil
}

// ProviderSettings implements ProviderSource.
func (f FileSource) ProviderSettings() ([]providers.PendingRecord, bool, error) {
	raw, err := f.read()
	if err != nil {
		return nil, false, err
	}
	pending, err := convertProviders(raw.Providers)
	if err != nil {
		return nil, false, err
	}
	return pending, true, nil
}

func (f FileSource) read() (fileSettings, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fileSettings{}, fmt.Errorf("read setup file: %w", err)
	}
	var raw fileSettings
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return fileSettings{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Path)
	}
	if err != nil {
		return fileSettings{}, fmt.Errorf("parse setup file: %w", err)
	}
	return raw, nil
}

func convertProviders(in []fileProvider) ([]providers.PendingRecord, error) {
	out := make([]providers.PendingRecord, 0, len(in))
	for i, p := range in {
		s, err := NewProviderSettings(p.Kind, p.Name, p.Host, p.Port, p.Protocol)
		if err != nil {
			return nil, fmt.Errorf("provider %d: %w", i+1, err)
		}
		out = append(out, providers.Pending(s))
	}
	return out, nil
}

// NewProviderSettings builds validated settings for a provider kind as it
// is named in setup files and the wizard.
func NewProviderSettings(kind, name, host string, port int, protocol string) (providers.Settings, error) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s:%d", host, port)
	}
	var s providers.Settings
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ProviderNetwork, "":
		s = providers.NewNetworkSettings(name, host, port, protocol)
	case ProviderUDPAppender:
		s = providers.NewUDPAppenderSettings(name, host, port)
	default:
		return nil, fmt.Errorf("%w: %q", providers.ErrUnknownProvider, kind)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
