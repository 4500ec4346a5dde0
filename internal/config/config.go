package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds lookout's application settings.
type Config struct {
	SessionDir  string
	LogFile     string
	LogLevel    string
	LogFormat   string
	ArchivePath string
	PrefsPath   string
	BufferSize  int
}

const (
	defaultConfigPath  = "~/.config/lookout/config.toml"
	defaultDataDir     = "~/.local/share/lookout"
	defaultSessionDir  = defaultDataDir + "/sessions"
	defaultLogFile     = defaultDataDir + "/lookout.log"
	defaultArchivePath = defaultDataDir + "/archive.db"
	defaultPrefsPath   = "~/.config/lookout/prefs.toml"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultBufferSize  = 5000
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SessionDir:  mustExpand(defaultSessionDir),
		LogFile:     mustExpand(defaultLogFile),
		LogLevel:    defaultLogLevel,
		LogFormat:   defaultLogFormat,
		ArchivePath: mustExpand(defaultArchivePath),
		PrefsPath:   mustExpand(defaultPrefsPath),
		BufferSize:  defaultBufferSize,
	}
}

// Load locates and parses the lookout config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		SessionDir  string `toml:"session_dir"`
		LogFile     string `toml:"log_file"`
		LogLevel    string `toml:"log_level"`
		LogFormat   string `toml:"log_format"`
		ArchivePath string `toml:"archive_path"`
		PrefsPath   string `toml:"prefs_path"`
		BufferSize  int    `toml:"buffer_size"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.SessionDir = pathOr(raw.SessionDir, defaultSessionDir)
	cfg.LogFile = pathOr(raw.LogFile, defaultLogFile)
	cfg.PrefsPath = pathOr(raw.PrefsPath, defaultPrefsPath)

	// "off" disables the archive.
	switch archive := strings.TrimSpace(raw.ArchivePath); {
	case strings.EqualFold(archive, "off"):
		cfg.ArchivePath = ""
	case archive != "":
		cfg.ArchivePath = mustExpand(archive)
	}

	if level := strings.ToLower(strings.TrimSpace(raw.LogLevel)); level != "" {
		cfg.LogLevel = level
	}
	switch format := strings.ToLower(strings.TrimSpace(raw.LogFormat)); format {
	case "":
	case "text", "json", "logfmt":
		cfg.LogFormat = format
	default:
		return Config{}, fmt.Errorf("parse config: unknown log_format %q", raw.LogFormat)
	}
	if raw.BufferSize < 0 {
		return Config{}, fmt.Errorf("parse config: buffer_size must not be negative")
	}
	if raw.BufferSize > 0 {
		cfg.BufferSize = raw.BufferSize
	}

	return cfg, nil
}

// SessionPath returns where a session named name is stored by default.
func (c Config) SessionPath(name string) string {
	dir := c.SessionDir
	if strings.TrimSpace(dir) == "" {
		dir = mustExpand(defaultSessionDir)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return filepath.Join(dir, name+".session")
}

func pathOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return mustExpand(trimmed)
	}
	return mustExpand(fallback)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
