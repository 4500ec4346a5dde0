package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/archive"
	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/prefs"
	"github.com/five82/lookout/internal/session"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/ui"
)

// Options configure the lookout application.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses the config's prefs_path
	SessionPath string // session file opened at start, optional
	SetupPath   string // TOML or YAML setup file for a new session, optional
	PollEvery   time.Duration
}

// Run boots the lookout TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logFile)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = cfg.PrefsPath
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("load preferences", "path", prefsPath, "err", err)
	}

	sessions, err := NewSessions(cfg, userPrefs, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Error("close session", "err", err)
		}
	}()

	switch {
	case opts.SessionPath != "":
		if err := sessions.Load(opts.SessionPath); err != nil {
			return fmt.Errorf("open session: %w", err)
		}
	case opts.SetupPath != "":
		if err := sessions.New(setup.FileSource{Path: opts.SetupPath}); err != nil {
			return fmt.Errorf("new session: %w", err)
		}
	}

	// current is the logger the UI shows; the poller counts its entries.
	var current atomic.Value
	current.Store("")

	p := ui.NewProgram(ui.Options{
		Context:   ctx,
		Sessions:  sessions,
		Config:    &cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    logger.WithPrefix("ui"),
		OnLogger:  func(name string) { current.Store(name) },
	})

	if cfg.ArchivePath != "" {
		stats, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			logger.Warn("archive stats unavailable", "path", cfg.ArchivePath, "err", err)
		} else {
			defer stats.Close()
			poll := archiveStats(stats, func() string { return current.Load().(string) }, func(msg ui.ArchiveStatsMsg) { p.Send(msg) })
			StartPoller(ctx, opts.PollEvery, poll, logger.WithPrefix("poller"))
		}
	}

	logger.Info("lookout started", "config", opts.ConfigPath, "session", opts.SessionPath)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// archiveStats returns a poll function that counts the archived entries of
// the logger named by current and hands the result to send. Nothing is
// counted while no session runs.
func archiveStats(a *archive.Archive, current func() string, send func(ui.ArchiveStatsMsg)) func(context.Context) error {
	return func(ctx context.Context) error {
		name := current()
		if name == "" {
			return nil
		}
		n, err := a.Count(ctx, name)
		send(ui.ArchiveStatsMsg{Logger: name, Count: n, Err: err})
		return err
	}
}

// NewSessions builds the session manager for cfg. Sessions write through to
// the SQLite archive unless it is disabled.
func NewSessions(cfg config.Config, userPrefs prefs.Prefs, logger *log.Logger) (*session.Manager, error) {
	opts := session.Options{
		Logger:      logger.WithPrefix("session"),
		BufferSize:  cfg.BufferSize,
		Preferences: userPrefs.Session(),
	}
	if cfg.ArchivePath != "" {
		path := cfg.ArchivePath
		opts.NewLogWriter = func() (logs.Writer, error) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create archive dir: %w", err)
			}
			return archive.Open(path)
		}
	}
	sessions, err := session.NewManager(opts)
	if err != nil {
		return nil, fmt.Errorf("init sessions: %w", err)
	}
	return sessions, nil
}

// openLogFile opens the diagnostics log for appending, creating its
// directory. The terminal belongs to the UI, so diagnostics never go there.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
