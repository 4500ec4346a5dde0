package ui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/prefs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/session"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/views"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	sessions, err := session.NewManager(session.Options{
		NewProviderManager: func(l *log.Logger) *providers.Manager { return providers.NewEmptyManager(l) },
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	m := New(Options{
		Sessions:  sessions,
		Prefs:     prefs.Prefs{Theme: "Slate"},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func startSession(t *testing.T, m Model, name string) Model {
	t.Helper()
	m = update(t, m, wizardResultMsg{mode: wizardSession, settings: setup.Settings{LogName: name, ViewIDs: []string{views.TableID, views.DetailID}}})
	if m.sessions.Name() != name {
		t.Fatalf("session name = %q, want %q (status %q)", m.sessions.Name(), name, m.status)
	}
	return m
}

func TestModel_FreshView(t *testing.T) {
	m := newTestModel(t)
	if m.theme.Name != "Slate" {
		t.Fatalf("theme = %q, want Slate", m.theme.Name)
	}
	if len(m.rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(m.rows))
	}
	if v := m.View(); v == "" || v == "Loading..." {
		t.Fatalf("View = %q", v)
	}
}

func TestModel_WizardStartsSessionAndShowsEntries(t *testing.T) {
	m := newTestModel(t)
	m = startSession(t, m, "app")

	if err := m.sessions.Logger().Add(
		logs.Entry{Type: "INFO", Description: "hello"},
		logs.Entry{Type: "ERROR", Description: "boom"},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	m = update(t, m, tickMsg{})
	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1 while following", m.cursor)
	}
}

func TestModel_SearchFilterHidesMatches(t *testing.T) {
	m := newTestModel(t)
	m = startSession(t, m, "app")
	_ = m.sessions.Logger().Add(
		logs.Entry{Type: "INFO", Description: "keep me"},
		logs.Entry{Type: "INFO", Description: "drop me"},
	)
	m = update(t, m, tickMsg{})

	m = update(t, m, keyRunes("m")) // highlight -> filter
	if m.target != searchFilter {
		t.Fatalf("target = %v, want filter", m.target)
	}
	m = update(t, m, keyRunes("/"))
	if !m.searching {
		t.Fatal("search box not open")
	}
	m = update(t, m, keyRunes("drop"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.rows) != 1 || m.rows[0].entry.Description != "keep me" {
		t.Fatalf("rows = %+v, want only keep me", m.rows)
	}
	if !m.sessions.IsDirty() {
		t.Fatal("changing the search filter should dirty the session")
	}

	m = update(t, m, keyRunes("c"))
	if len(m.rows) != 2 {
		t.Fatalf("rows after clear = %d, want 2", len(m.rows))
	}
}

func TestModel_SaveAndOpen(t *testing.T) {
	m := newTestModel(t)
	m = startSession(t, m, "saved")
	path := filepath.Join(t.TempDir(), "saved.session")

	m = update(t, m, promptResultMsg{action: promptSaveAs, path: path})
	if m.statusErr || !m.sessions.IsSaved() {
		t.Fatalf("save failed: %q", m.status)
	}

	m = startSession(t, m, "other")
	m = update(t, m, promptResultMsg{action: promptOpen, path: path})
	if m.statusErr {
		t.Fatalf("open failed: %q", m.status)
	}
	if m.sessions.Name() != "saved" || m.sessions.Path() != path {
		t.Fatalf("session = %q at %q", m.sessions.Name(), m.sessions.Path())
	}
	if m.registry != m.sessions.Registry() {
		t.Fatal("model did not rebind to the loaded registry")
	}
}

func TestModel_OpenMissingFileReportsError(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, promptResultMsg{action: promptOpen, path: filepath.Join(t.TempDir(), "missing.session")})
	if !m.statusErr {
		t.Fatal("expected an error status")
	}
}

func TestModel_AddProviderNeedsSession(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, keyRunes("a"))
	if m.modal != nil || !m.statusErr {
		t.Fatal("provider wizard opened without a session")
	}

	m = startSession(t, m, "app")
	m = update(t, m, keyRunes("a"))
	if _, ok := m.modal.(*wizardModal); !ok {
		t.Fatalf("modal = %T, want provider wizard", m.modal)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != nil {
		t.Fatal("escape did not close the wizard")
	}
}

func TestModel_ExportWritesEntries(t *testing.T) {
	m := newTestModel(t)
	m = startSession(t, m, "app")
	_ = m.sessions.Logger().Add(logs.Entry{Type: "INFO", Description: "one"})

	path := filepath.Join(t.TempDir(), "out", "app.log")
	m = update(t, m, promptResultMsg{action: promptExport, path: path})
	if m.statusErr {
		t.Fatalf("export failed: %q", m.status)
	}
}

func TestModel_CycleViewAndHelp(t *testing.T) {
	m := newTestModel(t)
	m = startSession(t, m, "app")
	if m.currentViewID() != views.TableID {
		t.Fatalf("view = %q, want table", m.currentViewID())
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.currentViewID() != views.DetailID {
		t.Fatalf("view = %q, want detail", m.currentViewID())
	}

	m = update(t, m, keyRunes("?"))
	if !m.showHelp {
		t.Fatal("help not shown")
	}
	m = update(t, m, keyRunes("x"))
	if m.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestModel_ValidateName(t *testing.T) {
	m := newTestModel(t)
	if err := m.validateName("  "); err == nil {
		t.Fatal("blank name accepted")
	}
	if err := m.validateName("fine"); err != nil {
		t.Fatalf("validateName: %v", err)
	}
}

func TestModel_ArchiveStatsFollowLogger(t *testing.T) {
	var reported []string
	m := newTestModel(t)
	m.onLogger = func(name string) { reported = append(reported, name) }

	m = startSession(t, m, "app")
	m = update(t, m, tickMsg(time.Now()))
	if len(reported) != 1 || reported[0] != "app" {
		t.Fatalf("reported = %q, want [app]", reported)
	}

	m = update(t, m, ArchiveStatsMsg{Logger: "other", Count: 7})
	if m.hasArch {
		t.Fatalf("count of another logger was shown")
	}
	m = update(t, m, ArchiveStatsMsg{Logger: "app", Count: 3})
	if !m.hasArch || m.archived != 3 {
		t.Fatalf("archived = %d (has=%v), want 3", m.archived, m.hasArch)
	}

	m = startSession(t, m, "api")
	m = update(t, m, tickMsg(time.Now()))
	if m.hasArch || m.archived != 0 {
		t.Fatalf("archived = %d (has=%v) after switching logger", m.archived, m.hasArch)
	}
	if len(reported) != 2 || reported[1] != "api" {
		t.Fatalf("reported = %q, want [app api]", reported)
	}
}

func TestModel_ArchiveStats(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, ArchiveStatsMsg{Count: 42})
	if !m.hasArch || m.archived != 42 {
		t.Fatalf("archived = %d (has=%v)", m.archived, m.hasArch)
	}
}
