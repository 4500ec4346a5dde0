package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/five82/lookout/internal/config"
	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/prefs"
	"github.com/five82/lookout/internal/registry"
	"github.com/five82/lookout/internal/services"
	"github.com/five82/lookout/internal/session"
	"github.com/five82/lookout/internal/setup"
	"github.com/five82/lookout/internal/views"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Sessions  *session.Manager
	Config    *config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	PollTick  time.Duration
	Logger    *log.Logger
	// OnLogger is called on the UI goroutine whenever the session logger
	// changes. The name is empty while no session runs.
	OnLogger func(name string)
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	sessions  *session.Manager
	config    *config.Config
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	log       *log.Logger
	keys      keyMap
	onLogger  func(string)

	// UI state
	theme  Theme
	width  int
	height int
	ready  bool

	// Entry state
	pipe     pipeline
	registry *registry.Registry
	logName  string
	rows     []row
	version  uint64
	stale    bool
	cursor   int
	offset   int
	follow   bool
	detail   viewport.Model

	// Search
	searchInput textinput.Model
	searching   bool
	target      searchTarget

	// Overlays
	modal    Modal
	showHelp bool

	// Status line
	status    string
	statusErr bool
	archived  int
	archErr   error
	hasArch   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 250 * time.Millisecond
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	search := textinput.New()
	search.Prompt = "/"
	search.CharLimit = 256

	m := Model{
		ctx:         ctx,
		sessions:    opts.Sessions,
		config:      opts.Config,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		log:         logger,
		keys:        DefaultKeyMap(),
		onLogger:    opts.OnLogger,
		theme:       GetTheme(opts.Prefs.Theme),
		searchInput: search,
		stale:       true,
	}
	m.bindSession()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.pollTick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detail = viewport.New(msg.Width, m.bodyHeight())
		}
		m.ready = true
		m.detail.Width = msg.Width
		m.detail.Height = m.bodyHeight()
		m.refresh(true)
		return m, nil

	case tickMsg:
		select {
		case <-m.ctx.Done():
			return m, tea.Quit
		default:
		}
		m.refresh(false)
		return m, tickCmd(m.pollTick)

	case ArchiveStatsMsg:
		if msg.Logger != m.logName {
			return m, nil
		}
		m.hasArch = true
		m.archErr = msg.Err
		if msg.Err == nil {
			m.archived = msg.Count
		}
		return m, nil

	case promptResultMsg:
		m.handlePrompt(msg)
		return m, nil

	case wizardResultMsg:
		m.handleWizard(msg)
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var done bool
		m.modal, cmd, done = m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var done bool
		m.modal, cmd, done = m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		}
		return m, cmd
	}

	if m.searching {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.CycleView):
		m.cycleView()

	case key.Matches(msg, m.keys.NewSession):
		m.modal = newWizardModal(wizardSession, m.defaultViewID(), m.validateName)
	case key.Matches(msg, m.keys.AddProvider):
		if m.sessions.Logger() == nil {
			m.setError(fmt.Errorf("start or open a session first"))
			break
		}
		m.modal = newWizardModal(wizardProvider, "", nil)
	case key.Matches(msg, m.keys.Open):
		m.modal = newPromptModal("Open session", promptOpen, m.sessions.Path())
	case key.Matches(msg, m.keys.Save):
		if m.sessions.Path() == "" {
			m.modal = newPromptModal("Save session", promptSaveAs, m.suggestedPath())
			break
		}
		m.save(m.sessions.Path())
	case key.Matches(msg, m.keys.SaveAs):
		m.modal = newPromptModal("Save session as", promptSaveAs, m.suggestedPath())
	case key.Matches(msg, m.keys.Export):
		if m.sessions.Logger() == nil {
			m.setError(fmt.Errorf("nothing to export"))
			break
		}
		m.modal = newPromptModal("Export entries", promptExport, m.sessions.Name()+".log")

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.searchPattern())
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.SearchTarget):
		m.cycleSearchTarget()
	case key.Matches(msg, m.keys.ClearSearch):
		m.clearSearch()
	case key.Matches(msg, m.keys.ClearLog):
		if l := m.sessions.Logger(); l != nil {
			l.Clear()
			m.setStatus("entries cleared")
		}
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.moveCursor(len(m.rows))
		}

	default:
		m.handleNavigation(msg)
	}
	return m, nil
}

func (m *Model) handleNavigation(msg tea.KeyMsg) {
	page := m.bodyHeight()
	if m.currentViewID() == views.DetailID &&
		key.Matches(msg, m.keys.PageUp, m.keys.PageDown, m.keys.HalfPageUp, m.keys.HalfPageDown) {
		m.detail, _ = m.detail.Update(msg)
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(m.cursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.cursor + 1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(0)
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.rows))
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(m.cursor - page)
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.cursor + page)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.moveCursor(m.cursor - page/2)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.moveCursor(m.cursor + page/2)
	}
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.searchInput.Blur()
		if s := m.pipe.search(m.target); s != nil {
			s.SetPattern(strings.TrimSpace(m.searchInput.Value()))
			m.stale = true
			m.refresh(false)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePrompt(msg promptResultMsg) {
	switch msg.action {
	case promptOpen:
		if err := m.sessions.Load(msg.path); err != nil {
			m.setError(err)
			return
		}
		m.bindSession()
		m.setStatus("opened " + msg.path)
	case promptSaveAs:
		m.save(msg.path)
	case promptExport:
		exporter, err := registry.Resolve[logs.Exporter](m.sessions.Registry(), services.ExporterCap)
		if err != nil {
			m.setError(err)
			return
		}
		n, err := exporter.Export(m.sessions.Logger(), msg.path)
		if err != nil {
			m.setError(err)
			return
		}
		m.setStatus(fmt.Sprintf("exported %d entries to %s", n, msg.path))
	}
}

func (m *Model) handleWizard(msg wizardResultMsg) {
	s := setup.Static{Settings: msg.settings}
	switch msg.mode {
	case wizardSession:
		if err := m.sessions.New(s); err != nil {
			m.setError(err)
			m.bindSession()
			return
		}
		m.bindSession()
		m.setStatus("session " + m.sessions.Name() + " started")
	case wizardProvider:
		if err := m.sessions.AddProviders(s); err != nil {
			m.setError(err)
			return
		}
		m.setStatus(fmt.Sprintf("%d provider(s) added", len(msg.settings.Providers)))
	}
}

func (m *Model) save(path string) {
	if err := m.sessions.Save(path); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("saved " + path)
}

// bindSession re-resolves the display services after the session changed.
func (m *Model) bindSession() {
	m.registry = m.sessions.Registry()
	pipe, err := resolvePipeline(m.registry)
	if err != nil {
		m.log.Warn("display services unavailable", "err", err)
	}
	m.pipe = pipe
	if pipe.prefs != nil {
		if pipe.prefs.Theme != "" {
			m.theme = GetTheme(pipe.prefs.Theme)
		}
		m.follow = pipe.prefs.AutoScroll
	}
	m.rows = nil
	m.cursor = 0
	m.offset = 0
	m.version = 0
	m.stale = true
}

// refresh rebuilds the rows when new entries arrived or the display
// services changed.
func (m *Model) refresh(force bool) {
	if m.sessions.Registry() != m.registry {
		m.bindSession()
	}
	l := m.sessions.Logger()
	m.trackLogger(l)
	if l == nil {
		m.rows = nil
		return
	}
	snap := l.Snapshot()
	if !force && !m.stale && snap.Version == m.version {
		return
	}
	m.version = snap.Version
	m.stale = false
	m.rows = m.pipe.apply(snap.Items)
	if m.follow {
		m.moveCursor(len(m.rows))
	} else {
		m.moveCursor(m.cursor)
	}
}

// trackLogger forgets the archive count of a previous logger and reports the
// change.
func (m *Model) trackLogger(l *logs.Logger) {
	name := ""
	if l != nil {
		name = l.Name()
	}
	if name == m.logName {
		return
	}
	m.logName = name
	m.hasArch = false
	m.archived = 0
	m.archErr = nil
	if m.onLogger != nil {
		m.onLogger(name)
	}
}

// moveCursor clamps i into the row range and scrolls it into view.
func (m *Model) moveCursor(i int) {
	if i >= len(m.rows) {
		i = len(m.rows) - 1
	}
	if i < 0 {
		i = 0
	}
	m.cursor = i
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if h > 0 && m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if len(m.rows) > 0 {
		m.detail.SetContent(m.renderDetail(m.rows[m.cursor]))
	} else {
		m.detail.SetContent("")
	}
}

func (m *Model) cycleTheme() {
	name := NextTheme(m.theme.Name)
	m.theme = GetTheme(name)
	if m.pipe.prefs != nil {
		m.pipe.prefs.Theme = name
	}
	m.prefs.Theme = name
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn("save preferences", "path", m.prefsPath, "err", err)
	}
}

func (m *Model) cycleView() {
	frame, err := registry.Resolve[*views.Frame](m.sessions.Registry(), services.WindowFrameCap)
	if err != nil {
		return
	}
	if d, ok := frame.Cycle(); ok {
		m.setStatus("view " + d.Name)
	}
}

func (m *Model) cycleSearchTarget() {
	pattern := m.searchPattern()
	if s := m.pipe.search(m.target); s != nil && s.Active() {
		s.SetPattern("")
	}
	m.target = m.target.next()
	if s := m.pipe.search(m.target); s != nil && pattern != "" {
		s.SetPattern(pattern)
	}
	m.stale = true
	m.refresh(false)
	m.setStatus("search mode " + m.target.String())
}

func (m *Model) clearSearch() {
	if s := m.pipe.search(m.target); s != nil {
		s.SetPattern("")
	}
	m.searchInput.SetValue("")
	m.stale = true
	m.refresh(false)
}

func (m Model) searchPattern() string {
	switch m.target {
	case searchFilter:
		if m.pipe.searchFilter != nil {
			return m.pipe.searchFilter.Pattern
		}
	case searchExtract:
		if m.pipe.searchExtractor != nil {
			return m.pipe.searchExtractor.Pattern
		}
	default:
		if m.pipe.searchHighlighter != nil {
			return m.pipe.searchHighlighter.Pattern
		}
	}
	return ""
}

// validateName checks a new session's log name. A running session is torn
// down before the new logger exists, so only a Fresh session can clash.
func (m Model) validateName(name string) error {
	if m.sessions.IsFresh() {
		if lm, err := registry.Resolve[*logs.Manager](m.sessions.Registry(), services.LogManagerCap); err == nil {
			return lm.ValidateName(name)
		}
	}
	if logs.NormalizeName(name) == "" {
		return logs.ErrEmptyName
	}
	return nil
}

func (m Model) defaultViewID() string {
	vm, err := registry.Resolve[*views.Manager](m.sessions.Registry(), services.ViewManagerCap)
	if err != nil {
		return ""
	}
	if reg := vm.GetRegistered(); len(reg) > 0 {
		return reg[0].ID
	}
	return ""
}

func (m Model) currentViewID() string {
	frame, err := registry.Resolve[*views.Frame](m.sessions.Registry(), services.WindowFrameCap)
	if err != nil {
		return views.TableID
	}
	if d, ok := frame.Current(); ok {
		return d.ID
	}
	return views.TableID
}

func (m Model) suggestedPath() string {
	if p := m.sessions.Path(); p != "" {
		return p
	}
	if m.config != nil {
		return m.config.SessionPath(m.sessions.Name())
	}
	return m.sessions.Name() + ".session"
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.log.Warn("ui action failed", "err", err)
}

// bodyHeight is the number of lines left for entries after the header,
// command bar and status line.
func (m Model) bodyHeight() int {
	h := m.height - 3
	if h < 1 {
		return 1
	}
	return h
}

// Messages

type tickMsg time.Time

// ArchiveStatsMsg reports the number of archived entries of a logger. Counts
// for a logger the UI no longer shows are dropped.
type ArchiveStatsMsg struct {
	Logger string
	Count  int
	Err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NewProgram builds the Bubble Tea program. Callers may Send messages to it
// from other goroutines before and while it runs.
func NewProgram(opts Options) *tea.Program {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	return tea.NewProgram(m, progOpts...)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	_, err := NewProgram(opts).Run()
	return err
}
