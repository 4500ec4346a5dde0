package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/setup"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// promptAction tells the model what a confirmed path prompt is for.
type promptAction int

const (
	promptOpen promptAction = iota
	promptSaveAs
	promptExport
)

// promptResultMsg carries a confirmed path.
type promptResultMsg struct {
	action promptAction
	path   string
}

// promptModal asks for a single file path.
type promptModal struct {
	title  string
	action promptAction
	input  textinput.Model
	err    string
}

func newPromptModal(title string, action promptAction, value string) *promptModal {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "path"
	in.CharLimit = 4096
	in.Width = 50
	in.SetValue(value)
	in.Focus()
	return &promptModal{title: title, action: action, input: in}
}

func (p *promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return p, nil, true
		case key.Matches(km, keys.Confirm):
			path := strings.TrimSpace(p.input.Value())
			if path == "" {
				p.err = "a path is required"
				return p, nil, false
			}
			result := promptResultMsg{action: p.action, path: path}
			return p, func() tea.Msg { return result }, true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.err = ""
	return p, cmd, false
}

func (p *promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.title))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	if p.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.DangerText.Render(p.err))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter confirm · esc cancel"))
	return placeModal(theme, width, height, 60, b.String())
}

// wizardMode selects which settings the wizard collects.
type wizardMode int

const (
	wizardSession wizardMode = iota
	wizardProvider
)

// wizardResultMsg carries the settings collected by a wizard. Cancelled
// wizards produce no message.
type wizardResultMsg struct {
	mode     wizardMode
	settings setup.Settings
}

var (
	errPortRequired = errors.New("a port is required")
	errBadPort      = errors.New("port must be a number")
)

// wizard field indexes
const (
	fieldName = iota
	fieldViews
	fieldKind
	fieldHost
	fieldPort
	fieldProtocol
	fieldCount
)

var fieldLabels = [fieldCount]string{"Log name", "Views", "Provider", "Host", "Port", "Protocol"}

// wizardModal collects new session settings, or provider settings for the
// running session.
type wizardModal struct {
	mode     wizardMode
	inputs   [fieldCount]textinput.Model
	focus    int
	validate func(string) error
	err      string
}

func newWizardModal(mode wizardMode, defaultView string, validate func(string) error) *wizardModal {
	w := &wizardModal{mode: mode, validate: validate}
	values := [fieldCount]string{"", defaultView, setup.ProviderNetwork, "", "", "udp"}
	placeholders := [fieldCount]string{
		"session log name",
		"comma-separated view ids",
		setup.ProviderNetwork + " | " + setup.ProviderUDPAppender,
		"bind address, empty for all",
		"port, empty for no provider",
		"udp | tcp",
	}
	for i := range w.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 256
		in.Width = 36
		in.SetValue(values[i])
		w.inputs[i] = in
	}
	w.focus = w.first()
	w.inputs[w.focus].Focus()
	return w
}

// first is the first field shown in the wizard's mode.
func (w *wizardModal) first() int {
	if w.mode == wizardProvider {
		return fieldKind
	}
	return fieldName
}

func (w *wizardModal) move(delta int) {
	w.inputs[w.focus].Blur()
	span := fieldCount - w.first()
	w.focus = w.first() + ((w.focus-w.first()+delta)%span+span)%span
	w.inputs[w.focus].Focus()
}

func (w *wizardModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return w, nil, true
		case key.Matches(km, keys.Confirm):
			settings, err := w.collect()
			if err != nil {
				w.err = err.Error()
				return w, nil, false
			}
			result := wizardResultMsg{mode: w.mode, settings: settings}
			return w, func() tea.Msg { return result }, true
		case key.Matches(km, keys.NextItem):
			w.move(1)
			return w, nil, false
		case key.Matches(km, keys.PrevItem):
			w.move(-1)
			return w, nil, false
		}
	}
	var cmd tea.Cmd
	w.inputs[w.focus], cmd = w.inputs[w.focus].Update(msg)
	w.err = ""
	return w, cmd, false
}

// collect validates the inputs and converts them to settings.
func (w *wizardModal) collect() (setup.Settings, error) {
	var s setup.Settings
	if w.mode == wizardSession {
		s.LogName = strings.TrimSpace(w.inputs[fieldName].Value())
		if w.validate != nil {
			if err := w.validate(s.LogName); err != nil {
				return s, err
			}
		}
		for _, id := range strings.Split(w.inputs[fieldViews].Value(), ",") {
			if id = strings.TrimSpace(id); id != "" {
				s.ViewIDs = append(s.ViewIDs, id)
			}
		}
	}

	portText := strings.TrimSpace(w.inputs[fieldPort].Value())
	if portText == "" {
		if w.mode == wizardProvider {
			return s, errPortRequired
		}
		return s, nil
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		return s, errBadPort
	}
	ps, err := setup.NewProviderSettings(
		strings.TrimSpace(w.inputs[fieldKind].Value()),
		"",
		strings.TrimSpace(w.inputs[fieldHost].Value()),
		port,
		strings.TrimSpace(w.inputs[fieldProtocol].Value()),
	)
	if err != nil {
		return s, err
	}
	s.Providers = []providers.PendingRecord{providers.Pending(ps)}
	return s, nil
}

func (w *wizardModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	title := "New session"
	if w.mode == wizardProvider {
		title = "Add provider"
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Width(10)
	focusLabel := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent)).Bold(true).Width(10)
	for i := w.first(); i < fieldCount; i++ {
		if i == w.focus {
			b.WriteString(focusLabel.Render(fieldLabels[i]))
		} else {
			b.WriteString(labelStyle.Render(fieldLabels[i]))
		}
		b.WriteString(" ")
		b.WriteString(w.inputs[i].View())
		b.WriteString("\n")
	}
	if w.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(w.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("tab next · enter confirm · esc cancel"))
	return placeModal(theme, width, height, 60, b.String())
}

// placeModal centers content in a bordered box.
func placeModal(theme Theme, width, height, boxWidth int, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
