package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lookout/internal/logs"
	"github.com/five82/lookout/internal/providers"
	"github.com/five82/lookout/internal/views"
)

func TestWizardCollect_SessionWithProvider(t *testing.T) {
	w := newWizardModal(wizardSession, views.TableID, nil)
	w.inputs[fieldName].SetValue("Prod")
	w.inputs[fieldHost].SetValue("10.1.2.3")
	w.inputs[fieldPort].SetValue("5140")

	s, err := w.collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if s.LogName != "Prod" || len(s.ViewIDs) != 1 || s.ViewIDs[0] != views.TableID {
		t.Fatalf("settings = %+v", s)
	}
	if len(s.Providers) != 1 {
		t.Fatalf("providers = %d, want 1", len(s.Providers))
	}
	ns, ok := s.Providers[0].Settings.(*providers.NetworkSettings)
	if !ok {
		t.Fatalf("settings type = %T, want *providers.NetworkSettings", s.Providers[0].Settings)
	}
	if ns.Host != "10.1.2.3" || ns.Port != 5140 || ns.Protocol != "udp" {
		t.Fatalf("network settings = %+v", ns)
	}
}

func TestWizardCollect_SessionWithoutPort(t *testing.T) {
	w := newWizardModal(wizardSession, "", nil)
	w.inputs[fieldName].SetValue("local")

	s, err := w.collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(s.Providers) != 0 || len(s.ViewIDs) != 0 {
		t.Fatalf("settings = %+v, want no providers and no views", s)
	}
}

func TestWizardCollect_Errors(t *testing.T) {
	w := newWizardModal(wizardSession, "", func(string) error { return logs.ErrEmptyName })
	if _, err := w.collect(); !errors.Is(err, logs.ErrEmptyName) {
		t.Fatalf("collect err = %v, want ErrEmptyName", err)
	}

	w = newWizardModal(wizardProvider, "", nil)
	if _, err := w.collect(); !errors.Is(err, errPortRequired) {
		t.Fatalf("collect err = %v, want errPortRequired", err)
	}
	w.inputs[fieldPort].SetValue("http")
	if _, err := w.collect(); !errors.Is(err, errBadPort) {
		t.Fatalf("collect err = %v, want errBadPort", err)
	}
	w.inputs[fieldPort].SetValue("70000")
	if _, err := w.collect(); err == nil {
		t.Fatal("collect accepted an out of range port")
	}
	w.inputs[fieldPort].SetValue("5000")
	w.inputs[fieldKind].SetValue("carrier-pigeon")
	if _, err := w.collect(); !errors.Is(err, providers.ErrUnknownProvider) {
		t.Fatalf("collect err = %v, want ErrUnknownProvider", err)
	}
}

func TestWizardFocusWraps(t *testing.T) {
	w := newWizardModal(wizardProvider, "", nil)
	if w.focus != fieldKind {
		t.Fatalf("initial focus = %d, want %d", w.focus, fieldKind)
	}
	w.move(-1)
	if w.focus != fieldProtocol {
		t.Fatalf("focus after wrap = %d, want %d", w.focus, fieldProtocol)
	}
	w.move(1)
	if w.focus != fieldKind {
		t.Fatalf("focus = %d, want %d", w.focus, fieldKind)
	}
}

func TestPromptModal(t *testing.T) {
	keys := DefaultKeyMap()
	p := newPromptModal("Open", promptOpen, "")

	_, cmd, done := p.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys)
	if done || cmd != nil || p.err == "" {
		t.Fatalf("empty prompt confirmed: done=%v err=%q", done, p.err)
	}

	p.input.SetValue(" /tmp/a.session ")
	_, cmd, done = p.Update(tea.KeyMsg{Type: tea.KeyEnter}, keys)
	if !done || cmd == nil {
		t.Fatal("prompt did not confirm")
	}
	msg, ok := cmd().(promptResultMsg)
	if !ok || msg.path != "/tmp/a.session" || msg.action != promptOpen {
		t.Fatalf("result = %+v", msg)
	}

	_, cmd, done = newPromptModal("Open", promptOpen, "x").Update(tea.KeyMsg{Type: tea.KeyEsc}, keys)
	if !done || cmd != nil {
		t.Fatal("escape did not cancel the prompt")
	}
}
