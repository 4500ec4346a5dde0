package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lookout/internal/views"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.currentViewID() == views.DetailID {
		b.WriteString(m.detail.View())
	} else {
		b.WriteString(m.renderTable())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// renderHeader shows the session name, its save state and entry counts.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	name := m.sessions.Name()
	if p := m.sessions.Path(); p != "" {
		name += " (" + truncateMiddle(p, 40) + ")"
	}
	parts := []string{
		bg.Render("lookout", styles.Logo),
		bg.Render(name, styles.Text.Bold(true)),
	}

	switch {
	case m.sessions.IsFresh():
		parts = append(parts, bg.Render("no session", styles.MutedText))
	case m.sessions.IsSaved():
		parts = append(parts, bg.Render("saved", styles.SuccessText))
	case m.sessions.IsDirty():
		parts = append(parts, bg.Render("modified", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("unsaved", styles.WarningText))
	}

	if l := m.sessions.Logger(); l != nil {
		snap := l.Snapshot()
		parts = append(parts, bg.Render(fmt.Sprintf("%d/%d shown", len(m.rows), len(snap.Items)), styles.InfoText))
		if snap.Dropped > 0 {
			parts = append(parts, bg.Render(fmt.Sprintf("%d dropped", snap.Dropped), styles.FaintText))
		}
	}
	if n := len(m.sessions.ProviderSettings()); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d provider(s)", n), styles.AccentText))
	}
	if m.follow {
		parts = append(parts, bg.Render("follow", styles.AccentText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// renderCommandBar shows the most used keys, or the search box.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	if m.searching {
		label := bg.Render("search ("+m.target.String()+")", styles.AccentText)
		return bg.FillLine(label+bg.Spaces(1)+m.searchInput.View(), m.width)
	}

	items := []struct{ key, desc string }{
		{"n", "new"},
		{"^o", "open"},
		{"^s", "save"},
		{"a", "provider"},
		{"/", "search"},
		{"m", m.target.String()},
		{"tab", "view"},
		{"?", "help"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, bg.Render(it.key, styles.WarningText)+bg.Spaces(1)+bg.Render(it.desc, styles.MutedText))
	}
	if p := m.searchPattern(); p != "" {
		parts = append(parts, bg.Render("["+p+"]", styles.InfoText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

// renderTable renders the visible window of rows.
func (m Model) renderTable() string {
	h := m.bodyHeight()
	styles := m.theme.Styles()
	lines := make([]string, 0, h)

	if len(m.rows) == 0 {
		msg := "No entries yet"
		if m.sessions.Logger() == nil {
			msg = "No session. Press n to start one or ctrl+o to open a file."
		}
		lines = append(lines, styles.MutedText.Render(msg))
	}

	end := m.offset + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row, selected bool) string {
	styles := m.theme.Styles()
	text := truncate(m.pipe.formatRow(r), m.width)

	style := styles.LevelStyle(r.entry.Type)
	if r.lit {
		style = highlightStyle(style, r.style)
	}
	if selected {
		style = style.Background(lipgloss.Color(m.theme.SelectionBg))
		return style.Width(m.width).Render(text)
	}
	return style.Render(text)
}

// renderDetail renders every field of an entry.
func (m Model) renderDetail(r row) string {
	styles := m.theme.Styles()
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Muted)).Width(16)

	var b strings.Builder
	field := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(label.Render(name))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(styles.LevelStyle(r.entry.Type).Render(m.pipe.formatRow(r)))
	b.WriteString("\n\n")
	field("Time", r.entry.Time.Format("2006-01-02 15:04:05.000 MST"))
	field("Type", r.entry.Type)
	field("System", r.entry.System)
	field("Thread", r.entry.Thread)
	field("Host", r.entry.Host)
	field("Source", r.entry.Source)
	field("Classification", r.entry.Classification)

	if len(r.entry.Metadata) > 0 {
		keys := make([]string, 0, len(r.entry.Metadata))
		for k := range r.entry.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Metadata"))
		b.WriteString("\n")
		for _, k := range keys {
			field(k, r.entry.Metadata[k])
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Description"))
	b.WriteString("\n")
	b.WriteString(styles.Text.Render(r.entry.Description))
	return b.String()
}

// renderStatus renders the last action result and the archive size.
func (m Model) renderStatus() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var parts []string
	if m.status != "" {
		style := styles.MutedText
		if m.statusErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.status, m.width/2), style))
	}
	if m.hasArch {
		if m.archErr != nil {
			parts = append(parts, bg.Render("archive unavailable", styles.WarningText))
		} else {
			parts = append(parts, bg.Render(fmt.Sprintf("%d archived", m.archived), styles.FaintText))
		}
	}
	if d, ok := m.currentView(); ok {
		parts = append(parts, bg.Render(d, styles.AccentText))
	}
	return styles.Footer.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) currentView() (string, bool) {
	switch m.currentViewID() {
	case views.DetailID:
		return "detail", true
	case views.TableID:
		return "table", true
	}
	return "", false
}
