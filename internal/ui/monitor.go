package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/device"
)

// monitorState holds the live session view.
type monitorState struct {
	viewport viewport.Model
	input    textinput.Model
	follow   bool

	// Content caching: skip re-render when unchanged.
	seen           time.Time
	contentVersion uint64
	lastRendered   uint64
}

func (m *Model) initMonitor() {
	ti := textinput.New()
	ti.Placeholder = "Type a line and press enter to send"
	ti.Prompt = "› "
	ti.CharLimit = SendCharLimit
	ti.Focus()

	m.monitor = monitorState{
		viewport:       viewport.New(0, 0),
		input:          ti,
		follow:         true,
		contentVersion: 1,
	}
}

// updateMonitorViewport sizes the viewport and refreshes its content when
// the snapshot or translations changed.
func (m *Model) updateMonitorViewport() {
	if !m.ready {
		return
	}
	// Header, command bar and the send line sit outside the box.
	m.monitor.viewport.Width = max(m.width-2, 0)
	m.monitor.viewport.Height = max(m.height-5, 0)
	m.monitor.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.monitor.input.Width = max(m.width-4, 1)

	if !m.snapshot.LastUpdated.Equal(m.monitor.seen) {
		m.monitor.seen = m.snapshot.LastUpdated
		m.monitor.contentVersion++
	}
	if m.monitor.contentVersion != m.monitor.lastRendered {
		m.monitor.viewport.SetContent(m.renderMonitorContent())
		m.monitor.lastRendered = m.monitor.contentVersion
	}
	if m.monitor.follow {
		m.monitor.viewport.GotoBottom()
	}
}

func (m Model) renderMonitorContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.monitor.viewport.Width

	if len(m.snapshot.Entries) == 0 {
		hint := "No lines yet. Press ctrl+o to connect over serial or ctrl+w for wireless."
		if m.snapshot.Connection == device.Connected {
			hint = "Connected. Waiting for the device..."
		}
		return bg.FillLine(bg.Render(hint, styles.MutedText), width)
	}

	var b strings.Builder
	if m.snapshot.Dropped > 0 {
		note := fmt.Sprintf("%d earlier lines not shown; see History", m.snapshot.Dropped)
		b.WriteString(bg.FillLine(bg.Render(note, styles.FaintText), width))
		b.WriteString("\n")
	}
	b.WriteString(m.renderEntries(m.snapshot.Entries, bg, width))
	return b.String()
}

// renderEntries renders exchanged lines with their translations.
func (m Model) renderEntries(entries []device.Entry, bg BgStyle, width int) string {
	styles := m.theme.Styles()
	translating := m.translating()
	indent := bg.Spaces(len("15:04:05 ") + 2)

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		dir := strings.ToLower(e.Direction.String())
		line := bg.Render(e.Timestamp.In(m.loc).Format("15:04:05"), styles.FaintText) + bg.Space() +
			bg.Render(e.Direction.Arrow(), styles.StatusText(dir).Bold(true)) + bg.Space() +
			bg.Render(e.Text, styles.Text)
		lines = append(lines, bg.FillLine(line, width))

		if !translating || e.Direction != device.In {
			continue
		}
		tr, ok := m.translations.lookup(m.prefs.Language, e.Text)
		if !ok {
			continue
		}
		text, failed := tr.render(e.Text)
		switch {
		case failed:
			lines = append(lines, bg.FillLine(indent+bg.Render("↳ "+text, styles.DangerText), width))
		case text == "":
			lines = append(lines, bg.FillLine(indent+bg.Render("↳ translating...", styles.FaintText), width))
		default:
			lines = append(lines, bg.FillLine(indent+bg.Render("↳ "+text, styles.AccentText), width))
		}
	}
	return strings.Join(lines, "\n")
}

// renderMonitor renders the session box and the send line.
func (m Model) renderMonitor() string {
	boxHeight := m.height - 3

	title := "Monitor"
	if d := m.snapshot.Descriptor; d != nil && d.SessionID != "" {
		title = "Session " + shortID(d.SessionID)
	}
	if !m.monitor.follow {
		title += " (paused)"
	}
	box := m.renderTitledBox(title, m.monitor.viewport.View(), m.width, boxHeight, true)

	line := lipgloss.NewStyle().Width(m.width).MaxHeight(1).Padding(0, 1)
	if m.snapshot.Connection != device.Connected && m.monitor.input.Value() == "" {
		return box + "\n" + line.Render(m.theme.Styles().FaintText.Render("› connect a device to send"))
	}
	return box + "\n" + line.Render(m.monitor.input.View())
}

// handleMonitorKey processes keys for the monitor view. Arrow and page keys
// scroll; everything else edits the send line.
func (m Model) handleMonitorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		text := strings.TrimSpace(m.monitor.input.Value())
		if text == "" || m.session == nil {
			return m, nil
		}
		m.monitor.input.Reset()
		m.monitor.follow = true
		m.updateMonitorViewport()
		return m, sendCmd(m.session, text)

	case key.Matches(msg, m.keys.ClearMonitor):
		if m.store != nil {
			m.store.Clear()
		}
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.Escape):
		m.monitor.input.Reset()
		return m, nil

	case msg.Type == tea.KeyUp, msg.Type == tea.KeyDown,
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.monitor.viewport, cmd = m.monitor.viewport.Update(msg)
		m.monitor.follow = m.monitor.viewport.AtBottom()
		return m, cmd
	}

	var cmd tea.Cmd
	m.monitor.input, cmd = m.monitor.input.Update(msg)
	return m, cmd
}

// shortID keeps the first block of a session UUID.
func shortID(id string) string {
	if head, _, ok := strings.Cut(id, "-"); ok {
		return head
	}
	return truncate(id, 8)
}
