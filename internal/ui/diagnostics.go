package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/logtail"
)

// diagnosticsState holds the tail of the diagnostics log.
type diagnosticsState struct {
	lines    []string
	err      error
	follow   bool
	lastRead time.Time

	viewport       viewport.Model
	contentVersion uint64
	lastRendered   uint64
}

type diagnosticsMsg struct {
	lines []string
	err   error
}

func (m *Model) initDiagnostics() {
	m.diag = diagnosticsState{viewport: viewport.New(0, 0), follow: true, contentVersion: 1}
}

func readDiagnosticsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, DiagnosticsTailLines)
		return diagnosticsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleDiagnostics(msg diagnosticsMsg) {
	m.diag.err = msg.err
	if msg.err == nil {
		m.diag.lines = msg.lines
	}
	m.diag.contentVersion++
	m.updateDiagnosticsViewport()
}

func (m *Model) updateDiagnosticsViewport() {
	if !m.ready {
		return
	}
	d := &m.diag
	// Header, command bar and the status line sit outside the box.
	d.viewport.Width = max(m.width-2, 0)
	d.viewport.Height = max(m.height-5, 0)
	d.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if d.contentVersion != d.lastRendered {
		d.viewport.SetContent(m.renderDiagnosticsContent())
		d.lastRendered = d.contentVersion
	}
	if d.follow {
		d.viewport.GotoBottom()
	}
}

func (m Model) renderDiagnosticsContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.diag.viewport.Width

	if m.diag.err != nil {
		return bg.FillLine(bg.Render("Could not read log: "+m.diag.err.Error(), styles.DangerText), width)
	}
	if len(m.diag.lines) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}
	colored := logtail.ColorizeLines(m.diag.lines, m.theme.LogPalette(m.theme.FocusBg))
	for i, line := range colored {
		colored[i] = bg.FillLine(line, width)
	}
	return strings.Join(colored, "\n")
}

// renderDiagnostics renders the log tail with a status line below.
func (m Model) renderDiagnostics() string {
	title := "Diagnostics " + truncateMiddle(m.cfg.LogPath(), max(m.width/2, 10))
	box := m.renderTitledBox(title, m.diag.viewport.View(), m.width, m.height-3, true)
	return box + "\n" + m.renderDiagnosticsStatus()
}

// renderDiagnosticsStatus summarizes counters that do not fit the header.
func (m Model) renderDiagnosticsStatus() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles()

	autoTail := "off"
	if m.diag.follow {
		autoTail = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines  auto-tail %s", len(m.diag.lines), autoTail), styles.FaintText),
		bg.Render(fmt.Sprintf("sent %d  received %d  dropped %d", m.snapshot.Sent, m.snapshot.Received, m.snapshot.Dropped), styles.MutedText),
	}
	if sized, ok := m.translator.(interface{ Len() int }); ok {
		parts = append(parts, bg.Render(fmt.Sprintf("translations cached %d", sized.Len()), styles.MutedText))
	}
	if n := m.snapshot.ConsecutivePersistFailures; n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("persist failures %d", n), styles.DangerText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(parts, sep), m.width)
}

// handleDiagnosticsKey processes keys for the diagnostics view.
func (m Model) handleDiagnosticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := &m.diag
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		d.follow = !d.follow
		if d.follow {
			d.viewport.GotoBottom()
			return m, readDiagnosticsCmd(m.cfg.LogPath())
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		d.follow = false
		d.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		d.follow = true
		d.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	if !d.viewport.AtBottom() {
		d.follow = false
	}
	return m, cmd
}
