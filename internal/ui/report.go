package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/analysis"
	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/genai"
)

type analysisMsg struct {
	title   string
	summary string
	err     error
}

func analyzeCmd(ctx context.Context, s Summarizer, title string, entries []device.Entry) tea.Cmd {
	return func() tea.Msg {
		summary, err := s.Summarize(ctx, entries)
		return analysisMsg{title: title, summary: summary, err: err}
	}
}

// analyze summarizes the entries of the current view: the loaded day in
// History, the live buffer otherwise.
func (m Model) analyze() (tea.Model, tea.Cmd) {
	if m.analyzing {
		m.setNotice(noticeInfo, "Analysis already running")
		return m, nil
	}
	if m.summarizer == nil {
		m.setNotice(noticeWarn, "Text generation service unavailable")
		return m, nil
	}
	title, entries := "Session report", m.snapshot.Entries
	if m.currentView == ViewHistory && !m.historyView.loaded.IsZero() {
		title = "Report for " + m.historyView.loaded.Format("2006-01-02")
		entries = m.historyView.entries
	}
	if len(entries) == 0 {
		m.setNotice(noticeInfo, "Nothing to analyze yet")
		return m, nil
	}
	m.analyzing = true
	m.setNotice(noticeInfo, "Analyzing session...")
	return m, analyzeCmd(m.ctx, m.summarizer, title, entries)
}

func (m Model) handleAnalysis(msg analysisMsg) (tea.Model, tea.Cmd) {
	m.analyzing = false
	switch {
	case msg.err == nil:
		m.notice = notice{}
		m.dismissModal()
		m.modal = newReportModal(msg.title, msg.summary, m.width, m.height)
	case errors.Is(msg.err, analysis.ErrNoEntries):
		m.setNotice(noticeInfo, "Nothing to analyze yet")
	case errors.Is(msg.err, genai.ErrUnavailable):
		m.setNotice(noticeWarn, "Text generation service unavailable")
	default:
		m.setNotice(noticeError, "Analysis failed: "+msg.err.Error())
	}
	return m, nil
}

// reportModal shows a generated report in a scrollable box.
type reportModal struct {
	title    string
	body     string
	viewport viewport.Model
}

func newReportModal(title, body string, width, height int) reportModal {
	w := reportWidth(width)
	vp := viewport.New(w, max(height-10, 3))
	vp.SetContent(lipgloss.NewStyle().Width(w).Render(body))
	return reportModal{title: title, body: body, viewport: vp}
}

func reportWidth(width int) int {
	return min(max(width-12, 20), 100)
}

func (r reportModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, keys.Escape) || key.Matches(km, keys.Confirm) {
			return r, nil, true
		}
	}
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		return newReportModal(r.title, r.body, ws.Width, ws.Height), nil, false
	}
	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(msg)
	return r, cmd, false
}

func (r reportModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(r.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	b.WriteString(r.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("j/k: scroll  •  esc: close"))
	return placeModal(theme, width, height, b.String(), reportWidth(width)+6)
}
