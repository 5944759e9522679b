package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/device"
)

// historyState holds the stored day browser.
type historyState struct {
	days     []time.Time
	selected int

	loaded  time.Time
	entries []device.Entry
	loading bool
	err     error

	viewport       viewport.Model
	contentVersion uint64
	lastRendered   uint64
}

type daysMsg struct {
	days []time.Time
	err  error
}

type dayEntriesMsg struct {
	day     time.Time
	entries []device.Entry
	err     error
}

func (m *Model) initHistory() {
	m.historyView = historyState{viewport: viewport.New(0, 0), contentVersion: 1}
}

func loadDaysCmd(ctx context.Context, h History) tea.Cmd {
	return func() tea.Msg {
		days, err := h.Days(ctx)
		return daysMsg{days: days, err: err}
	}
}

func loadDayCmd(ctx context.Context, h History, day time.Time) tea.Cmd {
	return func() tea.Msg {
		entries, err := h.LoadDay(ctx, day)
		return dayEntriesMsg{day: day, entries: entries, err: err}
	}
}

func (m Model) handleDays(msg daysMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.historyView.err = msg.err
		m.historyView.contentVersion++
		m.updateHistoryViewport()
		return m, nil
	}
	h := &m.historyView
	var current time.Time
	if h.selected < len(h.days) {
		current = h.days[h.selected]
	}
	h.days = msg.days
	h.selected = 0
	for i, d := range h.days {
		if d.Equal(current) {
			h.selected = i
			break
		}
	}
	if len(h.days) == 0 || m.history == nil {
		h.contentVersion++
		m.updateHistoryViewport()
		return m, nil
	}
	// Reload the selected day so today's record picks up new lines.
	cmd := m.loadSelectedDay()
	return m, cmd
}

func (m *Model) loadSelectedDay() tea.Cmd {
	h := &m.historyView
	if m.history == nil || h.selected >= len(h.days) {
		return nil
	}
	h.loading = true
	h.contentVersion++
	m.updateHistoryViewport()
	return loadDayCmd(m.ctx, m.history, h.days[h.selected])
}

func (m *Model) handleDayEntries(msg dayEntriesMsg) {
	h := &m.historyView
	h.loading = false
	h.err = msg.err
	if !msg.day.Equal(h.loaded) {
		h.viewport.GotoTop()
	}
	h.loaded = msg.day
	h.entries = msg.entries
	h.contentVersion++
	m.updateHistoryViewport()
}

func (m *Model) updateHistoryViewport() {
	if !m.ready {
		return
	}
	h := &m.historyView
	h.viewport.Width = max(m.width-LayoutHistoryListWidth-2, 0)
	h.viewport.Height = max(m.height-4, 0)
	h.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if h.contentVersion != h.lastRendered {
		h.viewport.SetContent(m.renderHistoryContent())
		h.lastRendered = h.contentVersion
	}
}

func (m Model) renderHistoryContent() string {
	h := m.historyView
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := h.viewport.Width

	switch {
	case m.history == nil:
		return bg.FillLine(bg.Render("History is not available", styles.MutedText), width)
	case h.err != nil:
		return bg.FillLine(bg.Render("Could not read history: "+h.err.Error(), styles.DangerText), width)
	case h.loading && len(h.entries) == 0:
		return bg.FillLine(bg.Render("Loading...", styles.MutedText), width)
	case len(h.days) == 0:
		return bg.FillLine(bg.Render("No recorded days yet", styles.MutedText), width)
	case len(h.entries) == 0:
		return bg.FillLine(bg.Render("No lines recorded for this day", styles.MutedText), width)
	}
	return m.renderEntries(h.entries, bg, width)
}

// renderHistory renders the day list and the selected day's lines.
func (m Model) renderHistory() string {
	h := m.historyView
	height := m.height - 2

	listBg := NewBgStyle(m.theme.SurfaceAlt)
	styles := m.theme.Styles()
	listWidth := LayoutHistoryListWidth - 2
	rows := make([]string, 0, len(h.days))
	for i, d := range h.days {
		label := " " + d.Format("2006-01-02")
		if i == h.selected {
			rows = append(rows, styles.Selected.Width(listWidth).Render(label))
			continue
		}
		rows = append(rows, listBg.FillLine(listBg.Render(label, styles.Text), listWidth))
	}
	// Keep the selection on screen.
	visible := max(height-2, 1)
	if offset := h.selected - visible + 1; offset > 0 {
		rows = rows[offset:]
	}
	list := m.renderTitledBox("Days", strings.Join(rows, "\n"), LayoutHistoryListWidth, height, false)

	title := "Log"
	if !h.loaded.IsZero() {
		title = fmt.Sprintf("%s (%d lines)", h.loaded.Format("Mon 2 Jan 2006"), len(h.entries))
	}
	detail := m.renderTitledBox(title, h.viewport.View(), m.width-LayoutHistoryListWidth, height, true)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
}

// handleHistoryKey processes keys for the history view.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := &m.historyView
	switch {
	case key.Matches(msg, m.keys.Up):
		if h.selected > 0 {
			h.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if h.selected < len(h.days)-1 {
			h.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		cmd := m.loadSelectedDay()
		return m, cmd
	case key.Matches(msg, m.keys.Top):
		h.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		h.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		h.viewport, cmd = h.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}
