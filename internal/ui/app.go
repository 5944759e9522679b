package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/neuroglove/internal/config"
	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/prefs"
	"github.com/five82/neuroglove/internal/state"
	"github.com/five82/neuroglove/internal/translate"
	"github.com/five82/neuroglove/internal/transport"
)

// View represents the current active view.
type View int

const (
	ViewMonitor View = iota
	ViewHistory
	ViewDiagnostics
	ViewContacts
)

var viewOrder = []View{ViewMonitor, ViewHistory, ViewDiagnostics, ViewContacts}

func (v View) String() string {
	switch v {
	case ViewHistory:
		return "History"
	case ViewDiagnostics:
		return "Diagnostics"
	case ViewContacts:
		return "Contacts"
	default:
		return "Monitor"
	}
}

// Session is the connection surface the console drives.
type Session interface {
	Connect(ctx context.Context, opts transport.Options) (device.Descriptor, error)
	Send(text string) error
	Disconnect()
	RefreshSignal(ctx context.Context) (int, error)
}

// Translator translates received lines into the operator's language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// History reads the durable day records.
type History interface {
	Days(ctx context.Context) ([]time.Time, error)
	LoadDay(ctx context.Context, day time.Time) ([]device.Entry, error)
}

// Summarizer produces a session analysis report.
type Summarizer interface {
	Summarize(ctx context.Context, entries []device.Entry) (string, error)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Session    Session
	Store      *state.Store
	Translator Translator
	History    History
	Summarizer Summarizer
	Picker     *Picker
	Config     config.Config
	Prefs      prefs.Prefs
	PrefsPath  string
	Location   *time.Location
	PollTick   time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx        context.Context
	session    Session
	store      *state.Store
	translator Translator
	history    History
	summarizer Summarizer
	picker     *Picker
	cfg        config.Config
	prefs      prefs.Prefs
	prefsPath  string
	loc        *time.Location
	pollTick   time.Duration
	keys       keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	monitor      monitorState
	historyView  historyState
	diag         diagnosticsState
	contacts     contactsState
	translations *translations

	showHelp  bool
	modal     Modal
	notice    notice
	analyzing bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	p := opts.Prefs
	if p.Theme == "" && p.Language == "" {
		p = prefs.Default()
	}

	m := Model{
		ctx:          ctx,
		session:      opts.Session,
		store:        opts.Store,
		translator:   opts.Translator,
		history:      opts.History,
		summarizer:   opts.Summarizer,
		picker:       opts.Picker,
		cfg:          opts.Config,
		prefs:        p,
		prefsPath:    prefsPath,
		loc:          loc,
		pollTick:     pollTick,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(p.Theme),
		currentView:  ViewMonitor,
		translations: newTranslations(),
	}
	m.initMonitor()
	m.initHistory()
	m.initDiagnostics()
	m.initContacts()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		textinput.Blink,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.picker != nil {
		cmds = append(cmds, waitPickCmd(m.ctx, m.picker))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		if m.modal != nil {
			m.modal, _, _ = m.modal.Update(msg, m.keys)
		}
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		cmd := m.autoTranslate()
		m.updateMonitorViewport()
		return m, cmd

	case pickRequestMsg:
		m.dismissModal()
		m.modal = newPickerModal(pickRequest(msg))
		return m, waitPickCmd(m.ctx, m.picker)

	case connectResultMsg:
		m.dismissPicker()
		m.handleConnectResult(msg)
		return m, fetchSnapshotCmd(m.store)

	case disconnectedMsg:
		m.setNotice(noticeInfo, "Disconnected")
		return m, fetchSnapshotCmd(m.store)

	case sendResultMsg:
		m.handleSendResult(msg)
		return m, nil

	case signalMsg:
		m.handleSignal(msg)
		return m, fetchSnapshotCmd(m.store)

	case translatedMsg:
		m.handleTranslated(msg)
		return m, nil

	case analysisMsg:
		return m.handleAnalysis(msg)

	case daysMsg:
		return m.handleDays(msg)

	case dayEntriesMsg:
		m.handleDayEntries(msg)
		return m, nil

	case diagnosticsMsg:
		m.handleDiagnostics(msg)
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	// Cursor blink and other component messages.
	var cmd tea.Cmd
	switch {
	case m.currentView == ViewContacts && m.contacts.editing:
		m.contacts.input, cmd = m.contacts.input.Update(msg)
	default:
		m.monitor.input, cmd = m.monitor.input.Update(msg)
	}
	return m, cmd
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

// handleKey processes keyboard input. Overlays take precedence, then global
// bindings, then the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	if m.currentView == ViewContacts && m.contacts.editing {
		return m.handleContactEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.invalidateViews()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.nextView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.nextView(-1))

	case key.Matches(msg, m.keys.ConnectSerial):
		cmd := m.connect(device.KindSerial)
		return m, cmd

	case key.Matches(msg, m.keys.ConnectWireless):
		cmd := m.connect(device.KindWireless)
		return m, cmd

	case key.Matches(msg, m.keys.Disconnect):
		if m.session == nil {
			return m, nil
		}
		return m, disconnectCmd(m.session)

	case key.Matches(msg, m.keys.RefreshSignal):
		if m.session == nil {
			return m, nil
		}
		return m, refreshSignalCmd(m.ctx, m.session)

	case key.Matches(msg, m.keys.ToggleTranslate):
		m.prefs.AutoTranslate = !m.prefs.AutoTranslate
		switch {
		case !m.savePrefs():
		case m.prefs.AutoTranslate:
			m.setNotice(noticeInfo, "Auto-translate on ("+m.languageLabel()+")")
		default:
			m.setNotice(noticeInfo, "Auto-translate off")
		}
		cmd := m.autoTranslate()
		return m, cmd

	case key.Matches(msg, m.keys.CycleLanguage):
		m.prefs.Language = translate.NextLanguage(m.prefs.Language)
		if m.savePrefs() {
			m.setNotice(noticeInfo, "Language: "+m.languageLabel())
		}
		m.invalidateViews()
		cmd := m.autoTranslate()
		return m, cmd

	case key.Matches(msg, m.keys.TranslateShown):
		cmd := m.translateShown()
		return m, cmd

	case key.Matches(msg, m.keys.Analyze):
		return m.analyze()

	case key.Matches(msg, m.keys.Escape) && m.currentView != ViewMonitor:
		return m.switchView(ViewMonitor)
	}

	switch m.currentView {
	case ViewMonitor:
		return m.handleMonitorKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	case ViewDiagnostics:
		return m.handleDiagnosticsKey(msg)
	case ViewContacts:
		return m.handleContactsKey(msg)
	}

	return m, nil
}

func (m Model) nextView(step int) View {
	for i, v := range viewOrder {
		if v == m.currentView {
			return viewOrder[(i+step+len(viewOrder))%len(viewOrder)]
		}
	}
	return ViewMonitor
}

// switchView activates v and starts whatever load it needs.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	var cmds []tea.Cmd
	if v == ViewMonitor {
		cmds = append(cmds, m.monitor.input.Focus())
	} else {
		m.monitor.input.Blur()
	}
	switch v {
	case ViewHistory:
		if m.history != nil {
			cmds = append(cmds, loadDaysCmd(m.ctx, m.history))
		}
	case ViewDiagnostics:
		cmds = append(cmds, readDiagnosticsCmd(m.cfg.LogPath()))
	}
	m.resize()
	return m, tea.Batch(cmds...)
}

// resize recomputes every viewport from the window size.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.invalidateViews()
	m.updateMonitorViewport()
	m.updateHistoryViewport()
	m.updateDiagnosticsViewport()
}

// invalidateViews forces content to be re-rendered on the next update.
func (m *Model) invalidateViews() {
	m.monitor.contentVersion++
	m.historyView.contentVersion++
	m.diag.contentVersion++
}

// handleTick processes the polling tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewDiagnostics && m.diag.follow && now.Sub(m.diag.lastRead) >= DiagnosticsRefresh {
		m.diag.lastRead = now
		cmds = append(cmds, readDiagnosticsCmd(m.cfg.LogPath()))
	}

	m.notice.expire(now)

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// savePrefs persists the preferences, reporting failure as a notice.
func (m *Model) savePrefs() bool {
	if m.prefsPath == "" {
		return true
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.setNotice(noticeError, "Could not save preferences: "+err.Error())
		return false
	}
	return true
}

// renderMain renders the full UI: status header, command bar, content.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHistory:
		return m.renderHistory()
	case ViewDiagnostics:
		return m.renderDiagnostics()
	case ViewContacts:
		return m.renderContacts()
	default:
		return m.renderMonitor()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if opts.Context != nil {
		stop := context.AfterFunc(opts.Context, p.Quit)
		defer stop()
	}
	_, err := p.Run()
	return err
}
