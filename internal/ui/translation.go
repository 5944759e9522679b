package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/translate"
)

// failedMarker follows the original text when a translation failed.
const failedMarker = "[translation failed]"

type translationKey struct {
	lang string
	text string
}

type translationStatus int

const (
	translationPending translationStatus = iota
	translationDone
	translationFailed
)

type translation struct {
	status translationStatus
	text   string
}

// translations tracks what has been requested for display. The translate
// cache memoizes results; this only records per-line display state.
type translations struct {
	entries map[translationKey]translation
}

func newTranslations() *translations {
	return &translations{entries: make(map[translationKey]translation)}
}

func (t *translations) lookup(lang, text string) (translation, bool) {
	tr, ok := t.entries[translationKey{lang, text}]
	return tr, ok
}

// begin marks text as pending. It reports false when a request is already
// pending or done, and for failures unless retry is set.
func (t *translations) begin(lang, text string, retry bool) bool {
	k := translationKey{lang, text}
	if tr, ok := t.entries[k]; ok {
		if tr.status != translationFailed || !retry {
			return false
		}
	}
	t.entries[k] = translation{status: translationPending}
	return true
}

func (t *translations) resolve(lang, text, result string, err error) {
	k := translationKey{lang, text}
	if err != nil {
		t.entries[k] = translation{status: translationFailed}
		return
	}
	t.entries[k] = translation{status: translationDone, text: result}
}

// render returns the display text for a translated line and whether the
// translation failed. Pending lines render empty.
func (tr translation) render(original string) (string, bool) {
	switch tr.status {
	case translationDone:
		return tr.text, false
	case translationFailed:
		return original + " " + failedMarker, true
	default:
		return "", false
	}
}

type translatedMsg struct {
	lang   string
	text   string
	result string
	err    error
}

func translateCmd(ctx context.Context, tr Translator, text, lang string) tea.Cmd {
	return func() tea.Msg {
		result, err := tr.Translate(ctx, text, lang)
		return translatedMsg{lang: lang, text: text, result: result, err: err}
	}
}

func (m *Model) handleTranslated(msg translatedMsg) {
	m.translations.resolve(msg.lang, msg.text, msg.result, msg.err)
	if msg.err != nil && errors.Is(msg.err, translate.ErrServiceUnavailable) {
		m.setNotice(noticeWarn, "Translation service unavailable")
	}
	m.invalidateViews()
	m.updateMonitorViewport()
	m.updateHistoryViewport()
}

func (m Model) translating() bool {
	return m.translator != nil && m.prefs.Language != "" && m.prefs.Language != translate.SourceLanguage
}

// autoTranslate requests translations for recent received lines.
func (m *Model) autoTranslate() tea.Cmd {
	if !m.prefs.AutoTranslate || !m.translating() {
		return nil
	}
	return m.requestTranslations(m.snapshot.Entries, false)
}

// translateShown translates the received lines of the current view,
// retrying earlier failures.
func (m *Model) translateShown() tea.Cmd {
	if m.translator == nil {
		m.setNotice(noticeWarn, "Translation service unavailable")
		return nil
	}
	if !m.translating() {
		m.setNotice(noticeInfo, "Pick a target language with ctrl+l first")
		return nil
	}
	entries := m.snapshot.Entries
	if m.currentView == ViewHistory {
		entries = m.historyView.entries
	}
	cmd := m.requestTranslations(entries, true)
	if cmd == nil {
		m.setNotice(noticeInfo, "Nothing new to translate")
	}
	return cmd
}

// requestTranslations covers the last AutoTranslateBacklog IN entries.
func (m *Model) requestTranslations(entries []device.Entry, retry bool) tea.Cmd {
	lang := m.prefs.Language
	var cmds []tea.Cmd
	seen := 0
	for i := len(entries) - 1; i >= 0 && seen < AutoTranslateBacklog; i-- {
		e := entries[i]
		if e.Direction != device.In {
			continue
		}
		seen++
		if m.translations.begin(lang, e.Text, retry) {
			cmds = append(cmds, translateCmd(m.ctx, m.translator, e.Text, lang))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	m.invalidateViews()
	return tea.Batch(cmds...)
}

// languageLabel renders the current target language by its own name.
func (m Model) languageLabel() string {
	lang := m.prefs.Language
	if lang == "" {
		lang = translate.SourceLanguage
	}
	return translate.Title(translate.LanguageName(lang))
}
