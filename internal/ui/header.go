package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/session"
)

// renderHeader renders the status bar: connection, link details, counters,
// language, storage health and the latest notice or error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxHeight(1).
		Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	var parts []string
	parts = append(parts, bg.Render("neuroglove", styles.Logo))

	stateName := snap.Connection.String()
	parts = append(parts, styles.StatusStyle(stateName).Render("● "+strings.ToUpper(stateName)))

	if d := snap.Descriptor; d != nil {
		parts = append(parts, m.formatDescriptor(*d, compact, styles, bg))
	}

	parts = append(parts,
		bg.Render("Sent:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", snap.Sent), styles.StatusText("out"))+
			bg.Spaces(2)+
			bg.Render("Recv:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", snap.Received), styles.StatusText("in")),
	)

	lang := bg.Render("Lang:", styles.MutedText) + bg.Space() + bg.Render(m.languageLabel(), styles.Text)
	if m.prefs.AutoTranslate && m.translating() {
		lang += bg.Space() + bg.Render("auto", styles.AccentText)
	}
	parts = append(parts, lang)

	if snap.StorageDegraded() {
		detail := "entries are not being saved"
		if snap.LastPersistError != nil {
			detail = snap.LastPersistError.Error()
		}
		parts = append(parts,
			bg.Render("STORAGE", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(detail, ternaryInt(compact, 30, 60)), styles.DangerText))
	}

	if snap.LastError != nil && snap.Connection == device.Disconnected {
		parts = append(parts,
			bg.Render(classifyConnectionError(snap.LastError), styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(snap.LastError.Error(), ternaryInt(compact, 40, 80)), styles.DangerText))
	}

	if m.notice.text != "" {
		style := styles.InfoText
		switch m.notice.level {
		case noticeWarn:
			style = styles.WarningText
		case noticeError:
			style = styles.DangerText
		}
		parts = append(parts, bg.Render("!", style.Bold(true))+bg.Space()+bg.Render(m.notice.text, style))
	}

	if ts := formatUpdated(m.lastUpdated, time.Now()); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.FaintText))
	}

	return bg.Join(parts, "  ")
}

// formatDescriptor renders the live link: transport, port and either USB
// ids and baud rate or signal quality.
func (m Model) formatDescriptor(d device.Descriptor, compact bool, styles Styles, bg BgStyle) string {
	port := d.Port
	if compact {
		port = truncateMiddle(port, 18)
	}
	out := bg.Render(d.Kind.String(), styles.MutedText) + bg.Space() + bg.Render(port, styles.Text)
	switch d.Kind {
	case device.KindWireless:
		out += bg.Spaces(2) + bg.Render("Signal:", styles.MutedText) + bg.Space() +
			bg.Render(formatSignal(d.SignalDBm), signalStyle(d.SignalDBm, styles))
	default:
		if d.BaudRate > 0 {
			out += bg.Space() + bg.Render(fmt.Sprintf("%d baud", d.BaudRate), styles.FaintText)
		}
		if d.USBVendorID != nil && d.USBProductID != nil && !compact {
			out += bg.Space() + bg.Render(fmt.Sprintf("USB %04x:%04x", *d.USBVendorID, *d.USBProductID), styles.FaintText)
		}
	}
	return out
}

// formatSignal renders an RSSI reading as "Good (-65 dBm)".
func formatSignal(dbm *int) string {
	q := device.SignalQuality(dbm)
	if dbm == nil {
		return q
	}
	return fmt.Sprintf("%s (%d dBm)", q, *dbm)
}

func signalStyle(dbm *int, styles Styles) lipgloss.Style {
	switch device.SignalQuality(dbm) {
	case "Excellent", "Good":
		return styles.SuccessText
	case "Fair":
		return styles.WarningText
	case "Poor":
		return styles.DangerText
	default:
		return styles.MutedText
	}
}

// formatUpdated formats the last update time with a relative indicator.
func formatUpdated(updated, now time.Time) string {
	if updated.IsZero() {
		return ""
	}
	since := now.Sub(updated)
	ts := updated.Format("15:04:05")
	switch {
	case since < time.Minute:
		return ts
	case since < time.Hour:
		return ts + fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	default:
		return ts + fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
}

// classifyConnectionError returns a short label for why the link ended.
func classifyConnectionError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrConnectionLost):
		return "LINK LOST"
	case errors.Is(err, session.ErrUserCancelled):
		return "CANCELLED"
	case errors.Is(err, session.ErrUnsupported):
		return "UNSUPPORTED"
	case errors.Is(err, session.ErrOpenFailed):
		return "OPEN FAILED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewHistory:
		commands = []cmd{
			{"j/k", "Day"},
			{"enter", "Load"},
			{"pgup/pgdn", "Scroll"},
			{"ctrl+g", "Translate"},
			{"ctrl+y", "Analyze day"},
		}
	case ViewDiagnostics:
		followLabel := "Pause"
		if !m.diag.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"g/G", "Top/Bottom"},
		}
	case ViewContacts:
		commands = []cmd{
			{"e", "Edit emergency contact"},
		}
	default:
		connect := []cmd{{"ctrl+o", "Serial"}, {"ctrl+w", "Wireless"}}
		if m.snapshot.Connection != device.Disconnected {
			connect = []cmd{{"ctrl+x", "Disconnect"}}
			if d := m.snapshot.Descriptor; d != nil && d.Kind == device.KindWireless {
				connect = append(connect, cmd{"ctrl+r", "Signal"})
			}
		}
		commands = append(connect,
			cmd{"enter", "Send"},
			cmd{"ctrl+t", "Auto-translate"},
			cmd{"ctrl+l", "Language"},
			cmd{"ctrl+y", "Analyze"},
		)
	}
	commands = append(commands, cmd{"tab", m.nextView(1).String()}, cmd{"f1", "More"})

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("f2", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, bg.Spaces(2)))
}
