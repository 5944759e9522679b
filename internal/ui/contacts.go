package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/neuroglove/internal/contact"
)

// contactsState holds the emergency contact editor.
type contactsState struct {
	editing bool
	input   textinput.Model
}

func (m *Model) initContacts() {
	ti := textinput.New()
	ti.Placeholder = contact.DefaultEmergencyContact
	ti.Prompt = "Number: "
	ti.CharLimit = 32
	m.contacts = contactsState{input: ti}
}

// handleContactsKey processes keys for the contacts view.
func (m Model) handleContactsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.EditContact) {
		m.contacts.editing = true
		m.contacts.input.SetValue(m.prefs.EmergencyContact)
		m.contacts.input.CursorEnd()
		cmd := m.contacts.input.Focus()
		return m, cmd
	}
	return m, nil
}

// handleContactEditKey edits the emergency contact. Enter saves, esc
// discards.
func (m Model) handleContactEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.prefs.EmergencyContact = contact.NormalizeEmergencyContact(m.contacts.input.Value())
		m.contacts.editing = false
		m.contacts.input.Blur()
		if m.savePrefs() {
			m.setNotice(noticeInfo, "Emergency contact set to "+m.prefs.EmergencyContact)
		}
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.contacts.editing = false
		m.contacts.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.contacts.input, cmd = m.contacts.input.Update(msg)
	return m, cmd
}

// renderContacts renders the clinic card, helplines and emergency contact.
func (m Model) renderContacts() string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	label := styles.MutedText.Width(12)

	doc := contact.NearbyDoctor()
	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.Accent)).
		Bold(true).
		Padding(0, 1).
		Render(contact.Initials(doc.Name))

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Nearby doctor"))
	b.WriteString("\n\n")
	b.WriteString(badge + " " + styles.Text.Bold(true).Render(doc.Name))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(doc.Speciality))
	b.WriteString("\n\n")
	b.WriteString(label.Render("Phone") + styles.Text.Render(doc.Phone) + "  " + styles.FaintText.Render(contact.TelURL(doc.Phone)))
	b.WriteString("\n")
	b.WriteString(label.Render("Distance") + styles.Text.Render(contact.FormatDistance(doc.DistanceKm)))
	b.WriteString("\n")
	b.WriteString(label.Render("Directions") + styles.InfoText.Render(contact.MapsURL(doc)))
	b.WriteString("\n")
	if wa, err := contact.WhatsAppURL(doc, false); err == nil {
		b.WriteString(label.Render("WhatsApp") + styles.InfoText.Render(wa))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Helplines"))
	b.WriteString("\n\n")
	for _, h := range contact.Helplines() {
		numStyle := styles.Text
		if h.Primary {
			numStyle = styles.DangerText
		}
		b.WriteString(label.Render(h.Label) + numStyle.Render(h.Number) + "  " + styles.FaintText.Render(contact.TelURL(h.Number)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Emergency contact"))
	b.WriteString("\n\n")
	if m.contacts.editing {
		b.WriteString(m.contacts.input.View())
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("enter: save  •  esc: cancel"))
	} else {
		b.WriteString(label.Render("Number") + styles.WarningText.Bold(true).Render(m.prefs.EmergencyContact) +
			"  " + styles.FaintText.Render(contact.TelURL(m.prefs.EmergencyContact)))
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("press e to change"))
	}

	return m.renderTitledBox("Contacts", b.String(), m.width, m.height-2, true)
}
