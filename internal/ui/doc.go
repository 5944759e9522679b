// Package ui provides the terminal operator console for neuroglove.
//
// The interface is a Bubble Tea program. Model polls state.Store on a short
// tick and renders four views:
//
//   - Monitor: the live session, newest line last, with a send line below
//   - History: recorded days from the log store and the lines of one day
//   - Diagnostics: the tail of the diagnostics log file
//   - Contacts: the nearby clinic, helplines and the emergency contact
//
// Device actions run as tea.Cmds against a Session so the event loop never
// blocks. When several serial ports are present, the transport asks a
// Picker, which shows a port list and answers the waiting connect.
//
// # Translation
//
// With a target language other than English, received lines are translated
// through a Translator. Auto-translate covers recent lines as they arrive;
// ctrl+g translates the lines of the current view on demand. A failed
// translation shows the original text followed by "[translation failed]".
//
// # Key Bindings
//
// Global bindings use control and function keys so they work while typing:
//
//   - ctrl+o / ctrl+w: Connect over serial / wireless
//   - ctrl+x: Disconnect (also cancels a pending connect)
//   - ctrl+r: Refresh wireless signal strength
//   - ctrl+t / ctrl+l / ctrl+g: Auto-translate, language, translate now
//   - ctrl+y: Analyze the session (or the loaded day in History)
//   - tab / shift+tab: Cycle views, esc returns to Monitor
//   - f1: Help, f2: Theme, f5: Clear the monitor buffer
//   - ctrl+c: Exit
package ui
