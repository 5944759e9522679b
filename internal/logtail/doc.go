// Package logtail reads and renders the diagnostics log for the TUI.
//
// # Reading Log Files
//
// Read returns the last N lines of a file. It reads backwards from the end
// in chunks, so the one-second diagnostics refresh stays cheap as
// neuroglove.log grows. A missing file yields no lines and no error.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// # Rendering
//
// The diagnostics log is written by logrus with the text formatter and colors
// disabled. Parse splits such a line into time, level, message and the
// remaining key=value fields. ColorizeLine renders it compactly with the
// lipgloss styles in a Palette:
//
//	time="2024-05-01T10:00:00+05:30" level=info msg="device connected" port=/dev/ttyACM0
//	→ 10:00:00 INFO device connected port=/dev/ttyACM0
//
// Lines that are not key=value formatted (for example a panic trace) are
// rendered with the Plain style unchanged.
package logtail
