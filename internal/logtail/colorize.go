package logtail

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one key=value pair from a logrus text line.
type Field struct {
	Key   string
	Value string
}

// Record is a parsed logrus text-formatter line.
type Record struct {
	Time   string
	Level  string
	Msg    string
	Fields []Field
}

// Parse splits a line written by logrus.TextFormatter with colors disabled,
// for example:
//
//	time="2024-05-01T10:00:00+05:30" level=info msg="device connected" port=/dev/ttyACM0
//
// ok is false for lines that are not key=value formatted.
func Parse(line string) (Record, bool) {
	var rec Record
	rest := strings.TrimSpace(line)
	if rest == "" {
		return rec, false
	}
	for rest != "" {
		key, after, found := strings.Cut(rest, "=")
		if !found || key == "" || strings.ContainsAny(key, " \t\"") {
			return Record{}, false
		}
		value, remainder, ok := readValue(after)
		if !ok {
			return Record{}, false
		}
		switch key {
		case "time":
			rec.Time = value
		case "level":
			rec.Level = value
		case "msg":
			rec.Msg = value
		default:
			rec.Fields = append(rec.Fields, Field{Key: key, Value: value})
		}
		rest = strings.TrimLeft(remainder, " ")
	}
	return rec, rec.Level != ""
}

func readValue(s string) (value, rest string, ok bool) {
	if !strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s, ' ')
		if end < 0 {
			return s, "", true
		}
		return s[:end], s[end:], true
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			unquoted, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", "", false
			}
			return unquoted, s[i+1:], true
		}
	}
	return "", "", false
}

// Palette styles the parts of a diagnostics line.
type Palette struct {
	Time  lipgloss.Style
	Debug lipgloss.Style
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Msg   lipgloss.Style
	Key   lipgloss.Style
	Value lipgloss.Style
	Plain lipgloss.Style
}

func (p Palette) level(level string) lipgloss.Style {
	switch level {
	case "debug", "trace":
		return p.Debug
	case "warning", "warn":
		return p.Warn
	case "error", "fatal", "panic":
		return p.Error
	default:
		return p.Info
	}
}

// ColorizeLine renders a diagnostics line as "15:04:05 LEVEL msg key=value".
// Lines that do not parse are rendered with the plain style.
func ColorizeLine(line string, p Palette) string {
	rec, ok := Parse(line)
	if !ok {
		return p.Plain.Render(line)
	}
	var parts []string
	if ts := shortTime(rec.Time); ts != "" {
		parts = append(parts, p.Time.Render(ts))
	}
	parts = append(parts, p.level(rec.Level).Render(strings.ToUpper(levelLabel(rec.Level))))
	if rec.Msg != "" {
		parts = append(parts, p.Msg.Render(rec.Msg))
	}
	for _, f := range rec.Fields {
		parts = append(parts, p.Key.Render(f.Key+"=")+p.Value.Render(f.Value))
	}
	return strings.Join(parts, " ")
}

// ColorizeLines applies ColorizeLine to every line.
func ColorizeLines(lines []string, p Palette) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = ColorizeLine(line, p)
	}
	return out
}

func levelLabel(level string) string {
	if level == "warning" {
		return "warn"
	}
	return level
}

// shortTime keeps the clock part of an RFC 3339 timestamp.
func shortTime(ts string) string {
	if _, clock, ok := strings.Cut(ts, "T"); ok && len(clock) >= 8 {
		return clock[:8]
	}
	return ts
}
