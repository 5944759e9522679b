package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/genai"
)

// ErrNoEntries is returned when there is nothing to analyze.
var ErrNoEntries = errors.New("no log entries to analyze")

const promptHeader = `You are an expert assistant for a 'Neuro Glove' device.
Analyze the following session log. Provide a concise summary, identify patterns or issues, and offer suggestions. Format your response clearly using markdown.
Session Log:
---
`

const promptFooter = `
---
Your Analysis:`

// Transcript renders entries one per line as "15:04:05 <-- text" for IN and
// "15:04:05 --> text" for OUT.
func Transcript(entries []device.Entry, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		arrow := "-->"
		if e.Direction == device.In {
			arrow = "<--"
		}
		b.WriteString(e.Timestamp.In(loc).Format("15:04:05"))
		b.WriteByte(' ')
		b.WriteString(arrow)
		b.WriteByte(' ')
		b.WriteString(e.Text)
	}
	return b.String()
}

// Prompt builds the analysis prompt for entries.
func Prompt(entries []device.Entry, loc *time.Location) string {
	return promptHeader + Transcript(entries, loc) + promptFooter
}

// Summarize asks gen for a markdown analysis of entries.
func Summarize(ctx context.Context, gen genai.Generator, entries []device.Entry, loc *time.Location) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoEntries
	}
	if gen == nil {
		return "", genai.ErrUnavailable
	}
	out, err := gen.Generate(ctx, Prompt(entries, loc))
	if err != nil {
		return "", fmt.Errorf("analyze session: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Analyzer binds a generator and display location for repeated summaries.
type Analyzer struct {
	Gen      genai.Generator
	Location *time.Location
}

// Summarize analyzes entries with the bound generator.
func (a Analyzer) Summarize(ctx context.Context, entries []device.Entry) (string, error) {
	return Summarize(ctx, a.Gen, entries, a.Location)
}
