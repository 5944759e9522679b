// Package logstore persists exchanged lines as one record per local calendar
// day.
//
// Records are keyed "ng_logs_YYYY-MM-DD" and hold a JSON array of lines in
// the form "HH:MM:SS DIR text", where DIR is IN or OUT. Text is not escaped,
// so a line whose text contains " IN " or " OUT " parses ambiguously; the
// first " IN " wins. Existing records written in this format stay readable.
package logstore
