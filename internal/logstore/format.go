package logstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/neuroglove/internal/device"
)

// KeyPrefix starts every day record key.
const KeyPrefix = "ng_logs_"

const (
	dayLayout  = "2006-01-02"
	timeLayout = "15:04:05"
)

var (
	inMarker  = " " + device.In.String() + " "
	outMarker = " " + device.Out.String() + " "
)

// DayKey returns the record key for the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return KeyPrefix + t.In(loc).Format(dayLayout)
}

// ParseDayKey extracts the day from a record key.
func ParseDayKey(key string, loc *time.Location) (time.Time, bool) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dayLayout, rest, loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// FormatLine renders an entry as "HH:MM:SS DIR text" in loc. Text is stored
// verbatim.
func FormatLine(e device.Entry, loc *time.Location) string {
	return e.Timestamp.In(loc).Format(timeLayout) + " " + e.Direction.String() + " " + e.Text
}

// ParseLine reverses FormatLine for a line stored on day. The first " IN "
// is used when present, otherwise the first " OUT ". Text that itself
// contains either marker does not round-trip.
func ParseLine(line string, day time.Time) (device.Entry, error) {
	var (
		clock, text string
		dir         device.Direction
		found       bool
	)
	if clock, text, found = strings.Cut(line, inMarker); found {
		dir = device.In
	} else if clock, text, found = strings.Cut(line, outMarker); found {
		dir = device.Out
	} else {
		return device.Entry{}, fmt.Errorf("no direction marker in %q", line)
	}

	tod, err := time.Parse(timeLayout, strings.TrimSpace(clock))
	if err != nil {
		return device.Entry{}, fmt.Errorf("parse time %q: %w", clock, err)
	}
	y, m, d := day.Date()
	ts := time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), 0, day.Location())
	return device.NewEntry(ts, text, dir), nil
}
