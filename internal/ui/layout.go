package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutHistoryListWidth is the width of the day list in the history view.
	LayoutHistoryListWidth = 18
)

// Display limits.
const (
	// DiagnosticsTailLines is how many diagnostics log lines are shown.
	DiagnosticsTailLines = 500

	// AutoTranslateBacklog bounds how many earlier IN lines are translated
	// when auto-translate is switched on or the language changes.
	AutoTranslateBacklog = 50

	// SendCharLimit caps one outgoing line.
	SendCharLimit = 512
)

// Timing constants.
const (
	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = 250 * time.Millisecond

	// DiagnosticsRefresh is the minimum time between diagnostics log reads.
	DiagnosticsRefresh = time.Second

	// SignalRefreshTimeout bounds one RSSI query.
	SignalRefreshTimeout = 5 * time.Second

	// NoticeLifetime is how long a status notice stays visible.
	NoticeLifetime = 8 * time.Second
)
