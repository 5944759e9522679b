// Package state provides the thread-safe snapshot shared between the session
// recorder and the UI.
//
// # Overview
//
// The recorder goroutine in package app drains session subscriptions and
// writes into a Store. The UI reads Snapshot on every refresh tick.
//
//	Producer (recorder):            Consumer (UI):
//	┌──────────────────────┐       ┌──────────────────┐
//	│ sub.States()         │       │                  │
//	│   → SetConnection()  │       │                  │
//	│ sub.Entries()        │──────→│ store.Snapshot() │
//	│   → Append()         │(mutex)│      ↓           │
//	│   → RecordPersist()  │       │  render views    │
//	└──────────────────────┘       └──────────────────┘
//
// # Entry Buffer
//
// Entries are kept in exchange order up to Capacity (DefaultCapacity when
// zero). Older entries are evicted and counted in Dropped; the day records in
// logstore are unaffected.
//
// # Errors
//
//   - LastError: error carried by the latest connection event. Cleared by a
//     clean event.
//   - ConsecutivePersistFailures: storage failures in a row. Two or more mark
//     the snapshot StorageDegraded so the status bar can warn the operator.
//
// # Defensive Copying
//
// Snapshot copies the entry slice, the descriptor and wraps stored errors so
// the UI never shares memory with the recorder.
//
// The zero Store is ready to use.
package state
