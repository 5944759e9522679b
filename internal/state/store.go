package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/neuroglove/internal/device"
)

// DefaultCapacity bounds the entries kept for display.
const DefaultCapacity = 5000

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Connection device.State
	Descriptor *device.Descriptor
	Entries    []device.Entry
	Dropped    int // entries evicted from the display buffer
	Sent       int
	Received   int

	LastError   error
	LastUpdated time.Time

	ConsecutivePersistFailures int
	LastPersistError           error
}

// StorageDegraded reports repeated failures to persist entries.
func (s Snapshot) StorageDegraded() bool {
	return s.ConsecutivePersistFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	// Capacity overrides DefaultCapacity when positive.
	Capacity int

	mu       sync.RWMutex
	snapshot Snapshot
}

// SetConnection records a connection transition. An event error is kept as
// LastError; a clean event clears it.
func (s *Store) SetConnection(ev device.StateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Connection = ev.State
	if ev.Descriptor != nil {
		d := ev.Descriptor.Clone()
		s.snapshot.Descriptor = &d
	} else {
		s.snapshot.Descriptor = nil
	}
	s.snapshot.LastError = ev.Err
	s.snapshot.LastUpdated = time.Now()
}

// Append adds an exchanged line, evicting the oldest beyond capacity.
func (s *Store) Append(e device.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.Capacity
	if limit <= 0 {
		limit = DefaultCapacity
	}
	s.snapshot.Entries = append(s.snapshot.Entries, e)
	if over := len(s.snapshot.Entries) - limit; over > 0 {
		s.snapshot.Entries = append(s.snapshot.Entries[:0:0], s.snapshot.Entries[over:]...)
		s.snapshot.Dropped += over
	}
	if e.Direction == device.Out {
		s.snapshot.Sent++
	} else {
		s.snapshot.Received++
	}
	s.snapshot.LastUpdated = time.Now()
}

// RecordPersist tracks the outcome of storing an entry.
func (s *Store) RecordPersist(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.ConsecutivePersistFailures++
		s.snapshot.LastPersistError = err
		return
	}
	s.snapshot.ConsecutivePersistFailures = 0
	s.snapshot.LastPersistError = nil
}

// Clear empties the display buffer and counters. Stored records are not
// touched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Entries = nil
	s.snapshot.Dropped = 0
	s.snapshot.Sent = 0
	s.snapshot.Received = 0
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = cloneEntries(s.snapshot.Entries)
	if s.snapshot.Descriptor != nil {
		d := s.snapshot.Descriptor.Clone()
		snap.Descriptor = &d
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	if s.snapshot.LastPersistError != nil {
		snap.LastPersistError = fmt.Errorf("%w", s.snapshot.LastPersistError)
	}
	return snap
}

func cloneEntries(items []device.Entry) []device.Entry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]device.Entry, len(items))
	copy(dup, items)
	return dup
}
