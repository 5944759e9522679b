package state

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/five82/neuroglove/internal/device"
)

func TestStore_AppendAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Append(device.NewEntry(before, "open", device.Out))
	s.Append(device.NewEntry(before, "ready", device.In))

	snap := s.Snapshot()
	if len(snap.Entries) != 2 || snap.Entries[1].Text != "ready" {
		t.Fatalf("snapshot entries = %#v, want 2 entries", snap.Entries)
	}
	if snap.Sent != 1 || snap.Received != 1 {
		t.Fatalf("Sent/Received = %d/%d, want 1/1", snap.Sent, snap.Received)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Entries[0].Text = "mutated"
	if got := s.Snapshot().Entries[0].Text; got != "open" {
		t.Fatalf("Snapshot should clone entries; got %q want open", got)
	}
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	s := Store{Capacity: 3}
	for i := 0; i < 5; i++ {
		s.Append(device.NewEntry(time.Now(), fmt.Sprint(i), device.In))
	}
	snap := s.Snapshot()
	if len(snap.Entries) != 3 || snap.Entries[0].Text != "2" || snap.Entries[2].Text != "4" {
		t.Fatalf("entries = %#v, want last three", snap.Entries)
	}
	if snap.Dropped != 2 || snap.Received != 5 {
		t.Fatalf("Dropped/Received = %d/%d, want 2/5", snap.Dropped, snap.Received)
	}

	s.Clear()
	snap = s.Snapshot()
	if len(snap.Entries) != 0 || snap.Dropped != 0 || snap.Received != 0 {
		t.Fatalf("after Clear = %+v", snap)
	}
}

func TestStore_SetConnection(t *testing.T) {
	var s Store
	dbm := -65
	desc := &device.Descriptor{Kind: device.KindWireless, Port: "/dev/rfcomm0", SignalDBm: &dbm}

	s.SetConnection(device.StateEvent{State: device.Connected, Descriptor: desc})
	snap := s.Snapshot()
	if snap.Connection != device.Connected || snap.Descriptor == nil || *snap.Descriptor.SignalDBm != -65 {
		t.Fatalf("snapshot = %+v, want connected with descriptor", snap)
	}

	// Stored descriptor is a copy.
	dbm = -90
	*snap.Descriptor.SignalDBm = -10
	if got := *s.Snapshot().Descriptor.SignalDBm; got != -65 {
		t.Fatalf("stored signal = %d, want -65", got)
	}

	origErr := errors.New("connection lost")
	s.SetConnection(device.StateEvent{State: device.Disconnected, Err: origErr})
	snap = s.Snapshot()
	if snap.Connection != device.Disconnected || snap.Descriptor != nil {
		t.Fatalf("snapshot = %+v, want disconnected without descriptor", snap)
	}
	if snap.LastError == nil || snap.LastError.Error() != "connection lost" {
		t.Fatalf("LastError = %v, want connection lost", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}

	s.SetConnection(device.StateEvent{State: device.Connecting})
	if s.Snapshot().LastError != nil {
		t.Fatalf("clean event should clear LastError")
	}
}

func TestStore_PersistFailures(t *testing.T) {
	var s Store

	if s.Snapshot().StorageDegraded() {
		t.Fatal("StorageDegraded() = true, want false initially")
	}
	s.RecordPersist(errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutivePersistFailures != 1 || snap.StorageDegraded() {
		t.Fatalf("after one failure = %+v", snap)
	}
	s.RecordPersist(errors.New("fail 2"))
	if snap := s.Snapshot(); !snap.StorageDegraded() || snap.LastPersistError.Error() != "fail 2" {
		t.Fatalf("after two failures = %+v", snap)
	}
	s.RecordPersist(nil)
	if snap := s.Snapshot(); snap.ConsecutivePersistFailures != 0 || snap.LastPersistError != nil {
		t.Fatalf("success should reset failures; got %+v", snap)
	}
}
