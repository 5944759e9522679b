package device

import (
	"fmt"
	"strings"
	"time"
)

// Direction records which side of the link produced a line.
type Direction int

const (
	// In lines originate from the device.
	In Direction = iota
	// Out lines were sent by the operator.
	Out
)

// String returns the stored marker for the direction ("IN" or "OUT").
func (d Direction) String() string {
	if d == Out {
		return "OUT"
	}
	return "IN"
}

// Arrow returns the glyph used when rendering the direction.
func (d Direction) Arrow() string {
	if d == Out {
		return "⟶"
	}
	return "⟵"
}

// ParseDirection converts a stored marker back into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.TrimSpace(s) {
	case "IN":
		return In, true
	case "OUT":
		return Out, true
	default:
		return In, false
	}
}

// Entry is a single exchanged line. Entries are values and are never mutated.
type Entry struct {
	Timestamp time.Time
	Text      string
	Direction Direction
}

// NewEntry stamps text with the given time.
func NewEntry(at time.Time, text string, dir Direction) Entry {
	return Entry{Timestamp: at, Text: text, Direction: dir}
}

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Kind selects the transport used to reach the device.
type Kind int

const (
	KindSerial Kind = iota
	KindWireless
)

func (k Kind) String() string {
	if k == KindWireless {
		return "wireless"
	}
	return "serial"
}

// ParseKind accepts "serial"/"usb" and "wireless"/"bluetooth"/"bt".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "serial", "usb", "":
		return KindSerial, nil
	case "wireless", "bluetooth", "bt":
		return KindWireless, nil
	default:
		return KindSerial, fmt.Errorf("unknown transport %q", s)
	}
}

// Descriptor carries transport metadata captured at connect time.
type Descriptor struct {
	Kind        Kind
	Port        string
	SessionID   string
	ConnectedAt time.Time

	// Serial
	BaudRate     int
	USBVendorID  *uint16
	USBProductID *uint16

	// Wireless
	Address   string
	SignalDBm *int
}

// Clone returns a deep copy so callers can hold descriptors across updates.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.USBVendorID != nil {
		v := *d.USBVendorID
		out.USBVendorID = &v
	}
	if d.USBProductID != nil {
		v := *d.USBProductID
		out.USBProductID = &v
	}
	if d.SignalDBm != nil {
		v := *d.SignalDBm
		out.SignalDBm = &v
	}
	return out
}

// WithSignal returns a copy of d with the signal strength replaced.
func (d Descriptor) WithSignal(dbm int) Descriptor {
	out := d.Clone()
	out.SignalDBm = &dbm
	return out
}

// StateEvent is published on every connection state transition.
type StateEvent struct {
	State      State
	Descriptor *Descriptor
	Err        error
}

// SignalQuality maps an RSSI reading to a coarse label.
func SignalQuality(dbm *int) string {
	if dbm == nil {
		return "N/A"
	}
	switch v := *dbm; {
	case v > -60:
		return "Excellent"
	case v > -70:
		return "Good"
	case v > -80:
		return "Fair"
	default:
		return "Poor"
	}
}
