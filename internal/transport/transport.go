package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/five82/neuroglove/internal/device"
)

var (
	// ErrUnsupported is returned when the platform lacks the requested transport.
	ErrUnsupported = errors.New("transport not supported on this platform")
	// ErrCancelled is returned when the operator backs out of device selection.
	ErrCancelled = errors.New("device selection cancelled")
	// ErrNoDevice is returned when no candidate device is present.
	ErrNoDevice = errors.New("no device found")
)

const DefaultBaudRate = 9600

// Options describe which device to open and how.
type Options struct {
	Kind     device.Kind
	Device   string // port path; empty selects by enumeration
	BaudRate int
	Address  string // wireless peer address, used for signal queries
}

// Provider hands out device handles. RequestDevice performs device selection
// but does not open the device.
type Provider interface {
	RequestDevice(ctx context.Context, opts Options) (Handle, error)
}

// Handle is one selected device. Read and Write are only valid between Open
// and Close. Close must unblock a pending Read.
type Handle interface {
	io.ReadWriteCloser
	Open(ctx context.Context) error
	Metadata() device.Descriptor
}

// SignalReader is implemented by handles that can report link quality.
type SignalReader interface {
	SignalStrength(ctx context.Context) (int, error)
}

// PortInfo describes an enumerated port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VendorID     *uint16
	ProductID    *uint16
	SerialNumber string
	Product      string
}

// Label renders the port for pickers and listings.
func (p PortInfo) Label() string {
	if !p.IsUSB || p.VendorID == nil || p.ProductID == nil {
		return p.Name
	}
	label := fmt.Sprintf("%s (USB %04x:%04x)", p.Name, *p.VendorID, *p.ProductID)
	if p.Product != "" {
		label += " " + p.Product
	}
	return label
}

// Chooser picks one port out of several candidates. Returning ErrCancelled
// aborts the connect.
type Chooser interface {
	Choose(ctx context.Context, ports []PortInfo) (PortInfo, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(ctx context.Context, ports []PortInfo) (PortInfo, error)

func (f ChooserFunc) Choose(ctx context.Context, ports []PortInfo) (PortInfo, error) {
	return f(ctx, ports)
}

// FirstUSB prefers the first USB port and falls back to the first port.
var FirstUSB = ChooserFunc(func(_ context.Context, ports []PortInfo) (PortInfo, error) {
	if len(ports) == 0 {
		return PortInfo{}, ErrNoDevice
	}
	for _, p := range ports {
		if p.IsUSB {
			return p, nil
		}
	}
	return ports[0], nil
})
