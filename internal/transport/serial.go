package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/five82/neuroglove/internal/device"
)

// ListPorts enumerates serial ports with USB details where available.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		info := PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		}
		if d.IsUSB {
			info.VendorID = parseHexID(d.VID)
			info.ProductID = parseHexID(d.PID)
		}
		ports = append(ports, info)
	}
	return ports, nil
}

func parseHexID(s string) *uint16 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 16)
	if err != nil {
		return nil
	}
	id := uint16(v)
	return &id
}

// serialPort is an opened or openable port backed by go.bug.st/serial.
type serialPort struct {
	info PortInfo
	mode *serial.Mode

	mu   sync.Mutex
	port serial.Port
}

func newSerialPort(info PortInfo, baud int) *serialPort {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serialPort{
		info: info,
		mode: &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit},
	}
}

func (s *serialPort) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	port, err := serial.Open(s.info.Name, s.mode)
	if err != nil {
		return describePortError(s.info.Name, err)
	}
	if err := ctx.Err(); err != nil {
		_ = port.Close()
		return err
	}
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()
	return nil
}

func (s *serialPort) current() (serial.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, fmt.Errorf("port %s is not open", s.info.Name)
	}
	return s.port, nil
}

func (s *serialPort) Read(p []byte) (int, error) {
	port, err := s.current()
	if err != nil {
		return 0, err
	}
	return port.Read(p)
}

func (s *serialPort) Write(p []byte) (int, error) {
	port, err := s.current()
	if err != nil {
		return 0, err
	}
	return port.Write(p)
}

func (s *serialPort) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

func (s *serialPort) Metadata() device.Descriptor {
	return device.Descriptor{
		Kind:         device.KindSerial,
		Port:         s.info.Name,
		BaudRate:     s.mode.BaudRate,
		USBVendorID:  s.info.VendorID,
		USBProductID: s.info.ProductID,
	}
}

func describePortError(name string, err error) error {
	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return fmt.Errorf("open %s: %w", name, err)
	}
	switch portErr.Code() {
	case serial.PortBusy:
		return fmt.Errorf("open %s: port busy: %w", name, err)
	case serial.PortNotFound:
		return fmt.Errorf("open %s: %w: %w", name, ErrNoDevice, err)
	case serial.PermissionDenied:
		return fmt.Errorf("open %s: permission denied: %w", name, err)
	case serial.InvalidSpeed:
		return fmt.Errorf("open %s: unsupported baud rate: %w", name, err)
	case serial.FunctionNotImplemented:
		return fmt.Errorf("open %s: %w", name, ErrUnsupported)
	default:
		return fmt.Errorf("open %s: %w", name, err)
	}
}
