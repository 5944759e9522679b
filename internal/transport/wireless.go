package transport

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/five82/neuroglove/internal/device"
)

// DefaultRFCOMMDevice is the TTY that `rfcomm bind` creates for the first link.
const DefaultRFCOMMDevice = "/dev/rfcomm0"

// SignalProber queries link quality for a wireless peer.
type SignalProber interface {
	Probe(ctx context.Context, address string) (int, error)
}

// wirelessPort is an RFCOMM serial link. The byte stream goes through the
// bound TTY; signal strength is queried out of band.
type wirelessPort struct {
	*serialPort
	address string
	prober  SignalProber
}

func newWirelessPort(path string, baud int, address string, prober SignalProber) *wirelessPort {
	return &wirelessPort{
		serialPort: newSerialPort(PortInfo{Name: path}, baud),
		address:    address,
		prober:     prober,
	}
}

func (w *wirelessPort) Metadata() device.Descriptor {
	return device.Descriptor{
		Kind:     device.KindWireless,
		Port:     w.info.Name,
		BaudRate: w.mode.BaudRate,
		Address:  w.address,
	}
}

func (w *wirelessPort) SignalStrength(ctx context.Context) (int, error) {
	if w.prober == nil || strings.TrimSpace(w.address) == "" {
		return 0, ErrUnsupported
	}
	return w.prober.Probe(ctx, w.address)
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// BluetoothCtl reads RSSI from `bluetoothctl info <addr>`.
type BluetoothCtl struct {
	Run CommandRunner
}

var rssiPattern = regexp.MustCompile(`RSSI:\s*(?:0x[0-9a-fA-F]+\s*\()?(-?\d+)`)

// Probe returns the RSSI in dBm reported for address.
func (b BluetoothCtl) Probe(ctx context.Context, address string) (int, error) {
	run := b.Run
	if run == nil {
		run = execRunner
	}
	out, err := run(ctx, "bluetoothctl", "info", address)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, ErrUnsupported
		}
		return 0, fmt.Errorf("bluetoothctl info %s: %w", address, err)
	}
	return parseRSSI(string(out))
}

func parseRSSI(out string) (int, error) {
	m := rssiPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no RSSI reported")
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("parse RSSI %q: %w", m[1], err)
	}
	return v, nil
}
