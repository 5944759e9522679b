package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/five82/neuroglove/internal/device"
)

var serialPlatforms = map[string]bool{
	"linux": true, "darwin": true, "windows": true, "freebsd": true, "openbsd": true,
}

// Platform is the Provider for the host machine.
type Platform struct {
	chooser   Chooser
	listPorts func() ([]PortInfo, error)
	stat      func(string) error
	prober    SignalProber
	goos      string
}

// PlatformOption configures a Platform.
type PlatformOption func(*Platform)

// WithChooser sets how a port is picked when several are present.
func WithChooser(c Chooser) PlatformOption {
	return func(p *Platform) {
		if c != nil {
			p.chooser = c
		}
	}
}

// WithSignalProber replaces the bluetoothctl RSSI probe.
func WithSignalProber(sp SignalProber) PlatformOption {
	return func(p *Platform) { p.prober = sp }
}

// WithPortLister replaces serial port enumeration.
func WithPortLister(fn func() ([]PortInfo, error)) PlatformOption {
	return func(p *Platform) {
		if fn != nil {
			p.listPorts = fn
		}
	}
}

// NewPlatform builds a Provider for the running OS.
func NewPlatform(opts ...PlatformOption) *Platform {
	p := &Platform{
		chooser:   FirstUSB,
		listPorts: ListPorts,
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
		prober: BluetoothCtl{},
		goos:   runtime.GOOS,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestDevice selects a device for opts.Kind. It never opens the device.
func (p *Platform) RequestDevice(ctx context.Context, opts Options) (Handle, error) {
	switch opts.Kind {
	case device.KindSerial:
		if !serialPlatforms[p.goos] {
			return nil, ErrUnsupported
		}
		info, err := p.selectSerial(ctx, opts)
		if err != nil {
			return nil, err
		}
		return newSerialPort(info, opts.BaudRate), nil
	case device.KindWireless:
		// RFCOMM TTYs are a BlueZ feature.
		if p.goos != "linux" {
			return nil, ErrUnsupported
		}
		path := strings.TrimSpace(opts.Device)
		if path == "" {
			path = DefaultRFCOMMDevice
		}
		if err := p.stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w (bind it with `rfcomm bind`)", path, ErrNoDevice)
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		return newWirelessPort(path, opts.BaudRate, opts.Address, p.prober), nil
	default:
		return nil, ErrUnsupported
	}
}

func (p *Platform) selectSerial(ctx context.Context, opts Options) (PortInfo, error) {
	name := strings.TrimSpace(opts.Device)
	ports, listErr := p.listPorts()
	if name != "" {
		// Enumeration only enriches an explicit path with USB ids.
		for _, port := range ports {
			if port.Name == name {
				return port, nil
			}
		}
		return PortInfo{Name: name}, nil
	}
	if listErr != nil {
		return PortInfo{}, listErr
	}
	switch len(ports) {
	case 0:
		return PortInfo{}, ErrNoDevice
	case 1:
		return ports[0], nil
	}
	chosen, err := p.chooser.Choose(ctx, ports)
	if err != nil {
		if ctx.Err() != nil {
			return PortInfo{}, ErrCancelled
		}
		return PortInfo{}, err
	}
	return chosen, nil
}
