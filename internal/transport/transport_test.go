package transport

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/five82/neuroglove/internal/device"
)

func u16(v uint16) *uint16 { return &v }

func TestPlatform_UnsupportedOS(t *testing.T) {
	p := NewPlatform()
	p.goos = "plan9"
	if _, err := p.RequestDevice(context.Background(), Options{Kind: device.KindSerial}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("serial err = %v, want ErrUnsupported", err)
	}
	p.goos = "darwin"
	if _, err := p.RequestDevice(context.Background(), Options{Kind: device.KindWireless}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("wireless err = %v, want ErrUnsupported", err)
	}
}

func TestPlatform_SerialSelection(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyACM0", IsUSB: true, VendorID: u16(0x2341), ProductID: u16(0x0043)},
	}
	p := NewPlatform(WithPortLister(func() ([]PortInfo, error) { return ports, nil }))
	p.goos = "linux"

	h, err := p.RequestDevice(context.Background(), Options{Kind: device.KindSerial, BaudRate: 9600})
	if err != nil {
		t.Fatalf("RequestDevice returned error: %v", err)
	}
	meta := h.Metadata()
	if meta.Port != "/dev/ttyACM0" {
		t.Fatalf("Port = %q, want first USB port", meta.Port)
	}
	if meta.BaudRate != 9600 {
		t.Fatalf("BaudRate = %d, want 9600", meta.BaudRate)
	}
	if meta.USBVendorID == nil || *meta.USBVendorID != 0x2341 {
		t.Fatalf("USBVendorID = %v, want 0x2341", meta.USBVendorID)
	}

	// Explicit path is enriched from enumeration.
	h, err = p.RequestDevice(context.Background(), Options{Kind: device.KindSerial, Device: "/dev/ttyACM0"})
	if err != nil {
		t.Fatalf("RequestDevice returned error: %v", err)
	}
	if got := h.Metadata(); got.USBProductID == nil || *got.USBProductID != 0x0043 {
		t.Fatalf("USBProductID = %v, want 0x0043", got.USBProductID)
	}
	if got := h.Metadata(); got.BaudRate != DefaultBaudRate {
		t.Fatalf("BaudRate = %d, want default %d", got.BaudRate, DefaultBaudRate)
	}
}

func TestPlatform_NoPorts(t *testing.T) {
	p := NewPlatform(WithPortLister(func() ([]PortInfo, error) { return nil, nil }))
	p.goos = "linux"
	if _, err := p.RequestDevice(context.Background(), Options{Kind: device.KindSerial}); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestPlatform_ChooserCancel(t *testing.T) {
	ports := []PortInfo{{Name: "/dev/ttyUSB0"}, {Name: "/dev/ttyUSB1"}}
	ctx, cancel := context.WithCancel(context.Background())
	chooser := ChooserFunc(func(ctx context.Context, _ []PortInfo) (PortInfo, error) {
		cancel()
		<-ctx.Done()
		return PortInfo{}, ctx.Err()
	})
	p := NewPlatform(WithPortLister(func() ([]PortInfo, error) { return ports, nil }), WithChooser(chooser))
	p.goos = "linux"
	if _, err := p.RequestDevice(ctx, Options{Kind: device.KindSerial}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func TestPlatform_WirelessMissingDevice(t *testing.T) {
	p := NewPlatform()
	p.goos = "linux"
	p.stat = func(string) error { return os.ErrNotExist }
	if _, err := p.RequestDevice(context.Background(), Options{Kind: device.KindWireless}); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}

func TestPlatform_WirelessSignal(t *testing.T) {
	var gotArgs []string
	prober := BluetoothCtl{Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("Device AA:BB:CC:DD:EE:FF\n\tName: glove\n\tRSSI: 0xffffffc4 (-60)\n"), nil
	}}
	p := NewPlatform(WithSignalProber(prober))
	p.goos = "linux"
	p.stat = func(string) error { return nil }

	h, err := p.RequestDevice(context.Background(), Options{Kind: device.KindWireless, Address: "AA:BB:CC:DD:EE:FF"})
	if err != nil {
		t.Fatalf("RequestDevice returned error: %v", err)
	}
	if meta := h.Metadata(); meta.Kind != device.KindWireless || meta.Port != DefaultRFCOMMDevice {
		t.Fatalf("Metadata = %+v, want wireless on %s", meta, DefaultRFCOMMDevice)
	}
	sr, ok := h.(SignalReader)
	if !ok {
		t.Fatalf("wireless handle does not implement SignalReader")
	}
	dbm, err := sr.SignalStrength(context.Background())
	if err != nil {
		t.Fatalf("SignalStrength returned error: %v", err)
	}
	if dbm != -60 {
		t.Fatalf("SignalStrength = %d, want -60", dbm)
	}
	if len(gotArgs) != 3 || gotArgs[0] != "bluetoothctl" || gotArgs[2] != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("command = %v", gotArgs)
	}
}

func TestParseRSSI(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"\tRSSI: -72\n", -72, false},
		{"\tRSSI: 0xffffffb0 (-80)\n", -80, false},
		{"\tName: glove\n", 0, true},
	}
	for _, tc := range cases {
		got, err := parseRSSI(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseRSSI(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("parseRSSI(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPortInfoLabel(t *testing.T) {
	p := PortInfo{Name: "/dev/ttyACM0", IsUSB: true, VendorID: u16(0x2341), ProductID: u16(0x43), Product: "Uno"}
	if got, want := p.Label(), "/dev/ttyACM0 (USB 2341:0043) Uno"; got != want {
		t.Fatalf("Label = %q, want %q", got, want)
	}
	if got := (PortInfo{Name: "COM3"}).Label(); got != "COM3" {
		t.Fatalf("Label = %q, want COM3", got)
	}
}

func TestSerialPort_ReadBeforeOpenFails(t *testing.T) {
	s := newSerialPort(PortInfo{Name: "/dev/null-port"}, 0)
	if _, err := s.Read(make([]byte, 1)); err == nil {
		t.Fatalf("Read before Open returned nil error")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close before Open returned %v, want nil", err)
	}
}
