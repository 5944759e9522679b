package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/transport"
)

const waitTimeout = 2 * time.Second

// fakeHandle is a pipe-backed device. Writes to toHost appear as reads.
type fakeHandle struct {
	meta    device.Descriptor
	openErr error

	fromDevice *io.PipeReader
	toHost     *io.PipeWriter

	mu       sync.Mutex
	written  bytes.Buffer
	writeErr error
	closes   int
	closeErr error
	// closeGate, when set, holds Close until it is closed.
	closeGate chan struct{}
}

func newFakeHandle(meta device.Descriptor) *fakeHandle {
	pr, pw := io.Pipe()
	return &fakeHandle{meta: meta, fromDevice: pr, toHost: pw}
}

func (h *fakeHandle) Open(ctx context.Context) error { return h.openErr }
func (h *fakeHandle) Read(p []byte) (int, error)     { return h.fromDevice.Read(p) }
func (h *fakeHandle) Metadata() device.Descriptor    { return h.meta }

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	return h.written.Write(p)
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closes++
	err := h.closeErr
	gate := h.closeGate
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}
	_ = h.fromDevice.Close()
	return err
}

func (h *fakeHandle) emit(t *testing.T, s string) {
	t.Helper()
	if _, err := h.toHost.Write([]byte(s)); err != nil {
		t.Fatalf("device write: %v", err)
	}
}

func (h *fakeHandle) writtenString() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.written.String()
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closes
}

type wirelessHandle struct {
	*fakeHandle
	dbm int
}

func (w *wirelessHandle) SignalStrength(ctx context.Context) (int, error) { return w.dbm, nil }

type fakeProvider struct {
	handle transport.Handle
	err    error
	block  chan struct{}
	opts   transport.Options
}

func (p *fakeProvider) RequestDevice(ctx context.Context, opts transport.Options) (transport.Handle, error) {
	p.opts = opts
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.handle, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newManager(p transport.Provider) *Manager {
	return New(p, WithLogger(quietLogger()))
}

func serialMeta() device.Descriptor {
	return device.Descriptor{Kind: device.KindSerial, Port: "/dev/ttyACM0", BaudRate: 9600}
}

func nextState(t *testing.T, sub *Subscription) device.StateEvent {
	t.Helper()
	select {
	case ev := <-sub.States():
		return ev
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for state event")
		return device.StateEvent{}
	}
}

func nextEntry(t *testing.T, sub *Subscription) device.Entry {
	t.Helper()
	select {
	case e := <-sub.Entries():
		return e
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for entry")
		return device.Entry{}
	}
}

func expectNoEntry(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case e := <-sub.Entries():
		t.Fatalf("unexpected entry %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func connect(t *testing.T, m *Manager, sub *Subscription, opts transport.Options) device.Descriptor {
	t.Helper()
	desc, err := m.Connect(context.Background(), opts)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if ev := nextState(t, sub); ev.State != device.Connecting {
		t.Fatalf("first event = %v, want connecting", ev.State)
	}
	if ev := nextState(t, sub); ev.State != device.Connected || ev.Descriptor == nil {
		t.Fatalf("second event = %+v, want connected with descriptor", ev)
	}
	return desc
}

func TestConnect_SerialDescriptorAndState(t *testing.T) {
	h := newFakeHandle(serialMeta())
	p := &fakeProvider{handle: h}
	m := newManager(p)
	sub := m.Subscribe(8)
	defer sub.Close()

	desc := connect(t, m, sub, transport.Options{Kind: device.KindSerial, BaudRate: 9600})
	if desc.BaudRate != 9600 {
		t.Fatalf("BaudRate = %d, want 9600", desc.BaudRate)
	}
	if desc.SessionID == "" || desc.ConnectedAt.IsZero() {
		t.Fatalf("descriptor missing session id or time: %+v", desc)
	}
	if p.opts.BaudRate != 9600 {
		t.Fatalf("provider got baud %d, want 9600", p.opts.BaudRate)
	}
	if m.State() != device.Connected {
		t.Fatalf("State = %v, want connected", m.State())
	}
	if got, ok := m.Descriptor(); !ok || got.Port != "/dev/ttyACM0" {
		t.Fatalf("Descriptor = %+v, %v", got, ok)
	}

	m.Disconnect()
	if ev := nextState(t, sub); ev.State != device.Disconnected || ev.Err != nil || ev.Descriptor != nil {
		t.Fatalf("disconnect event = %+v, want clean disconnected", ev)
	}
	if _, ok := m.Descriptor(); ok {
		t.Fatalf("descriptor should be cleared after disconnect")
	}
}

func TestConnect_RejectedWhileConnected(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})

	if _, err := m.Connect(context.Background(), transport.Options{}); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second Connect err = %v, want ErrAlreadyConnected", err)
	}
	select {
	case ev := <-sub.States():
		t.Fatalf("rejected connect published %+v", ev)
	default:
	}
	if h.closeCount() != 0 {
		t.Fatalf("rejected connect closed the live handle")
	}
	m.Disconnect()
}

func TestConnect_InProgressRejectedAndCancelledByDisconnect(t *testing.T) {
	p := &fakeProvider{handle: newFakeHandle(serialMeta()), block: make(chan struct{})}
	m := newManager(p)
	sub := m.Subscribe(8)
	defer sub.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Connect(context.Background(), transport.Options{})
		errCh <- err
	}()
	if ev := nextState(t, sub); ev.State != device.Connecting {
		t.Fatalf("event = %v, want connecting", ev.State)
	}

	if _, err := m.Connect(context.Background(), transport.Options{}); !errors.Is(err, ErrConnectInProgress) {
		t.Fatalf("concurrent Connect err = %v, want ErrConnectInProgress", err)
	}

	m.Disconnect()
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrUserCancelled) {
			t.Fatalf("Connect err = %v, want ErrUserCancelled", err)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("pending connect not cancelled")
	}
	if ev := nextState(t, sub); ev.State != device.Disconnected || !errors.Is(ev.Err, ErrUserCancelled) {
		t.Fatalf("event = %+v, want disconnected with ErrUserCancelled", ev)
	}
}

func TestConnect_Errors(t *testing.T) {
	openFail := newFakeHandle(serialMeta())
	openFail.openErr = errors.New("permission denied")

	tests := []struct {
		name     string
		provider *fakeProvider
		want     error
	}{
		{"unsupported", &fakeProvider{err: transport.ErrUnsupported}, ErrUnsupported},
		{"cancelled", &fakeProvider{err: transport.ErrCancelled}, ErrUserCancelled},
		{"no device", &fakeProvider{err: transport.ErrNoDevice}, ErrOpenFailed},
		{"open failure", &fakeProvider{handle: openFail}, ErrOpenFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(tt.provider)
			sub := m.Subscribe(8)
			defer sub.Close()

			_, err := m.Connect(context.Background(), transport.Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Connect err = %v, want %v", err, tt.want)
			}
			nextState(t, sub) // connecting
			ev := nextState(t, sub)
			if ev.State != device.Disconnected || ev.Err == nil {
				t.Fatalf("event = %+v, want disconnected with error", ev)
			}
			if m.State() != device.Disconnected {
				t.Fatalf("State = %v, want disconnected", m.State())
			}
		})
	}

	var openErr *OpenError
	m := newManager(&fakeProvider{handle: openFail})
	_, err := m.Connect(context.Background(), transport.Options{})
	if !errors.As(err, &openErr) || openErr.Port != "/dev/ttyACM0" {
		t.Fatalf("err = %v, want *OpenError for /dev/ttyACM0", err)
	}
	if openFail.closeCount() == 0 {
		t.Fatalf("handle not released after open failure")
	}
}

func TestSend_AppendsNewlineAndEmitsOut(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	defer m.Disconnect()

	if err := m.Send("open"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	e := nextEntry(t, sub)
	if e.Direction != device.Out || e.Text != "open" {
		t.Fatalf("entry = %+v, want OUT open", e)
	}
	if got := h.writtenString(); got != "open\n" {
		t.Fatalf("written = %q, want %q", got, "open\n")
	}
}

func TestSend_RejectsLineBreaks(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	defer m.Disconnect()

	for _, text := range []string{"LED ON\nLED OFF", "ping\r", "\n"} {
		if err := m.Send(text); !errors.Is(err, ErrLineBreak) {
			t.Fatalf("Send(%q) err = %v, want ErrLineBreak", text, err)
		}
	}
	if got := h.writtenString(); got != "" {
		t.Fatalf("written = %q, want nothing", got)
	}
	expectNoEntry(t, sub)
}

func TestSend_NotConnected(t *testing.T) {
	m := newManager(&fakeProvider{})
	sub := m.Subscribe(8)
	defer sub.Close()

	if err := m.Send("open"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send err = %v, want ErrNotConnected", err)
	}
	expectNoEntry(t, sub)
}

func TestSend_WriteFailureKeepsSession(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	defer m.Disconnect()

	h.mu.Lock()
	h.writeErr = errors.New("io timeout")
	h.mu.Unlock()

	err := m.Send("close")
	var werr *WriteError
	if !errors.As(err, &werr) || !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("Send err = %v, want *WriteError", err)
	}
	expectNoEntry(t, sub)
	if m.State() != device.Connected {
		t.Fatalf("State = %v, want still connected", m.State())
	}

	h.mu.Lock()
	h.writeErr = nil
	h.mu.Unlock()
	if err := m.Send("close"); err != nil {
		t.Fatalf("retry Send returned error: %v", err)
	}
}

func TestSend_ConcurrentWritesDoNotInterleave(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(64)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	defer m.Disconnect()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Send("abcdef")
		}()
	}
	wg.Wait()
	want := bytes.Repeat([]byte("abcdef\n"), 20)
	if got := h.writtenString(); got != string(want) {
		t.Fatalf("interleaved writes: %q", got)
	}
}

func TestReadLoop_EmitsTrimmedLinesInOrder(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	defer m.Disconnect()

	go func() {
		_, _ = h.toHost.Write([]byte("ready\r\n"))
		_, _ = h.toHost.Write([]byte("READ"))
		_, _ = h.toHost.Write([]byte("Y\nA\nB\n"))
	}()
	for _, want := range []string{"ready", "READY", "A", "B"} {
		e := nextEntry(t, sub)
		if e.Direction != device.In || e.Text != want {
			t.Fatalf("entry = %+v, want IN %q", e, want)
		}
	}
}

func TestDisconnect_Idempotent(t *testing.T) {
	m := newManager(&fakeProvider{})
	m.Disconnect()
	m.Disconnect()
	if m.State() != device.Disconnected {
		t.Fatalf("State = %v, want disconnected", m.State())
	}

	h := newFakeHandle(serialMeta())
	m = newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	m.Disconnect()
	m.Disconnect()
	nextState(t, sub)
	select {
	case ev := <-sub.States():
		t.Fatalf("second disconnect published %+v", ev)
	default:
	}
	if h.closeCount() != 1 {
		t.Fatalf("close count = %d, want 1", h.closeCount())
	}
}

func TestDisconnect_ConcurrentCallersWaitForTeardown(t *testing.T) {
	h := newFakeHandle(serialMeta())
	h.closeGate = make(chan struct{})
	p := &fakeProvider{handle: h}
	m := newManager(p)
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})

	first := make(chan struct{})
	go func() {
		m.Disconnect()
		close(first)
	}()
	deadline := time.Now().Add(waitTimeout)
	for h.closeCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first Disconnect never closed the handle")
		}
		time.Sleep(time.Millisecond)
	}

	second := make(chan struct{})
	go func() {
		m.Disconnect()
		close(second)
	}()
	select {
	case <-second:
		t.Fatalf("second Disconnect returned while close was pending (state %v)", m.State())
	case <-time.After(50 * time.Millisecond):
	}

	close(h.closeGate)
	for name, ch := range map[string]chan struct{}{"first": first, "second": second} {
		select {
		case <-ch:
		case <-time.After(waitTimeout):
			t.Fatalf("%s Disconnect did not return", name)
		}
	}
	if m.State() != device.Disconnected {
		t.Fatalf("State = %v, want disconnected", m.State())
	}
	if ev := nextState(t, sub); ev.State != device.Disconnected {
		t.Fatalf("event = %+v, want disconnected", ev)
	}
	if h.closeCount() != 1 {
		t.Fatalf("close count = %d, want 1", h.closeCount())
	}

	p.handle = newFakeHandle(serialMeta())
	connect(t, m, sub, transport.Options{})
	m.Disconnect()
}

func TestDisconnect_UnblocksPendingReadAndSwallowsCloseError(t *testing.T) {
	h := newFakeHandle(serialMeta())
	h.closeErr = errors.New("close failed")
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})

	done := make(chan struct{})
	go func() {
		m.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatalf("Disconnect hung on pending read")
	}
	ev := nextState(t, sub)
	if ev.State != device.Disconnected || ev.Err != nil {
		t.Fatalf("event = %+v, want clean disconnected", ev)
	}
}

func TestReadLoop_DeviceHangupDisconnects(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})

	h.emit(t, "bye\n")
	if e := nextEntry(t, sub); e.Text != "bye" {
		t.Fatalf("entry = %+v, want bye", e)
	}
	_ = h.toHost.Close()

	ev := nextState(t, sub)
	if ev.State != device.Disconnected || !errors.Is(ev.Err, ErrConnectionLost) {
		t.Fatalf("event = %+v, want disconnected with ErrConnectionLost", ev)
	}
	if m.State() != device.Disconnected {
		t.Fatalf("State = %v, want disconnected", m.State())
	}

	// A new session can be opened afterwards.
	h2 := newFakeHandle(serialMeta())
	m.provider = &fakeProvider{handle: h2}
	connect(t, m, sub, transport.Options{})
	m.Disconnect()
}

func TestReadLoop_ReadErrorDisconnects(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})

	boom := errors.New("usb unplugged")
	_ = h.toHost.CloseWithError(boom)

	ev := nextState(t, sub)
	if !errors.Is(ev.Err, ErrConnectionLost) || !errors.Is(ev.Err, boom) {
		t.Fatalf("event err = %v, want connection lost wrapping cause", ev.Err)
	}
}

func TestRefreshSignal(t *testing.T) {
	m := newManager(&fakeProvider{})
	if _, err := m.RefreshSignal(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	h := newFakeHandle(serialMeta())
	m = newManager(&fakeProvider{handle: h})
	sub := m.Subscribe(8)
	defer sub.Close()
	connect(t, m, sub, transport.Options{})
	if _, err := m.RefreshSignal(context.Background()); !errors.Is(err, ErrRefreshUnsupported) {
		t.Fatalf("serial err = %v, want ErrRefreshUnsupported", err)
	}
	m.Disconnect()
	nextState(t, sub)

	w := &wirelessHandle{
		fakeHandle: newFakeHandle(device.Descriptor{Kind: device.KindWireless, Port: "/dev/rfcomm0"}),
		dbm:        -58,
	}
	m.provider = &fakeProvider{handle: w}
	desc := connect(t, m, sub, transport.Options{Kind: device.KindWireless})
	if desc.SignalDBm == nil || *desc.SignalDBm != -58 {
		t.Fatalf("initial signal = %v, want -58", desc.SignalDBm)
	}

	w.dbm = -71
	dbm, err := m.RefreshSignal(context.Background())
	if err != nil || dbm != -71 {
		t.Fatalf("RefreshSignal = %d, %v; want -71", dbm, err)
	}
	ev := nextState(t, sub)
	if ev.State != device.Connected || ev.Descriptor == nil || *ev.Descriptor.SignalDBm != -71 {
		t.Fatalf("refresh event = %+v, want updated descriptor", ev)
	}
	if got, _ := m.Descriptor(); *got.SignalDBm != -71 {
		t.Fatalf("stored signal = %d, want -71", *got.SignalDBm)
	}
	m.Disconnect()
}

func TestSubscribe_MultipleObservers(t *testing.T) {
	h := newFakeHandle(serialMeta())
	m := newManager(&fakeProvider{handle: h})
	a := m.Subscribe(8)
	b := m.Subscribe(8)
	defer a.Close()

	connect(t, m, a, transport.Options{})
	nextState(t, b)
	nextState(t, b)

	b.Close()
	if err := m.Send("x"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if e := nextEntry(t, a); e.Text != "x" {
		t.Fatalf("entry = %+v, want x", e)
	}
	m.Disconnect()
}
