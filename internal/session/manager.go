package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/framer"
	"github.com/five82/neuroglove/internal/transport"
)

// stateClosing marks a teardown in progress. It is reported as Connected
// until the Disconnected event is published.
const stateClosing device.State = -1

const initialSignalTimeout = 2 * time.Second

// Manager owns the single live transport session. It is safe for concurrent
// use; exactly one goroutine reads from the transport.
type Manager struct {
	provider transport.Provider
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string

	// emitMu orders state changes with their publication.
	emitMu sync.Mutex

	mu            sync.Mutex
	state         device.State
	desc          *device.Descriptor
	handle        transport.Handle
	stopLoop      context.CancelFunc
	loopDone      chan struct{}
	cancelConnect context.CancelFunc
	gen           uint64
	// settled is closed when the state next returns to Disconnected.
	settled chan struct{}

	writeMu sync.Mutex

	hub hub
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides the timestamp source for entries and descriptors.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a Manager in the Disconnected state.
func New(provider transport.Provider, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a new observer. buffer sizes both channels.
func (m *Manager) Subscribe(buffer int) *Subscription {
	return m.hub.add(buffer)
}

// State reports the current connection state.
func (m *Manager) State() device.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateClosing {
		return device.Connected
	}
	return m.state
}

// Descriptor returns a copy of the live descriptor, if connected.
func (m *Manager) Descriptor() (device.Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.desc == nil {
		return device.Descriptor{}, false
	}
	return m.desc.Clone(), true
}

// Connect selects and opens a device, then starts the read loop. It returns
// once the transport is open. Only one connect may run at a time and only
// from Disconnected.
func (m *Manager) Connect(ctx context.Context, opts transport.Options) (device.Descriptor, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.emitMu.Lock()
	m.mu.Lock()
	switch m.state {
	case device.Connecting:
		m.mu.Unlock()
		m.emitMu.Unlock()
		return device.Descriptor{}, ErrConnectInProgress
	case device.Connected, stateClosing:
		m.mu.Unlock()
		m.emitMu.Unlock()
		return device.Descriptor{}, ErrAlreadyConnected
	}
	m.state = device.Connecting
	m.cancelConnect = cancel
	m.settled = make(chan struct{})
	m.mu.Unlock()
	m.hub.publishState(device.StateEvent{State: device.Connecting})
	m.emitMu.Unlock()

	handle, err := m.open(cctx, opts)
	if err != nil {
		m.abortConnect(err)
		return device.Descriptor{}, err
	}

	desc := handle.Metadata()
	desc.SessionID = m.newID()
	desc.ConnectedAt = m.now()
	if sr, ok := handle.(transport.SignalReader); ok {
		sctx, scancel := context.WithTimeout(cctx, initialSignalTimeout)
		if dbm, err := sr.SignalStrength(sctx); err == nil {
			desc = desc.WithSignal(dbm)
		}
		scancel()
	}

	loopCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.emitMu.Lock()
	m.mu.Lock()
	if cctx.Err() != nil {
		m.mu.Unlock()
		m.emitMu.Unlock()
		stop()
		_ = handle.Close()
		m.abortConnect(ErrUserCancelled)
		return device.Descriptor{}, ErrUserCancelled
	}
	m.gen++
	gen := m.gen
	stored := desc.Clone()
	m.state = device.Connected
	m.desc = &stored
	m.handle = handle
	m.stopLoop = stop
	m.loopDone = done
	m.cancelConnect = nil
	m.mu.Unlock()

	go m.readLoop(loopCtx, handle, gen, done)

	published := desc.Clone()
	m.hub.publishState(device.StateEvent{State: device.Connected, Descriptor: &published})
	m.emitMu.Unlock()

	m.sessionLog(desc).Info("device connected")
	return desc, nil
}

func (m *Manager) open(ctx context.Context, opts transport.Options) (transport.Handle, error) {
	handle, err := m.provider.RequestDevice(ctx, opts)
	if err != nil {
		return nil, classifyOpenError("", err)
	}
	if err := handle.Open(ctx); err != nil {
		_ = handle.Close()
		return nil, classifyOpenError(handle.Metadata().Port, err)
	}
	return handle, nil
}

func classifyOpenError(port string, err error) error {
	switch {
	case errors.Is(err, transport.ErrUnsupported):
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case errors.Is(err, transport.ErrCancelled), errors.Is(err, context.Canceled):
		return ErrUserCancelled
	default:
		return &OpenError{Port: port, Err: err}
	}
}

func (m *Manager) abortConnect(cause error) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.mu.Lock()
	m.state = device.Disconnected
	m.cancelConnect = nil
	settled := m.takeSettledLocked()
	m.mu.Unlock()
	m.hub.publishState(device.StateEvent{State: device.Disconnected, Err: cause})
	close(settled)

	entry := m.log.WithError(cause)
	if errors.Is(cause, ErrUserCancelled) {
		entry.Info("connect cancelled")
		return
	}
	entry.Warn("connect failed")
}

// Send writes text plus a newline terminator. Concurrent sends are queued.
// A write failure leaves the session connected. Text must be a single line;
// a line break is rejected with ErrLineBreak before anything is written.
func (m *Manager) Send(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return ErrLineBreak
	}
	m.mu.Lock()
	if m.state != device.Connected || m.handle == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	handle := m.handle
	m.mu.Unlock()

	m.writeMu.Lock()
	err := writeFull(handle, []byte(text+"\n"))
	m.writeMu.Unlock()
	if err != nil {
		m.log.WithError(err).Warn("serial write failed")
		return &WriteError{Err: err}
	}
	m.hub.publishEntry(device.NewEntry(m.now(), text, device.Out))
	return nil
}

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// RefreshSignal re-queries wireless link quality and republishes the
// descriptor.
func (m *Manager) RefreshSignal(ctx context.Context) (int, error) {
	m.mu.Lock()
	if m.state != device.Connected || m.desc == nil {
		m.mu.Unlock()
		return 0, ErrNotConnected
	}
	if m.desc.Kind != device.KindWireless {
		m.mu.Unlock()
		return 0, ErrRefreshUnsupported
	}
	handle, gen := m.handle, m.gen
	m.mu.Unlock()

	sr, ok := handle.(transport.SignalReader)
	if !ok {
		return 0, ErrRefreshUnsupported
	}
	dbm, err := sr.SignalStrength(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrUnsupported) {
			return 0, fmt.Errorf("%w: %w", ErrRefreshUnsupported, err)
		}
		return 0, fmt.Errorf("refresh signal: %w", err)
	}

	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.mu.Lock()
	if m.gen != gen || m.state != device.Connected {
		m.mu.Unlock()
		return 0, ErrNotConnected
	}
	updated := m.desc.WithSignal(dbm)
	m.desc = &updated
	m.mu.Unlock()
	published := updated.Clone()
	m.hub.publishState(device.StateEvent{State: device.Connected, Descriptor: &published})
	return dbm, nil
}

// Disconnect tears the session down. It is safe to call in any state and
// returns once the state is Disconnected, after the read loop has exited and
// the transport close was issued. Called while connecting, it cancels the
// pending connect. Called during a teardown already under way, it waits for
// that teardown.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	switch m.state {
	case device.Disconnected:
		m.mu.Unlock()
		return
	case device.Connecting, stateClosing:
		// Cancelling under m.mu keeps Connect from completing after this point.
		if m.cancelConnect != nil {
			m.cancelConnect()
		}
		settled := m.settled
		m.mu.Unlock()
		<-settled
		return
	}
	desc := m.desc
	handle, stop, done := m.takeSessionLocked()
	m.mu.Unlock()

	stop()
	if err := handle.Close(); err != nil {
		m.log.WithError(err).Debug("close during disconnect")
	}
	<-done
	m.finish(nil)
	if desc != nil {
		m.sessionLog(*desc).Info("device disconnected")
	}
}

// takeSessionLocked moves the session into teardown. m.mu must be held.
func (m *Manager) takeSessionLocked() (transport.Handle, context.CancelFunc, chan struct{}) {
	handle, stop, done := m.handle, m.stopLoop, m.loopDone
	m.state = stateClosing
	m.handle = nil
	m.stopLoop = nil
	m.loopDone = nil
	return handle, stop, done
}

func (m *Manager) finish(cause error) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.mu.Lock()
	m.state = device.Disconnected
	m.desc = nil
	settled := m.takeSettledLocked()
	m.mu.Unlock()
	m.hub.publishState(device.StateEvent{State: device.Disconnected, Err: cause})
	close(settled)
}

// takeSettledLocked detaches the settled channel for closing. m.mu must be
// held.
func (m *Manager) takeSettledLocked() chan struct{} {
	settled := m.settled
	m.settled = nil
	if settled == nil {
		settled = make(chan struct{})
	}
	return settled
}

func (m *Manager) readLoop(ctx context.Context, handle transport.Handle, gen uint64, done chan struct{}) {
	defer close(done)
	fr := framer.New(handle)
	for {
		line, err := fr.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.lose(gen, err)
			return
		}
		m.hub.publishEntry(device.NewEntry(m.now(), line, device.In))
	}
}

// lose handles a read loop that ended without Disconnect: end of stream,
// external close or a read failure.
func (m *Manager) lose(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen || m.state != device.Connected {
		m.mu.Unlock()
		return
	}
	desc := m.desc
	handle, stop, _ := m.takeSessionLocked()
	m.mu.Unlock()

	stop()
	if err := handle.Close(); err != nil {
		m.log.WithError(err).Debug("close after connection loss")
	}
	if errors.Is(cause, io.EOF) {
		cause = ErrConnectionLost
	} else {
		cause = fmt.Errorf("%w: %w", ErrConnectionLost, cause)
	}
	m.finish(cause)
	if desc != nil {
		m.sessionLog(*desc).WithError(cause).Warn("device connection lost")
	}
}

func (m *Manager) sessionLog(d device.Descriptor) logrus.FieldLogger {
	return m.log.WithFields(logrus.Fields{
		"session":   d.SessionID,
		"transport": d.Kind.String(),
		"port":      d.Port,
	})
}
