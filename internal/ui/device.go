package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/session"
	"github.com/five82/neuroglove/internal/transport"
)

type connectResultMsg struct {
	kind device.Kind
	desc device.Descriptor
	err  error
}

type disconnectedMsg struct{}

type sendResultMsg struct {
	text string
	err  error
}

type signalMsg struct {
	dbm int
	err error
}

// connectOptions builds transport options for kind from the configuration.
func (m Model) connectOptions(kind device.Kind) transport.Options {
	opts := transport.Options{Kind: kind, BaudRate: m.cfg.Serial.BaudRate}
	switch kind {
	case device.KindWireless:
		opts.Device = m.cfg.Wireless.Device
		opts.Address = m.cfg.Wireless.Address
	default:
		opts.Device = m.cfg.Serial.Device
	}
	return opts
}

func (m *Model) connect(kind device.Kind) tea.Cmd {
	if m.session == nil {
		return nil
	}
	m.setNotice(noticeInfo, "Connecting over "+kind.String()+"...")
	return connectCmd(m.ctx, m.session, kind, m.connectOptions(kind))
}

func connectCmd(ctx context.Context, s Session, kind device.Kind, opts transport.Options) tea.Cmd {
	return func() tea.Msg {
		desc, err := s.Connect(ctx, opts)
		return connectResultMsg{kind: kind, desc: desc, err: err}
	}
}

func disconnectCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		s.Disconnect()
		return disconnectedMsg{}
	}
}

func sendCmd(s Session, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{text: text, err: s.Send(text)}
	}
}

func refreshSignalCmd(ctx context.Context, s Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, SignalRefreshTimeout)
		defer cancel()
		dbm, err := s.RefreshSignal(ctx)
		return signalMsg{dbm: dbm, err: err}
	}
}

func (m *Model) handleConnectResult(msg connectResultMsg) {
	if msg.err != nil {
		level := noticeError
		if errors.Is(msg.err, session.ErrUserCancelled) {
			level = noticeInfo
		}
		m.setNotice(level, describeConnectError(msg.kind, msg.err))
		return
	}
	m.setNotice(noticeInfo, fmt.Sprintf("Connected to %s", msg.desc.Port))
}

// describeConnectError renders a connect failure for the operator.
func describeConnectError(kind device.Kind, err error) string {
	switch {
	case errors.Is(err, session.ErrUserCancelled):
		return "Connection cancelled"
	case errors.Is(err, session.ErrUnsupported):
		return titleCase(kind.String()) + " connections are not supported on this system"
	case errors.Is(err, session.ErrAlreadyConnected):
		return "Already connected; disconnect first"
	case errors.Is(err, session.ErrConnectInProgress):
		return "A connection attempt is already in progress"
	case errors.Is(err, transport.ErrNoDevice):
		return "No " + kind.String() + " device found"
	case errors.Is(err, session.ErrOpenFailed):
		var oe *session.OpenError
		if errors.As(err, &oe) && oe.Port != "" {
			return fmt.Sprintf("Could not open %s: %v", oe.Port, oe.Err)
		}
		return "Could not open device: " + err.Error()
	default:
		return "Connect failed: " + err.Error()
	}
}

func (m *Model) handleSendResult(msg sendResultMsg) {
	if msg.err == nil {
		return
	}
	// Give the text back so it can be retried.
	if m.monitor.input.Value() == "" {
		m.monitor.input.SetValue(msg.text)
		m.monitor.input.CursorEnd()
	}
	switch {
	case errors.Is(msg.err, session.ErrNotConnected):
		m.setNotice(noticeWarn, "Not connected")
	default:
		m.setNotice(noticeError, "Send failed: "+msg.err.Error())
	}
}

func (m *Model) handleSignal(msg signalMsg) {
	switch {
	case msg.err == nil:
		dbm := msg.dbm
		m.setNotice(noticeInfo, fmt.Sprintf("Signal %s (%d dBm)", device.SignalQuality(&dbm), dbm))
	case errors.Is(msg.err, session.ErrNotConnected):
		m.setNotice(noticeWarn, "Not connected")
	case errors.Is(msg.err, session.ErrRefreshUnsupported):
		m.setNotice(noticeWarn, "Signal strength is only available on wireless connections")
	default:
		m.setNotice(noticeError, "Signal refresh failed: "+msg.err.Error())
	}
}
