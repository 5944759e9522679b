package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/neuroglove/internal/transport"
)

// Picker lets the operator choose a serial port from inside the TUI. It
// implements transport.Chooser: Choose blocks the connecting goroutine until
// the operator picks a port, cancels, or ctx ends.
type Picker struct {
	requests chan pickRequest
}

var _ transport.Chooser = (*Picker)(nil)

type pickRequest struct {
	ports []transport.PortInfo
	reply chan pickReply
}

type pickReply struct {
	port transport.PortInfo
	err  error
}

// answer delivers the first reply; later replies are dropped.
func (r pickRequest) answer(port transport.PortInfo, err error) {
	select {
	case r.reply <- pickReply{port: port, err: err}:
	default:
	}
}

// NewPicker creates a picker. It must be handed to the UI through Options.
func NewPicker() *Picker {
	return &Picker{requests: make(chan pickRequest)}
}

// Choose asks the operator to pick one of ports.
func (p *Picker) Choose(ctx context.Context, ports []transport.PortInfo) (transport.PortInfo, error) {
	if len(ports) == 0 {
		return transport.PortInfo{}, transport.ErrNoDevice
	}
	req := pickRequest{ports: slices.Clone(ports), reply: make(chan pickReply, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return transport.PortInfo{}, ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.port, r.err
	case <-ctx.Done():
		return transport.PortInfo{}, ctx.Err()
	}
}

type pickRequestMsg pickRequest

// waitPickCmd blocks until the next pick request or ctx end.
func waitPickCmd(ctx context.Context, p *Picker) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case req := <-p.requests:
			return pickRequestMsg(req)
		case <-ctx.Done():
			return nil
		}
	}
}

// pickerModal lists the candidate ports.
type pickerModal struct {
	req      pickRequest
	selected int
}

func newPickerModal(req pickRequest) pickerModal {
	return pickerModal{req: req}
}

func (p pickerModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil, false
	}
	switch {
	case key.Matches(km, keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(km, keys.Down):
		if p.selected < len(p.req.ports)-1 {
			p.selected++
		}
	case key.Matches(km, keys.Confirm):
		p.req.answer(p.req.ports[p.selected], nil)
		return p, nil, true
	case key.Matches(km, keys.Escape):
		p.req.answer(transport.PortInfo{}, transport.ErrCancelled)
		return p, nil, true
	default:
		// 1-9 pick directly.
		if s := km.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if idx := int(s[0] - '1'); idx < len(p.req.ports) {
				p.req.answer(p.req.ports[idx], nil)
				return p, nil, true
			}
		}
	}
	return p, nil, false
}

// cancel answers the request as cancelled.
func (p pickerModal) cancel() {
	p.req.answer(transport.PortInfo{}, transport.ErrCancelled)
}

func (p pickerModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Select a serial port"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")
	for i, port := range p.req.ports {
		line := fmt.Sprintf("%d  %s", i+1, port.Label())
		if i == p.selected {
			b.WriteString(styles.Selected.Render("› " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter: connect  •  esc: cancel"))
	return placeModal(theme, width, height, b.String(), min(max(width-8, 30), 70))
}

// dismissModal closes any open modal, cancelling a pending pick.
func (m *Model) dismissModal() {
	if p, ok := m.modal.(pickerModal); ok {
		p.cancel()
	}
	m.modal = nil
}

// dismissPicker closes the picker once its connect attempt has finished.
func (m *Model) dismissPicker() {
	if p, ok := m.modal.(pickerModal); ok {
		p.cancel()
		m.modal = nil
	}
}
