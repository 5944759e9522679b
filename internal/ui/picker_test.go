package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/neuroglove/internal/transport"
)

var testPorts = []transport.PortInfo{
	{Name: "/dev/ttyUSB0"},
	{Name: "/dev/ttyACM0"},
	{Name: "/dev/ttyS0"},
}

type chooseResult struct {
	port transport.PortInfo
	err  error
}

// startChoose runs Choose in the background and returns the model holding
// the picker modal it produced.
func startChoose(t *testing.T, ctx context.Context) (Model, <-chan chooseResult) {
	t.Helper()
	picker := NewPicker()
	m := newTestModel(t, Options{Context: ctx, Picker: picker})

	done := make(chan chooseResult, 1)
	go func() {
		port, err := picker.Choose(ctx, testPorts)
		done <- chooseResult{port, err}
	}()

	msg := waitPickCmd(ctx, picker)()
	req, ok := msg.(pickRequestMsg)
	if !ok {
		t.Fatalf("msg = %T, want pickRequestMsg", msg)
	}
	m, _ = update(t, m, req)
	if _, ok := m.modal.(pickerModal); !ok {
		t.Fatalf("modal = %T, want pickerModal", m.modal)
	}
	return m, done
}

func waitChoose(t *testing.T, done <-chan chooseResult) chooseResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("Choose did not return")
		return chooseResult{}
	}
}

func TestPicker_EnterSelectsHighlightedPort(t *testing.T) {
	m, done := startChoose(t, context.Background())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != nil {
		t.Fatalf("modal should close after a pick")
	}
	r := waitChoose(t, done)
	if r.err != nil || r.port.Name != "/dev/ttyACM0" {
		t.Fatalf("Choose = %+v, %v", r.port, r.err)
	}
}

func TestPicker_DigitPicksDirectly(t *testing.T) {
	m, done := startChoose(t, context.Background())
	update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	r := waitChoose(t, done)
	if r.err != nil || r.port.Name != "/dev/ttyS0" {
		t.Fatalf("Choose = %+v, %v", r.port, r.err)
	}
}

func TestPicker_EscapeCancels(t *testing.T) {
	m, done := startChoose(t, context.Background())
	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if r := waitChoose(t, done); !errors.Is(r.err, transport.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", r.err)
	}
}

func TestPicker_ConnectResultDismisses(t *testing.T) {
	m, done := startChoose(t, context.Background())
	m, _ = update(t, m, connectResultMsg{err: errors.New("gone")})
	if m.modal != nil {
		t.Fatalf("connect result should dismiss the picker")
	}
	if r := waitChoose(t, done); !errors.Is(r.err, transport.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", r.err)
	}
}

func TestPicker_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	picker := NewPicker()
	done := make(chan error, 1)
	go func() {
		_, err := picker.Choose(ctx, testPorts)
		done <- err
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Choose did not return")
	}
}

func TestPicker_NoPorts(t *testing.T) {
	_, err := NewPicker().Choose(context.Background(), nil)
	if !errors.Is(err, transport.ErrNoDevice) {
		t.Fatalf("err = %v, want ErrNoDevice", err)
	}
}
