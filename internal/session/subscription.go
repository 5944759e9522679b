package session

import (
	"maps"
	"slices"
	"sync"

	"github.com/five82/neuroglove/internal/device"
)

// Subscription receives state transitions and exchanged lines. Deliveries
// block until received, so subscribers must drain both channels or Close.
// Channels are never closed; use Done to stop selecting.
type Subscription struct {
	states  chan device.StateEvent
	entries chan device.Entry
	done    chan struct{}
	once    sync.Once
	hub     *hub
	id      int
}

// States delivers connection transitions in order.
func (s *Subscription) States() <-chan device.StateEvent { return s.states }

// Entries delivers IN lines in framing order and OUT lines as sends complete.
func (s *Subscription) Entries() <-chan device.Entry { return s.entries }

// Done is closed by Close.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close detaches the subscription. Pending deliveries to it are abandoned.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}

type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*Subscription
}

func (h *hub) add(buffer int) *Subscription {
	if buffer < 0 {
		buffer = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]*Subscription)
	}
	h.next++
	sub := &Subscription{
		states:  make(chan device.StateEvent, buffer),
		entries: make(chan device.Entry, buffer),
		done:    make(chan struct{}),
		hub:     h,
		id:      h.next,
	}
	h.subs[sub.id] = sub
	return sub
}

func (h *hub) remove(id int) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *hub) snapshot() []*Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, id := range slices.Sorted(maps.Keys(h.subs)) {
		subs = append(subs, h.subs[id])
	}
	return subs
}

func (h *hub) publishState(ev device.StateEvent) {
	for _, s := range h.snapshot() {
		ev := ev
		if ev.Descriptor != nil {
			d := ev.Descriptor.Clone()
			ev.Descriptor = &d
		}
		select {
		case s.states <- ev:
		case <-s.done:
		}
	}
}

func (h *hub) publishEntry(e device.Entry) {
	for _, s := range h.snapshot() {
		select {
		case s.entries <- e:
		case <-s.done:
		}
	}
}
