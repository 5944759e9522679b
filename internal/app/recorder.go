package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/neuroglove/internal/device"
	"github.com/five82/neuroglove/internal/state"
)

const persistTimeout = 5 * time.Second

// Feed is the event stream a Recorder consumes. *session.Subscription
// satisfies it.
type Feed interface {
	States() <-chan device.StateEvent
	Entries() <-chan device.Entry
	Done() <-chan struct{}
}

// Persister stores exchanged lines. *logstore.Store satisfies it.
type Persister interface {
	Append(ctx context.Context, e device.Entry) error
}

// Recorder copies session events into the display store and the day log.
type Recorder struct {
	feed  Feed
	store *state.Store
	logs  Persister
	log   logrus.FieldLogger
}

// NewRecorder builds a Recorder. logs may be nil to skip persistence.
func NewRecorder(feed Feed, store *state.Store, logs Persister, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{feed: feed, store: store, logs: logs, log: log}
}

// Start launches Run in a goroutine. The returned channel closes when it
// exits.
func (r *Recorder) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return done
}

// Run drains the feed until ctx ends or the feed is closed.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.feed.Done():
			return
		case ev := <-r.feed.States():
			r.store.SetConnection(ev)
			r.logState(ev)
		case e := <-r.feed.Entries():
			r.record(ctx, e)
		}
	}
}

func (r *Recorder) record(ctx context.Context, e device.Entry) {
	r.store.Append(e)
	if r.logs == nil {
		return
	}
	// Outlive ctx briefly so the last line before shutdown still lands.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	err := r.logs.Append(pctx, e)
	r.store.RecordPersist(err)
	if err != nil {
		r.log.WithError(err).WithField("direction", e.Direction.String()).Warn("persist entry failed")
	}
}

func (r *Recorder) logState(ev device.StateEvent) {
	fields := logrus.Fields{"state": ev.State.String()}
	if d := ev.Descriptor; d != nil {
		fields["port"] = d.Port
		fields["session"] = d.SessionID
	}
	entry := r.log.WithFields(fields)
	if ev.Err != nil {
		entry.WithError(ev.Err).Warn("connection state changed")
		return
	}
	entry.Info("connection state changed")
}
