// Package session owns the single live device connection.
//
// # Lifecycle
//
// A Manager moves through Disconnected, Connecting and Connected:
//
//	Disconnected ──Connect──→ Connecting ──open ok──→ Connected
//	     ↑                        │                        │
//	     └──── error/cancel ──────┘        Disconnect / EOF / read error
//	     └─────────────────────────────────────────────────┘
//
// Connect is rejected outside Disconnected (ErrAlreadyConnected,
// ErrConnectInProgress). Disconnect is idempotent and every call returns only
// once the state is Disconnected. Called while a connect is pending, it
// cancels it and the pending Connect returns ErrUserCancelled.
//
// # Reading and writing
//
// One goroutine per connection reads the transport through framer.Framer and
// publishes an IN entry for every framed line. Send appends the newline
// terminator and publishes an OUT entry once the bytes are written. Sends are
// serialized; a failed write is reported as *WriteError and does not end the
// session.
//
// # Observers
//
// Subscribe returns a Subscription with separate channels for state events
// and entries. Every subscriber sees every event in order. Deliveries block,
// so a subscriber must keep draining until it calls Close.
//
//	sub := mgr.Subscribe(64)
//	defer sub.Close()
//	for {
//		select {
//		case ev := <-sub.States():
//			...
//		case e := <-sub.Entries():
//			...
//		case <-ctx.Done():
//			return
//		}
//	}
package session
