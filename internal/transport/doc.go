// Package transport provides the device links the session layer drives.
//
// # Overview
//
// A Provider performs device selection and returns a Handle. The Handle is
// opened by the caller, read by exactly one goroutine, written under the
// caller's own serialization and closed to unblock any pending read.
//
// # Transports
//
//   - Serial: USB CDC and other serial ports through go.bug.st/serial. The
//     enumerator package supplies USB vendor and product ids.
//   - Wireless: a Bluetooth RFCOMM link bound to a TTY (default
//     /dev/rfcomm0). Bytes flow through the TTY like any serial port; RSSI is
//     read out of band with `bluetoothctl info <address>`.
//
// # Selection
//
// An explicit device path is used as-is. Otherwise ports are enumerated: one
// candidate is taken directly, several are handed to a Chooser. The TUI
// supplies a chooser backed by its port picker; the default prefers the first
// USB port.
//
// # Errors
//
// ErrUnsupported, ErrCancelled and ErrNoDevice are returned (possibly wrapped)
// so callers can distinguish missing platform support from operator action and
// from an absent device.
package transport
