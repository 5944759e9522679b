package session

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupported        = errors.New("transport unsupported")
	ErrUserCancelled      = errors.New("connect cancelled")
	ErrOpenFailed         = errors.New("open failed")
	ErrAlreadyConnected   = errors.New("already connected")
	ErrConnectInProgress  = errors.New("connect already in progress")
	ErrNotConnected       = errors.New("not connected")
	ErrWriteFailed        = errors.New("write failed")
	ErrRefreshUnsupported = errors.New("signal refresh requires a wireless transport")
	ErrConnectionLost     = errors.New("connection lost")
	ErrLineBreak          = errors.New("text contains a line break")
)

// OpenError wraps the cause of a failed device selection or open.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("open failed: %v", e.Err)
	}
	return fmt.Sprintf("open %s failed: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() []error { return []error{ErrOpenFailed, e.Err} }

// WriteError wraps a transport write failure. The session stays connected.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write failed: %v", e.Err) }

func (e *WriteError) Unwrap() []error { return []error{ErrWriteFailed, e.Err} }
