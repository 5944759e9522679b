// Package framer turns a transport's byte stream into newline-delimited lines.
package framer

import (
	"bytes"
	"io"
	"strings"
)

const defaultChunkSize = 4096

// Framer yields trimmed, non-empty lines read from an io.Reader. Partial lines
// are carried across reads; there is no maximum line length. A Framer is not
// restartable and must only be used from one goroutine.
type Framer struct {
	r       io.Reader
	chunk   []byte
	pending []byte
	ready   []string
	err     error
}

// Option configures a Framer.
type Option func(*Framer)

// WithChunkSize sets the size of each read from the underlying reader.
func WithChunkSize(n int) Option {
	return func(f *Framer) {
		if n > 0 {
			f.chunk = make([]byte, n)
		}
	}
}

// New wraps r.
func New(r io.Reader, opts ...Option) *Framer {
	f := &Framer{r: r}
	for _, opt := range opts {
		opt(f)
	}
	if f.chunk == nil {
		f.chunk = make([]byte, defaultChunkSize)
	}
	return f
}

// Next returns the next complete line. It returns io.EOF once the reader is
// exhausted, or the reader's error if the read failed (including the error a
// closed transport reports when a pending read is cancelled). An unterminated
// trailing fragment is discarded at end of stream.
func (f *Framer) Next() (string, error) {
	for {
		if len(f.ready) > 0 {
			line := f.ready[0]
			f.ready = f.ready[1:]
			return line, nil
		}
		if f.err != nil {
			return "", f.err
		}
		n, err := f.r.Read(f.chunk)
		if n > 0 {
			f.feed(f.chunk[:n])
		}
		if err != nil {
			f.err = err
		}
	}
}

// Pending reports the bytes held for the next line.
func (f *Framer) Pending() int {
	return len(f.pending)
}

func (f *Framer) feed(data []byte) {
	f.pending = append(f.pending, data...)
	for {
		idx := bytes.IndexByte(f.pending, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(strings.ToValidUTF8(string(f.pending[:idx]), "�"))
		f.pending = f.pending[idx+1:]
		if line != "" {
			f.ready = append(f.ready, line)
		}
	}
	if len(f.pending) == 0 {
		f.pending = nil
		return
	}
	// Compact so the backing array does not grow with the stream.
	f.pending = append([]byte(nil), f.pending...)
}
