package framer

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// chunkReader returns one chunk per Read call.
type chunkReader struct {
	chunks []string
	err    error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func collect(t *testing.T, f *Framer) ([]string, error) {
	t.Helper()
	var lines []string
	for {
		line, err := f.Next()
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

func TestFramer(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{"split across reads", []string{"READ", "Y\n"}, []string{"READY"}},
		{"two lines one chunk", []string{"A\nB\n"}, []string{"A", "B"}},
		{"crlf", []string{"ready\r\n"}, []string{"ready"}},
		{"crlf split between reads", []string{"ready\r", "\nok\r\n"}, []string{"ready", "ok"}},
		{"blank lines discarded", []string{"\n  \n\r\nhi\n"}, []string{"hi"}},
		{"whitespace trimmed", []string{"  hand open \t\n"}, []string{"hand open"}},
		{"trailing fragment dropped at eof", []string{"one\ntw", "o"}, []string{"one"}},
		{"empty stream", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(&chunkReader{chunks: append([]string(nil), tt.chunks...)})
			got, err := collect(t, f)
			if !errors.Is(err, io.EOF) {
				t.Fatalf("terminal error = %v, want io.EOF", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFramer_LongLineSmallChunks(t *testing.T) {
	long := strings.Repeat("x", 10_000)
	f := New(strings.NewReader(long+"\nshort\n"), WithChunkSize(7))
	got, err := collect(t, f)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("terminal error = %v, want io.EOF", err)
	}
	if len(got) != 2 || got[0] != long || got[1] != "short" {
		t.Fatalf("unexpected lines: %d lines, first len %d", len(got), len(got[0]))
	}
	if f.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", f.Pending())
	}
}

func TestFramer_ReaderErrorStopsAfterBufferedLines(t *testing.T) {
	boom := errors.New("port closed")
	f := New(&chunkReader{chunks: []string{"a\nb"}, err: boom})
	got, err := collect(t, f)
	if !errors.Is(err, boom) {
		t.Fatalf("terminal error = %v, want %v", err, boom)
	}
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("lines = %q, want [a]", got)
	}
	// Further calls keep reporting the same error without reading.
	if _, err := f.Next(); !errors.Is(err, boom) {
		t.Fatalf("second Next error = %v, want %v", err, boom)
	}
}

func TestFramer_InvalidUTF8Replaced(t *testing.T) {
	f := New(strings.NewReader("ok\xff\n"))
	line, err := f.Next()
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if line != "ok�" {
		t.Fatalf("line = %q, want replacement character", line)
	}
}
