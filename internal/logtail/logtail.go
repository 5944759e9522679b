package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	chunkSize = 32 * 1024
	// maxTailBytes bounds one Read when the log holds very long lines.
	maxTailBytes = 8 << 20
)

// Read returns at most maxLines from the end of the file at path, oldest
// first. It reads backwards from the end in chunks and stops once it holds
// enough complete lines, so a long-running log costs the same to tail as a
// fresh one. A missing file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	offset := info.Size()
	var chunks [][]byte
	total, newlines := 0, 0
	for offset > 0 && newlines <= maxLines && total < maxTailBytes {
		n := min(int64(chunkSize), offset)
		offset -= n
		chunk := make([]byte, n)
		if _, err := file.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		chunks = append(chunks, chunk)
		total += len(chunk)
		newlines += bytes.Count(chunk, []byte{'\n'})
	}

	tail := make([]byte, 0, total)
	for i := len(chunks) - 1; i >= 0; i-- {
		tail = append(tail, chunks[i]...)
	}
	text := strings.TrimSuffix(string(tail), "\n")
	if text == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	if offset > 0 {
		// The first line started before the bytes read.
		lines = lines[1:]
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
