// Package sse implements the line-level mechanics of server-sent-event style
// streaming bodies: reassembling arbitrarily chunked transport bytes into
// discrete protocol lines, and classifying each line as data, end-of-stream,
// or noise.
package sse

import (
	"bytes"
	"strings"
)

// Scanner turns a sequence of raw byte chunks into a sequence of complete
// lines. Transport chunk boundaries carry no meaning: a line may span any
// number of chunks, and one chunk may carry any number of lines. The trailing
// partial line of each chunk is held in the scanner's buffer and prepended to
// the next chunk, so no byte is ever dropped between deliveries.
//
// A Scanner belongs to exactly one stream; it is not safe for concurrent use.
type Scanner struct {
	buf []byte // pending bytes of the current, not-yet-terminated line
}

// NewScanner returns a Scanner with an empty reassembly buffer.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Push appends chunk to the reassembly buffer and returns every complete line
// now available, in order. Lines are terminated by '\n'; a trailing '\r' is
// stripped so CRLF bodies decode the same as LF bodies. Bytes after the last
// terminator remain buffered for the next Push or the final Flush.
func (s *Scanner) Push(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	s.buf = append(s.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, trimLineEnding(s.buf[:i]))
		s.buf = s.buf[i+1:]
	}
	if len(s.buf) == 0 {
		s.buf = nil
	}
	return lines
}

// Flush drains the buffer at end of stream. A body that ends without a final
// terminator still has its last line delivered here; ok is false when the
// remainder is empty or whitespace only, in which case it is discarded.
func (s *Scanner) Flush() (line string, ok bool) {
	line = trimLineEnding(s.buf)
	s.buf = nil
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	return line, true
}

// Buffered reports how many bytes are currently held waiting for a line
// terminator.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

func trimLineEnding(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return string(b)
}
