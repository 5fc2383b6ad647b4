package inputs

import (
	"bytes"
	"strings"
)

// DefaultMaxLineLength bounds a partial line held between reads
const DefaultMaxLineLength = 64 * 1024

// LineFramer splits a byte stream into newline-terminated lines. A trailing
// partial line is kept until its terminator arrives.
type LineFramer struct {
	pending   []byte
	maxLength int
	discarded int
	skipping  bool
}

// NewLineFramer creates a framer. Partial lines longer than maxLength are
// discarded up to their terminator; maxLength <= 0 selects
// DefaultMaxLineLength.
func NewLineFramer(maxLength int) *LineFramer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLineLength
	}
	return &LineFramer{maxLength: maxLength}
}

// Feed appends data and returns every line it completes, without the
// terminator. Invalid UTF-8 is replaced so lines are always valid strings.
func (f *LineFramer) Feed(data []byte) []string {
	if f.skipping {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
		f.skipping = false
	}

	f.pending = append(f.pending, data...)

	var lines []string
	for {
		i := bytes.IndexByte(f.pending, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(f.pending[:i], []byte{'\r'})
		lines = append(lines, strings.ToValidUTF8(string(line), "�"))
		f.pending = f.pending[i+1:]
	}

	if len(f.pending) > f.maxLength {
		f.discarded++
		f.pending = nil
		f.skipping = true
	}

	// Compact so the backing array does not grow without bound
	if len(f.pending) == 0 {
		f.pending = f.pending[:0:0]
	}

	return lines
}

// Remainder returns and clears the unterminated tail, used when the
// stream ends without a final newline
func (f *LineFramer) Remainder() (string, bool) {
	if len(f.pending) == 0 {
		return "", false
	}
	line := bytes.TrimSuffix(f.pending, []byte{'\r'})
	f.pending = nil
	return strings.ToValidUTF8(string(line), "�"), true
}

// Reset drops any partial line, used after the transport reconnects
func (f *LineFramer) Reset() {
	f.pending = nil
	f.skipping = false
}

// Pending returns the number of buffered bytes of an incomplete line
func (f *LineFramer) Pending() int {
	return len(f.pending)
}

// Discarded returns how many oversized partial lines were dropped
func (f *LineFramer) Discarded() int {
	return f.discarded
}
