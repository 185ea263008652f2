// Package parse implements a small set of parser combinators over byte
// buffers. Every parser consumes a prefix of its Input and returns the
// remainder together with the decoded value, or an *Error that records where
// (and inside which constructs) decoding failed.
package parse

// Input is a position-tracked view over a byte buffer. The offset is always
// relative to the start of the buffer the Input was created from, so
// sub-inputs keep reporting positions in the original file.
type Input struct {
	data []byte
	off  int
}

// NewInput returns an Input positioned at the start of b.
func NewInput(b []byte) Input {
	return Input{data: b}
}

// Bytes returns the unconsumed bytes.
func (i Input) Bytes() []byte { return i.data }

// Offset returns the position of the first unconsumed byte.
func (i Input) Offset() int { return i.off }

// Len returns the number of unconsumed bytes.
func (i Input) Len() int { return len(i.data) }

// Empty reports whether the input has been fully consumed.
func (i Input) Empty() bool { return len(i.data) == 0 }

// Advance drops the first n bytes. It panics if n is out of range; parsers
// check lengths before advancing.
func (i Input) Advance(n int) Input {
	return Input{data: i.data[n:], off: i.off + n}
}

// Split returns the first n bytes as their own Input and the remainder.
func (i Input) Split(n int) (head, rest Input) {
	return Input{data: i.data[:n:n], off: i.off}, i.Advance(n)
}

// Seek returns the input positioned at off bytes from the current position,
// reporting false when off lies beyond the end of the buffer.
func (i Input) Seek(off uint64) (Input, bool) {
	if off > uint64(len(i.data)) {
		return Input{}, false
	}
	return i.Advance(int(off)), true
}

// Slice returns the n bytes at off (relative to the current position) or
// false when that extent does not fit in the buffer.
func (i Input) Slice(off, n uint64) ([]byte, bool) {
	end := off + n
	if end < off || end > uint64(len(i.data)) {
		return nil, false
	}
	return i.data[off:end:end], true
}
