package parse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// A Parser consumes a prefix of its input and returns the remainder and the
// decoded value.
type Parser[T any] func(Input) (Input, T, error)

// Pair is the result of Tuple2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is the result of Tuple3.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func eof(in Input, want int) error {
	return NewError(Backtrack, in, KindEof, fmt.Errorf("need %d bytes, have %d", want, in.Len()))
}

// U8 decodes one byte.
func U8(in Input) (Input, uint8, error) {
	if in.Len() < 1 {
		return in, 0, eof(in, 1)
	}
	return in.Advance(1), in.Bytes()[0], nil
}

// LeU16 decodes a little-endian uint16.
func LeU16(in Input) (Input, uint16, error) {
	if in.Len() < 2 {
		return in, 0, eof(in, 2)
	}
	return in.Advance(2), binary.LittleEndian.Uint16(in.Bytes()), nil
}

// LeU32 decodes a little-endian uint32.
func LeU32(in Input) (Input, uint32, error) {
	if in.Len() < 4 {
		return in, 0, eof(in, 4)
	}
	return in.Advance(4), binary.LittleEndian.Uint32(in.Bytes()), nil
}

// LeU64 decodes a little-endian uint64.
func LeU64(in Input) (Input, uint64, error) {
	if in.Len() < 8 {
		return in, 0, eof(in, 8)
	}
	return in.Advance(8), binary.LittleEndian.Uint64(in.Bytes()), nil
}

// Tag matches a constant byte sequence. A mismatch, including a buffer that
// is too short to hold the tag, is a Failure.
func Tag(tag []byte) Parser[[]byte] {
	return func(in Input) (Input, []byte, error) {
		if in.Len() < len(tag) || !bytes.Equal(in.Bytes()[:len(tag)], tag) {
			return in, nil, NewError(Failure, in, KindTag, fmt.Errorf("expected % x", tag))
		}
		head, rest := in.Split(len(tag))
		return rest, head.Bytes(), nil
	}
}

// Take returns the next n bytes as a sub-input.
func Take(n int) Parser[Input] {
	return func(in Input) (Input, Input, error) {
		if in.Len() < n {
			return in, Input{}, eof(in, n)
		}
		head, rest := in.Split(n)
		return rest, head, nil
	}
}

// Context labels every error that escapes p with label and the position p
// started at.
func Context[T any](label string, p Parser[T]) Parser[T] {
	return func(in Input) (Input, T, error) {
		rest, v, err := p(in)
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				perr.push(in, label)
			}
			return in, v, err
		}
		return rest, v, nil
	}
}

// Map transforms the value produced by p.
func Map[T, U any](p Parser[T], f func(T) U) Parser[U] {
	return func(in Input) (Input, U, error) {
		rest, v, err := p(in)
		if err != nil {
			var zero U
			return in, zero, err
		}
		return rest, f(v), nil
	}
}

// MapRes transforms the value produced by p with a fallible function. A
// conversion error backtracks and is kept as the frame's cause.
func MapRes[T, U any](p Parser[T], f func(T) (U, error)) Parser[U] {
	return func(in Input) (Input, U, error) {
		var zero U
		rest, v, err := p(in)
		if err != nil {
			return in, zero, err
		}
		u, err := f(v)
		if err != nil {
			return in, zero, NewError(Backtrack, in, KindMapRes, err)
		}
		return rest, u, nil
	}
}

// Verify backtracks when pred rejects the value produced by p.
func Verify[T any](p Parser[T], pred func(T) bool) Parser[T] {
	return func(in Input) (Input, T, error) {
		rest, v, err := p(in)
		if err != nil {
			return in, v, err
		}
		if !pred(v) {
			return in, v, NewError(Backtrack, in, KindVerify, fmt.Errorf("unexpected value %v", v))
		}
		return rest, v, nil
	}
}

// Value replaces the output of p with v.
func Value[T, U any](v U, p Parser[T]) Parser[U] {
	return Map(p, func(T) U { return v })
}

// Cut turns a Backtrack from p into a Failure so that no enclosing Alt tries
// another branch.
func Cut[T any](p Parser[T]) Parser[T] {
	return func(in Input) (Input, T, error) {
		rest, v, err := p(in)
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				perr.Severity = Failure
			}
			return in, v, err
		}
		return rest, v, nil
	}
}

// Alt returns the result of the first alternative that does not backtrack.
// A Failure from any alternative stops the search.
func Alt[T any](ps ...Parser[T]) Parser[T] {
	return func(in Input) (Input, T, error) {
		var zero T
		for _, p := range ps {
			rest, v, err := p(in)
			if err == nil {
				return rest, v, nil
			}
			var perr *Error
			if !errors.As(err, &perr) || perr.Severity == Failure {
				return in, zero, err
			}
		}
		return in, zero, NewError(Backtrack, in, KindAlt, errors.New("no alternative matched"))
	}
}

// Tuple2 runs pa then pb.
func Tuple2[A, B any](pa Parser[A], pb Parser[B]) Parser[Pair[A, B]] {
	return func(in Input) (Input, Pair[A, B], error) {
		var out Pair[A, B]
		i, a, err := pa(in)
		if err != nil {
			return in, out, err
		}
		i, b, err := pb(i)
		if err != nil {
			return in, out, err
		}
		out.First, out.Second = a, b
		return i, out, nil
	}
}

// Tuple3 runs pa, pb then pc.
func Tuple3[A, B, C any](pa Parser[A], pb Parser[B], pc Parser[C]) Parser[Triple[A, B, C]] {
	return func(in Input) (Input, Triple[A, B, C], error) {
		var out Triple[A, B, C]
		i, ab, err := Tuple2(pa, pb)(in)
		if err != nil {
			return in, out, err
		}
		i, c, err := pc(i)
		if err != nil {
			return in, out, err
		}
		out.First, out.Second, out.Third = ab.First, ab.Second, c
		return i, out, nil
	}
}

// Preceded runs skip, discards its value and returns the value of p.
func Preceded[A, B any](skip Parser[A], p Parser[B]) Parser[B] {
	return Map(Tuple2(skip, p), func(v Pair[A, B]) B { return v.Second })
}

// Count runs p exactly n times.
func Count[T any](p Parser[T], n int) Parser[[]T] {
	return func(in Input) (Input, []T, error) {
		out := make([]T, 0, n)
		i := in
		for k := 0; k < n; k++ {
			rest, v, err := p(i)
			if err != nil {
				return in, nil, err
			}
			out = append(out, v)
			i = rest
		}
		return i, out, nil
	}
}

// At runs p on the input positioned off bytes after the start of in. The
// remainder returned is in itself: At reads out of line, e.g. a table
// located through an offset field.
func At[T any](off uint64, p Parser[T]) Parser[T] {
	return func(in Input) (Input, T, error) {
		var zero T
		sub, ok := in.Seek(off)
		if !ok {
			return in, zero, NewError(Failure, in, KindSeek, fmt.Errorf("offset %#x beyond end of input (%#x bytes)", off, in.Len()))
		}
		_, v, err := p(sub)
		if err != nil {
			return in, zero, err
		}
		return in, v, nil
	}
}

// Run applies p to the start of b and returns its value. Trailing bytes are
// not an error.
func Run[T any](p Parser[T], b []byte) (T, error) {
	_, v, err := p(NewInput(b))
	return v, err
}
