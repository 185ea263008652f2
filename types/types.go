package types

import (
	"fmt"
	"strconv"
)

type intName struct {
	i uint32
	s string
}

func stringName(i uint32, names []intName, goSyntax bool) string {
	for _, n := range names {
		if n.i == i {
			if goSyntax {
				return "types." + n.s
			}
			return n.s
		}
	}
	return "0x" + strconv.FormatUint(uint64(i), 16)
}

func knownName(i uint32, names []intName) bool {
	for _, n := range names {
		if n.i == i {
			return true
		}
	}
	return false
}

// UnknownCodeError is returned when a numeric code read from the file is not
// part of the closed set of values a field may take. Code is the rejected raw
// value.
type UnknownCodeError struct {
	Kind string
	Code uint64
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown %s code %#x", e.Kind, e.Code)
}

// Addr is a virtual address or a size in the loaded image.
type Addr uint64

// AddrFromUintptr converts a native pointer-sized integer.
func AddrFromUintptr(p uintptr) Addr { return Addr(p) }

// Add returns a advanced by n bytes.
func (a Addr) Add(n uint64) Addr { return a + Addr(n) }

// Sub returns the distance from b to a.
func (a Addr) Sub(b Addr) Addr { return a - b }

// Uintptr converts the address to the platform's pointer-sized integer.
func (a Addr) Uintptr() uintptr { return uintptr(a) }

// IsAligned reports whether a is a multiple of align (a power of two).
func (a Addr) IsAligned(align uint64) bool {
	return align == 0 || uint64(a)&(align-1) == 0
}

// AlignDown rounds a down to a multiple of align (a power of two).
func (a Addr) AlignDown(align uint64) Addr {
	if align == 0 {
		return a
	}
	return Addr(uint64(a) &^ (align - 1))
}

func (a Addr) String() string { return fmt.Sprintf("%08x", uint64(a)) }

// Range is the half-open address interval [Start, End).
type Range struct {
	Start Addr
	End   Addr
}

// Len returns End - Start.
func (r Range) Len() uint64 { return uint64(r.End.Sub(r.Start)) }

// Contains reports whether a lies inside the range.
func (r Range) Contains(a Addr) bool { return r.Start <= a && a < r.End }

// Overlaps reports whether the ranges have any address in common.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.Start, r.End) }
