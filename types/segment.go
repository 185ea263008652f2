package types

import (
	"strings"

	"github.com/appsworld/go-delf/pkg/parse"
)

// A SegmentType is the kind of a program header (p_type). Only Load
// segments are mapped; the rest describe the image to other consumers.
type SegmentType uint32

const (
	Null        SegmentType = 0x0
	Load        SegmentType = 0x1
	Dynamic     SegmentType = 0x2
	Interp      SegmentType = 0x3
	Note        SegmentType = 0x4
	ShLib       SegmentType = 0x5
	PHdr        SegmentType = 0x6
	TLS         SegmentType = 0x7
	GnuEhFrame  SegmentType = 0x6474e550
	GnuStack    SegmentType = 0x6474e551
	GnuRelRo    SegmentType = 0x6474e552
	GnuProperty SegmentType = 0x6474e553
)

var segmentTypeStrings = []intName{
	{uint32(Null), "Null"},
	{uint32(Load), "Load"},
	{uint32(Dynamic), "Dynamic"},
	{uint32(Interp), "Interp"},
	{uint32(Note), "Note"},
	{uint32(ShLib), "ShLib"},
	{uint32(PHdr), "PHdr"},
	{uint32(TLS), "TLS"},
	{uint32(GnuEhFrame), "GnuEhFrame"},
	{uint32(GnuStack), "GnuStack"},
	{uint32(GnuRelRo), "GnuRelRo"},
	{uint32(GnuProperty), "GnuProperty"},
}

// NewSegmentType validates code against the known segment kinds.
func NewSegmentType(code uint32) (SegmentType, error) {
	if !knownName(code, segmentTypeStrings) {
		return 0, &UnknownCodeError{Kind: "SegmentType", Code: uint64(code)}
	}
	return SegmentType(code), nil
}

func (t SegmentType) String() string   { return stringName(uint32(t), segmentTypeStrings, false) }
func (t SegmentType) GoString() string { return stringName(uint32(t), segmentTypeStrings, true) }

// ParseSegmentType decodes a little-endian p_type field.
func ParseSegmentType(in parse.Input) (parse.Input, SegmentType, error) {
	return parse.Context("SegmentType", parse.Cut(parse.MapRes(parse.LeU32, NewSegmentType)))(in)
}

// SegmentFlag is the set of access rights of a segment (p_flags). The bit
// values are those of the file format; they are not host protection bits.
type SegmentFlag uint32

const (
	FlagExecute SegmentFlag = 0x1
	FlagWrite   SegmentFlag = 0x2
	FlagRead    SegmentFlag = 0x4

	flagMask = FlagExecute | FlagWrite | FlagRead
)

// NewSegmentFlag validates bits, rejecting any bit outside read, write and
// execute.
func NewSegmentFlag(bits uint32) (SegmentFlag, error) {
	if bits&^uint32(flagMask) != 0 {
		return 0, &UnknownCodeError{Kind: "SegmentFlags", Code: uint64(bits)}
	}
	return SegmentFlag(bits), nil
}

func (f SegmentFlag) Read() bool    { return f&FlagRead != 0 }
func (f SegmentFlag) Write() bool   { return f&FlagWrite != 0 }
func (f SegmentFlag) Execute() bool { return f&FlagExecute != 0 }

// Union returns the flags set in f or o.
func (f SegmentFlag) Union(o SegmentFlag) SegmentFlag { return f | o }

// Contains reports whether every flag of o is set in f.
func (f SegmentFlag) Contains(o SegmentFlag) bool { return f&o == o }

// List returns the individual flags, in read, write, execute order.
func (f SegmentFlag) List() []SegmentFlag {
	var flags []SegmentFlag
	for _, fl := range []SegmentFlag{FlagRead, FlagWrite, FlagExecute} {
		if f.Contains(fl) {
			flags = append(flags, fl)
		}
	}
	return flags
}

// Names returns the flag names, e.g. "Read|Execute".
func (f SegmentFlag) Names() string {
	var names []string
	for _, fl := range f.List() {
		switch fl {
		case FlagRead:
			names = append(names, "Read")
		case FlagWrite:
			names = append(names, "Write")
		case FlagExecute:
			names = append(names, "Execute")
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

func (f SegmentFlag) String() string {
	var protStr string
	if f.Read() {
		protStr += "r"
	} else {
		protStr += "-"
	}
	if f.Write() {
		protStr += "w"
	} else {
		protStr += "-"
	}
	if f.Execute() {
		protStr += "x"
	} else {
		protStr += "-"
	}
	return protStr
}

// ParseSegmentFlag decodes a little-endian p_flags field.
func ParseSegmentFlag(in parse.Input) (parse.Input, SegmentFlag, error) {
	return parse.Context("SegmentFlags", parse.Cut(parse.MapRes(parse.LeU32, NewSegmentFlag)))(in)
}
