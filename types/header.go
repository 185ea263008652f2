package types

import (
	"fmt"

	"github.com/appsworld/go-delf/pkg/parse"
)

// Magic is the signature every ELF file starts with.
var Magic = []byte{0x7f, 'E', 'L', 'F'}

const (
	// IdentSize is the size of the identification bytes at the start of the
	// header, magic included.
	IdentSize = 16
	// FileHeaderSize64 is the size of an ELF64 file header.
	FileHeaderSize64 = 64
	// ProgHeaderSize64 is the size of one ELF64 program header table entry.
	ProgHeaderSize64 = 56
	// SectionHeaderSize64 is the size of one ELF64 section header table entry.
	SectionHeaderSize64 = 64
)

// Class is the word size of the file (EI_CLASS).
type Class uint8

const (
	Class32 Class = 1 // ELFCLASS32
	Class64 Class = 2 // ELFCLASS64
)

var classStrings = []intName{
	{uint32(Class32), "ELFCLASS32"},
	{uint32(Class64), "ELFCLASS64"},
}

func (c Class) String() string   { return stringName(uint32(c), classStrings, false) }
func (c Class) GoString() string { return stringName(uint32(c), classStrings, true) }

// Data is the byte order of the file (EI_DATA).
type Data uint8

const (
	Data2LSB Data = 1 // little-endian
	Data2MSB Data = 2 // big-endian
)

var dataStrings = []intName{
	{uint32(Data2LSB), "ELFDATA2LSB"},
	{uint32(Data2MSB), "ELFDATA2MSB"},
}

func (d Data) String() string   { return stringName(uint32(d), dataStrings, false) }
func (d Data) GoString() string { return stringName(uint32(d), dataStrings, true) }

// OSABI is the target operating system ABI (EI_OSABI).
type OSABI uint8

const (
	OSABISysV  OSABI = 0
	OSABILinux OSABI = 3
)

var osabiStrings = []intName{
	{uint32(OSABISysV), "SysV"},
	{uint32(OSABILinux), "Linux"},
}

func (o OSABI) String() string   { return stringName(uint32(o), osabiStrings, false) }
func (o OSABI) GoString() string { return stringName(uint32(o), osabiStrings, true) }

// A Type is the ELF object file type (e_type).
type Type uint16

const (
	None Type = 0x0 // no file type
	Rel  Type = 0x1 // relocatable object
	Exec Type = 0x2 // executable
	Dyn  Type = 0x3 // shared object
	Core Type = 0x4 // core dump
)

var typeStrings = []intName{
	{uint32(None), "None"},
	{uint32(Rel), "Rel"},
	{uint32(Exec), "Exec"},
	{uint32(Dyn), "Dyn"},
	{uint32(Core), "Core"},
}

// NewType validates code against the known object types.
func NewType(code uint16) (Type, error) {
	if !knownName(uint32(code), typeStrings) {
		return 0, &UnknownCodeError{Kind: "Type", Code: uint64(code)}
	}
	return Type(code), nil
}

func (t Type) String() string   { return stringName(uint32(t), typeStrings, false) }
func (t Type) GoString() string { return stringName(uint32(t), typeStrings, true) }

// ParseType decodes a little-endian e_type field.
func ParseType(in parse.Input) (parse.Input, Type, error) {
	return parse.Context("Type", parse.Cut(parse.MapRes(parse.LeU16, NewType)))(in)
}

// A Machine is the target instruction set (e_machine).
type Machine uint16

const (
	X86     Machine = 0x03
	X86_64  Machine = 0x3e
	AArch64 Machine = 0xb7
	RISCV   Machine = 0xf3
)

var machineStrings = []intName{
	{uint32(X86), "X86"},
	{uint32(X86_64), "X86_64"},
	{uint32(AArch64), "AArch64"},
	{uint32(RISCV), "RISCV"},
}

// NewMachine validates code against the supported architectures.
func NewMachine(code uint16) (Machine, error) {
	if !knownName(uint32(code), machineStrings) {
		return 0, &UnknownCodeError{Kind: "Machine", Code: uint64(code)}
	}
	return Machine(code), nil
}

func (m Machine) String() string   { return stringName(uint32(m), machineStrings, false) }
func (m Machine) GoString() string { return stringName(uint32(m), machineStrings, true) }

// GOARCH returns the Go architecture name of the machine, or "" when Go has
// no port for it.
func (m Machine) GOARCH() string {
	switch m {
	case X86:
		return "386"
	case X86_64:
		return "amd64"
	case AArch64:
		return "arm64"
	case RISCV:
		return "riscv64"
	}
	return ""
}

// ParseMachine decodes a little-endian e_machine field.
func ParseMachine(in parse.Input) (parse.Input, Machine, error) {
	return parse.Context("Machine", parse.Cut(parse.MapRes(parse.LeU16, NewMachine)))(in)
}

// ParseAddr decodes a little-endian 64-bit address.
func ParseAddr(in parse.Input) (parse.Input, Addr, error) {
	return parse.Map(parse.LeU64, func(v uint64) Addr { return Addr(v) })(in)
}

// Ident is the decoded e_ident block following the magic.
type Ident struct {
	Class      Class
	Data       Data
	Version    uint8
	OSABI      OSABI
	ABIVersion uint8
}

func (id Ident) String() string {
	return fmt.Sprintf("%s, %s, version %d, %s ABI v%d", id.Class, id.Data, id.Version, id.OSABI, id.ABIVersion)
}

func byteIs(want uint8) parse.Parser[uint8] {
	return parse.Verify(parse.U8, func(b uint8) bool { return b == want })
}

// ParseIdent decodes the 12 identification bytes after the magic. Only
// 64-bit little-endian version 1 files for the System V or Linux ABI are
// accepted.
func ParseIdent(in parse.Input) (parse.Input, Ident, error) {
	var id Ident
	i, class, err := parse.Context("Class", parse.Cut(byteIs(uint8(Class64))))(in)
	if err != nil {
		return in, id, err
	}
	i, data, err := parse.Context("Data", parse.Cut(byteIs(uint8(Data2LSB))))(i)
	if err != nil {
		return in, id, err
	}
	i, version, err := parse.Context("Version", parse.Cut(byteIs(1)))(i)
	if err != nil {
		return in, id, err
	}
	i, osabi, err := parse.Context("OSABI", parse.Cut(parse.Alt(
		parse.Value(OSABISysV, byteIs(uint8(OSABISysV))),
		parse.Value(OSABILinux, byteIs(uint8(OSABILinux))),
	)))(i)
	if err != nil {
		return in, id, err
	}
	i, abiVersion, err := parse.U8(i)
	if err != nil {
		return in, id, err
	}
	// EI_PAD
	i, _, err = parse.Take(7)(i)
	if err != nil {
		return in, id, err
	}
	id = Ident{
		Class:      Class(class),
		Data:       Data(data),
		Version:    version,
		OSABI:      osabi,
		ABIVersion: abiVersion,
	}
	return i, id, nil
}
