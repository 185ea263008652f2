package delf

import (
	"fmt"

	"github.com/appsworld/go-delf/types"
)

// A FileHeader is the fixed-size header at the start of an ELF64 file.
type FileHeader struct {
	Ident     types.Ident
	Type      types.Type
	Machine   types.Machine
	Version   uint32
	Entry     types.Addr
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

func (h FileHeader) String() string {
	return fmt.Sprintf("%s %s entry=%s phnum=%d shnum=%d", h.Type, h.Machine, h.Entry, h.PhNum, h.ShNum)
}

// A ProgramHeader describes one segment. Data is the FileSize bytes of the
// segment in the file; the remaining MemSize-FileSize bytes are zero-filled
// when loaded.
type ProgramHeader struct {
	Type     types.SegmentType
	Flags    types.SegmentFlag
	Offset   uint64
	VAddr    types.Addr
	PAddr    types.Addr
	FileSize uint64
	MemSize  uint64
	Align    uint64
	Data     []byte
}

// FileRange is the byte range the segment occupies in the file.
func (p *ProgramHeader) FileRange() types.Range {
	return types.Range{Start: types.Addr(p.Offset), End: types.Addr(p.Offset + p.FileSize)}
}

// MemRange is the address range the segment occupies once loaded.
func (p *ProgramHeader) MemRange() types.Range {
	return types.Range{Start: p.VAddr, End: p.VAddr.Add(p.MemSize)}
}

func (p *ProgramHeader) String() string {
	return fmt.Sprintf("%-11s %s file=%s mem=%s align=%#x", p.Type, p.Flags, p.FileRange(), p.MemRange(), p.Align)
}

// A SectionHeader is one entry of the section header table.
type SectionHeader struct {
	Name      string
	Type      types.SectionType
	Flags     types.SectionFlag
	Addr      types.Addr
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

// A Section is a section header together with its file contents. NOBITS
// sections have no contents.
type Section struct {
	SectionHeader
	data []byte
}

// Data returns the raw, possibly compressed, section contents.
func (s *Section) Data() []byte { return s.data }

func (s *Section) String() string {
	return fmt.Sprintf("%-20s %-12s %-3s addr=%s off=%#x size=%#x", s.Name, s.Type, s.Flags, s.Addr, s.Offset, s.Size)
}
