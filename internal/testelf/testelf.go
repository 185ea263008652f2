// Package testelf writes small ELF64 images for unit tests.
package testelf

import (
	"encoding/binary"

	"github.com/appsworld/go-delf/types"
)

const pageSize = 0x1000

// Segment describes one program header. When Offset is zero and Data is not
// empty, the data is placed at the next page-aligned file offset.
type Segment struct {
	Type    types.SegmentType
	Flags   types.SegmentFlag
	Offset  uint64
	VAddr   types.Addr
	MemSize uint64
	Align   uint64
	Data    []byte
}

// Section describes one section header; its data is appended to the file.
type Section struct {
	Name  string
	Type  types.SectionType
	Flags types.SectionFlag
	Addr  types.Addr
	Data  []byte
}

// Image is the input of Build.
type Image struct {
	Type     types.Type
	Machine  types.Machine
	Entry    types.Addr
	Segments []Segment
	Sections []Section
}

// Build lays out the file header, the program header table, the segment
// data and finally the sections (plus a .shstrtab when there are any).
func Build(img Image) []byte {
	le := binary.LittleEndian

	phoff := uint64(types.FileHeaderSize64)
	end := phoff + uint64(len(img.Segments))*types.ProgHeaderSize64

	type placed struct {
		Segment
		off uint64
	}
	segs := make([]placed, len(img.Segments))
	for i, s := range img.Segments {
		off := s.Offset
		if off == 0 && len(s.Data) > 0 {
			off = (end + pageSize - 1) &^ (pageSize - 1)
		}
		segs[i] = placed{s, off}
		if e := off + uint64(len(s.Data)); e > end {
			end = e
		}
	}

	var shstrtab []byte
	var nameOff []uint32
	var secOff []uint64
	var shoff uint64
	if len(img.Sections) > 0 {
		shstrtab = append(shstrtab, 0)
		for _, s := range img.Sections {
			nameOff = append(nameOff, uint32(len(shstrtab)))
			shstrtab = append(shstrtab, s.Name...)
			shstrtab = append(shstrtab, 0)
		}
		nameOff = append(nameOff, uint32(len(shstrtab)))
		shstrtab = append(shstrtab, ".shstrtab\x00"...)
		for _, s := range img.Sections {
			secOff = append(secOff, end)
			if s.Type != types.SHT_NOBITS {
				end += uint64(len(s.Data))
			}
		}
		secOff = append(secOff, end)
		end += uint64(len(shstrtab))
		shoff = (end + 7) &^ 7
		end = shoff + uint64(len(img.Sections)+2)*types.SectionHeaderSize64
	}

	b := make([]byte, end)

	// identification
	copy(b, types.Magic)
	b[4] = byte(types.Class64)
	b[5] = byte(types.Data2LSB)
	b[6] = 1 // EV_CURRENT
	b[7] = byte(types.OSABISysV)

	le.PutUint16(b[16:], uint16(img.Type))
	le.PutUint16(b[18:], uint16(img.Machine))
	le.PutUint32(b[20:], 1)
	le.PutUint64(b[24:], uint64(img.Entry))
	if len(segs) > 0 {
		le.PutUint64(b[32:], phoff)
	}
	le.PutUint64(b[40:], shoff)
	le.PutUint32(b[48:], 0)
	le.PutUint16(b[52:], types.FileHeaderSize64)
	le.PutUint16(b[54:], types.ProgHeaderSize64)
	le.PutUint16(b[56:], uint16(len(segs)))
	le.PutUint16(b[58:], types.SectionHeaderSize64)
	if len(img.Sections) > 0 {
		le.PutUint16(b[60:], uint16(len(img.Sections)+2))
		le.PutUint16(b[62:], uint16(len(img.Sections)+1))
	}

	for i, s := range segs {
		p := b[phoff+uint64(i)*types.ProgHeaderSize64:]
		memsz := s.MemSize
		if memsz == 0 {
			memsz = uint64(len(s.Data))
		}
		align := s.Align
		if align == 0 {
			align = pageSize
		}
		le.PutUint32(p[0:], uint32(s.Type))
		le.PutUint32(p[4:], uint32(s.Flags))
		le.PutUint64(p[8:], s.off)
		le.PutUint64(p[16:], uint64(s.VAddr))
		le.PutUint64(p[24:], uint64(s.VAddr))
		le.PutUint64(p[32:], uint64(len(s.Data)))
		le.PutUint64(p[40:], memsz)
		le.PutUint64(p[48:], align)
		copy(b[s.off:], s.Data)
	}

	if len(img.Sections) > 0 {
		// index 0 is the SHN_UNDEF entry and stays zeroed
		put := func(idx int, name uint32, typ types.SectionType, flags types.SectionFlag, addr types.Addr, off, size uint64) {
			p := b[shoff+uint64(idx)*types.SectionHeaderSize64:]
			le.PutUint32(p[0:], name)
			le.PutUint32(p[4:], uint32(typ))
			le.PutUint64(p[8:], uint64(flags))
			le.PutUint64(p[16:], uint64(addr))
			le.PutUint64(p[24:], off)
			le.PutUint64(p[32:], size)
			le.PutUint64(p[48:], 1)
		}
		for i, s := range img.Sections {
			if s.Type != types.SHT_NOBITS {
				copy(b[secOff[i]:], s.Data)
			}
			put(i+1, nameOff[i], s.Type, s.Flags, s.Addr, secOff[i], uint64(len(s.Data)))
		}
		n := len(img.Sections)
		copy(b[secOff[n]:], shstrtab)
		put(n+1, nameOff[n], types.SHT_STRTAB, 0, 0, secOff[n], uint64(len(shstrtab)))
	}
	return b
}

// Executable returns a static x86-64 executable with a single Load segment:
// entry 0x401000, 0x1000 bytes at 0x400000, read+execute, 16 bytes of
// payload.
func Executable(payload []byte) []byte {
	return Build(Image{
		Type:    types.Exec,
		Machine: types.X86_64,
		Entry:   0x401000,
		Segments: []Segment{{
			Type:    types.Load,
			Flags:   types.FlagRead | types.FlagExecute,
			VAddr:   0x400000,
			MemSize: 0x1000,
			Data:    payload,
		}},
	})
}

// Payload is the 16 bytes Executable is usually built with. It calls
// exit_group(0): plain exit would end only the calling thread.
var Payload = []byte{
	0x48, 0x31, 0xff, // xor rdi, rdi
	0xb8, 0xe7, 0x00, 0x00, 0x00, // mov eax, 231
	0x0f, 0x05, // syscall
	0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, // int3 padding
}
