// Package delf parses static ELF64 executables for loading.
package delf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/appsworld/go-delf/pkg/parse"
	"github.com/appsworld/go-delf/types"
)

// A File represents an open ELF64 file.
type File struct {
	FileHeader
	ProgramHeaders []*ProgramHeader
	Sections       []*Section

	closer io.Closer
}

// FormatError is returned by some operations if the data does
// not have the correct format for an object file.
type FormatError struct {
	off int64
	msg string
	val interface{}
}

func (e *FormatError) Error() string {
	msg := e.msg
	if e.val != nil {
		msg += fmt.Sprintf(" '%v'", e.val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.off)
	return msg
}

// Open maps the named file read-only and parses it. The mapping backs every
// Data slice of the returned File and lives until Close.
func Open(name string) (*File, error) {
	data, closer, err := mapFile(name)
	if err != nil {
		return nil, err
	}
	ff, err := Parse(data)
	if err != nil {
		closer.Close()
		return nil, err
	}
	ff.closer = closer
	return ff, nil
}

// mapFile maps the named file read-only. An empty file yields no data and a
// closer with nothing to release.
func mapFile(name string) ([]byte, io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	// the mapping outlives the descriptor
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if fi.Size() == 0 {
		// an empty file cannot be mapped; let the parser report it
		return nil, &mapping{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to map %s", name)
	}
	return m, &mapping{m: m}, nil
}

type mapping struct{ m mmap.MMap }

func (mm *mapping) Close() error {
	if mm.m == nil {
		return nil
	}
	err := mm.m.Unmap()
	mm.m = nil
	return err
}

// Close releases the mapping created by Open. Files returned by Parse have
// nothing to release. No Data slice may be used after Close.
func (f *File) Close() error {
	var err error
	if f.closer != nil {
		err = f.closer.Close()
		f.closer = nil
	}
	return err
}

// NewFile reads the first size bytes of r into memory and parses them.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	return Parse(data)
}

// Parse decodes the file header, the program header table and the section
// header table of the ELF64 image in data. The returned File aliases data.
// Every error is a *parse.Error with Failure severity.
func Parse(data []byte) (*File, error) {
	_, f, err := parse.Cut(parseFile)(parse.NewInput(data))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func parseFile(full parse.Input) (parse.Input, *File, error) {
	_, hdr, err := parse.Context("FileHeader", parseFileHeader)(full)
	if err != nil {
		return full, nil, err
	}
	f := &File{FileHeader: hdr}

	_, f.ProgramHeaders, err = parse.Context("ProgramHeaders",
		parse.At(hdr.PhOff, parse.Count(
			parse.Context("ProgramHeader", stride(int(hdr.PhEntSize), parseProgramHeader(full))),
			int(hdr.PhNum),
		)))(full)
	if err != nil {
		return full, nil, err
	}

	if hdr.ShOff != 0 && hdr.ShNum != 0 {
		if f.Sections, err = parseSections(full, hdr); err != nil {
			return full, nil, err
		}
	}
	return full, f, nil
}

// stride runs p on the next size bytes and consumes exactly size bytes.
func stride[T any](size int, p parse.Parser[T]) parse.Parser[T] {
	return func(in parse.Input) (parse.Input, T, error) {
		var zero T
		rest, entry, err := parse.Take(size)(in)
		if err != nil {
			return in, zero, err
		}
		_, v, err := p(entry)
		if err != nil {
			return in, zero, err
		}
		return rest, v, nil
	}
}

func equals[T comparable](p parse.Parser[T], want T) parse.Parser[T] {
	return parse.Cut(parse.Verify(p, func(v T) bool { return v == want }))
}

func parseFileHeader(in parse.Input) (parse.Input, FileHeader, error) {
	var h FileHeader

	i, _, err := parse.Context("Magic", parse.Tag(types.Magic))(in)
	if err != nil {
		return in, h, err
	}
	if i, h.Ident, err = parse.Context("Ident", types.ParseIdent)(i); err != nil {
		return in, h, err
	}
	if i, h.Type, err = types.ParseType(i); err != nil {
		return in, h, err
	}
	if i, h.Machine, err = types.ParseMachine(i); err != nil {
		return in, h, err
	}
	if i, h.Version, err = parse.Context("Version", equals(parse.LeU32, 1))(i); err != nil {
		return in, h, err
	}
	if i, h.Entry, err = parse.Context("Entry", types.ParseAddr)(i); err != nil {
		return in, h, err
	}
	if i, h.PhOff, err = parse.Context("PhOff", parse.LeU64)(i); err != nil {
		return in, h, err
	}
	if i, h.ShOff, err = parse.Context("ShOff", parse.LeU64)(i); err != nil {
		return in, h, err
	}
	if i, h.Flags, err = parse.Context("Flags", parse.LeU32)(i); err != nil {
		return in, h, err
	}
	if i, h.EhSize, err = parse.Context("EhSize", equals(parse.LeU16, uint16(types.FileHeaderSize64)))(i); err != nil {
		return in, h, err
	}

	sizes := []struct {
		label string
		dst   *uint16
	}{
		{"PhEntSize", &h.PhEntSize},
		{"PhNum", &h.PhNum},
		{"ShEntSize", &h.ShEntSize},
		{"ShNum", &h.ShNum},
		{"ShStrNdx", &h.ShStrNdx},
	}
	for _, sz := range sizes {
		if i, *sz.dst, err = parse.Context(sz.label, parse.LeU16)(i); err != nil {
			return in, h, err
		}
	}
	return i, h, nil
}

// parseProgramHeader decodes one table entry. full is the whole file, which
// the segment's file extent must lie within.
func parseProgramHeader(full parse.Input) parse.Parser[*ProgramHeader] {
	return func(in parse.Input) (parse.Input, *ProgramHeader, error) {
		i, typ, err := types.ParseSegmentType(in)
		if err != nil {
			return in, nil, err
		}
		i, flags, err := types.ParseSegmentFlag(i)
		if err != nil {
			return in, nil, err
		}
		i, f, err := parse.Count(parse.LeU64, 6)(i)
		if err != nil {
			return in, nil, err
		}
		ph := &ProgramHeader{
			Type:     typ,
			Flags:    flags,
			Offset:   f[0],
			VAddr:    types.Addr(f[1]),
			PAddr:    types.Addr(f[2]),
			FileSize: f[3],
			MemSize:  f[4],
			Align:    f[5],
		}
		if ph.FileSize > ph.MemSize {
			return in, nil, parse.Failf(in, parse.KindVerify, "file size %#x exceeds memory size %#x", ph.FileSize, ph.MemSize)
		}
		data, ok := full.Slice(ph.Offset, ph.FileSize)
		if !ok {
			return in, nil, parse.Failf(in, parse.KindSeek, "segment data %#x+%#x beyond end of file (%#x bytes)", ph.Offset, ph.FileSize, full.Len())
		}
		ph.Data = data
		return i, ph, nil
	}
}

type rawSection struct {
	*Section
	name uint32
	at   parse.Input
}

func parseSectionHeader(full parse.Input) parse.Parser[rawSection] {
	return func(in parse.Input) (parse.Input, rawSection, error) {
		var raw rawSection
		i, w, err := parse.Tuple2(parse.LeU32, parse.LeU32)(in)
		if err != nil {
			return in, raw, err
		}
		i, q, err := parse.Count(parse.LeU64, 4)(i)
		if err != nil {
			return in, raw, err
		}
		i, li, err := parse.Tuple2(parse.LeU32, parse.LeU32)(i)
		if err != nil {
			return in, raw, err
		}
		i, al, err := parse.Tuple2(parse.LeU64, parse.LeU64)(i)
		if err != nil {
			return in, raw, err
		}
		s := &Section{SectionHeader: SectionHeader{
			Type:      types.SectionType(w.Second),
			Flags:     types.SectionFlag(q[0]),
			Addr:      types.Addr(q[1]),
			Offset:    q[2],
			Size:      q[3],
			Link:      li.First,
			Info:      li.Second,
			AddrAlign: al.First,
			EntSize:   al.Second,
		}}
		if s.Type != types.SHT_NOBITS && s.Type != types.SHT_NULL {
			data, ok := full.Slice(s.Offset, s.Size)
			if !ok {
				return in, raw, parse.Failf(in, parse.KindSeek, "section data %#x+%#x beyond end of file (%#x bytes)", s.Offset, s.Size, full.Len())
			}
			s.data = data
		}
		return i, rawSection{Section: s, name: w.First, at: in}, nil
	}
}

func parseSections(full parse.Input, hdr FileHeader) ([]*Section, error) {
	_, raw, err := parse.Context("SectionHeaders",
		parse.At(hdr.ShOff, parse.Count(
			parse.Context("SectionHeader", stride(int(hdr.ShEntSize), parseSectionHeader(full))),
			int(hdr.ShNum),
		)))(full)
	if err != nil {
		return nil, err
	}

	var strtab []byte
	if idx := int(hdr.ShStrNdx); idx != 0 && idx < len(raw) {
		strtab = raw[idx].data
	}
	sections := make([]*Section, len(raw))
	for i, r := range raw {
		if strtab != nil {
			if int(r.name) >= len(strtab) {
				return nil, parse.Failf(r.at, parse.KindSeek, "name offset %#x beyond string table (%#x bytes)", r.name, len(strtab))
			}
			r.Name = cstring(strtab[r.name:])
		}
		sections[i] = r.Section
	}
	return sections, nil
}

func cstring(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		i = len(b)
	}
	return string(b[0:i])
}

// LoadSegments returns the program headers of type Load, in table order.
func (f *File) LoadSegments() []*ProgramHeader {
	var loads []*ProgramHeader
	for _, ph := range f.ProgramHeaders {
		if ph.Type == types.Load {
			loads = append(loads, ph)
		}
	}
	return loads
}

// Section returns the first section with the given name, or nil.
func (f *File) Section(name string) *Section {
	for _, s := range f.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}
