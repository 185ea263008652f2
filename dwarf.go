package delf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/go-dwarf"

	"github.com/appsworld/go-delf/types"
)

// chdrSize is the size of an Elf64_Chdr.
const chdrSize = 24

func dwarfSuffix(s *Section) string {
	switch {
	case strings.HasPrefix(s.Name, ".debug_"):
		return s.Name[7:]
	case strings.HasPrefix(s.Name, ".zdebug_"):
		return s.Name[8:]
	default:
		return ""
	}
}

// sectionData returns the contents of s, inflating SHF_COMPRESSED sections
// and legacy .zdebug sections.
func sectionData(s *Section) ([]byte, error) {
	b := s.Data()
	if uint64(len(b)) < s.Size && s.Type != types.SHT_NOBITS {
		return nil, &FormatError{int64(s.Offset), "truncated section", s.Name}
	}

	var dlen uint64
	switch {
	case s.Flags.Compressed():
		if len(b) < chdrSize {
			return nil, &FormatError{int64(s.Offset), "compressed section too small", s.Name}
		}
		ctype := types.CompressionType(binary.LittleEndian.Uint32(b[0:4]))
		if ctype != types.COMPRESS_ZLIB {
			return nil, &FormatError{int64(s.Offset), "unsupported compression type", ctype}
		}
		dlen = binary.LittleEndian.Uint64(b[8:16])
		b = b[chdrSize:]
	case len(b) >= 12 && string(b[:4]) == "ZLIB":
		dlen = binary.BigEndian.Uint64(b[4:12])
		b = b[12:]
	default:
		return b, nil
	}

	dbuf := make([]byte, dlen)
	r, err := zlib.NewReader(bytes.NewBuffer(b))
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, dbuf); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	return dbuf, nil
}

// DWARF returns the DWARF debug information for the ELF file.
func (f *File) DWARF() (*dwarf.Data, error) {
	var dat = map[string][]byte{"abbrev": nil, "info": nil, "str": nil, "line": nil, "ranges": nil}
	for _, s := range f.Sections {
		suffix := dwarfSuffix(s)
		if suffix == "" {
			continue
		}
		if _, ok := dat[suffix]; !ok {
			continue
		}
		b, err := sectionData(s)
		if err != nil {
			return nil, err
		}
		dat[suffix] = b
	}
	if dat["info"] == nil {
		return nil, &FormatError{0, "missing section", ".debug_info"}
	}

	d, err := dwarf.New(dat["abbrev"], nil, nil, dat["info"], dat["line"], nil, dat["ranges"], dat["str"])
	if err != nil {
		return nil, err
	}

	// DWARF4 .debug_types sections.
	for i, s := range f.Sections {
		if dwarfSuffix(s) != "types" {
			continue
		}
		b, err := sectionData(s)
		if err != nil {
			return nil, err
		}
		if err := d.AddTypes(fmt.Sprintf("types-%d", i), b); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// EntrySymbol returns the name of the subprogram whose code contains the
// entry point, or "" when the debug information does not cover it.
func (f *File) EntrySymbol() (string, error) {
	d, err := f.DWARF()
	if err != nil {
		return "", err
	}
	entry := uint64(f.Entry)
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return "", err
		}
		if e == nil {
			return "", nil
		}
		if e.Tag != dwarf.TagSubprogram {
			continue
		}
		low, ok := e.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		var high uint64
		switch v := e.Val(dwarf.AttrHighpc).(type) {
		case uint64:
			high = v
		case int64:
			high = low + uint64(v)
		default:
			continue
		}
		if low <= entry && entry < high {
			name, _ := e.Val(dwarf.AttrName).(string)
			return name, nil
		}
	}
}
