package types

import "strings"

// A SectionType is the sh_type of a section header. Sections are only used
// for inspection, so unknown types are kept rather than rejected.
type SectionType uint32

const (
	SHT_NULL          SectionType = 0x0
	SHT_PROGBITS      SectionType = 0x1
	SHT_SYMTAB        SectionType = 0x2
	SHT_STRTAB        SectionType = 0x3
	SHT_RELA          SectionType = 0x4
	SHT_HASH          SectionType = 0x5
	SHT_DYNAMIC       SectionType = 0x6
	SHT_NOTE          SectionType = 0x7
	SHT_NOBITS        SectionType = 0x8
	SHT_REL           SectionType = 0x9
	SHT_DYNSYM        SectionType = 0xb
	SHT_INIT_ARRAY    SectionType = 0xe
	SHT_FINI_ARRAY    SectionType = 0xf
	SHT_PREINIT_ARRAY SectionType = 0x10
	SHT_GROUP         SectionType = 0x11
	SHT_SYMTAB_SHNDX  SectionType = 0x12
	SHT_GNU_HASH      SectionType = 0x6ffffff6
	SHT_GNU_VERDEF    SectionType = 0x6ffffffd
	SHT_GNU_VERNEED   SectionType = 0x6ffffffe
	SHT_GNU_VERSYM    SectionType = 0x6fffffff
)

var sectionTypeStrings = []intName{
	{uint32(SHT_NULL), "NULL"},
	{uint32(SHT_PROGBITS), "PROGBITS"},
	{uint32(SHT_SYMTAB), "SYMTAB"},
	{uint32(SHT_STRTAB), "STRTAB"},
	{uint32(SHT_RELA), "RELA"},
	{uint32(SHT_HASH), "HASH"},
	{uint32(SHT_DYNAMIC), "DYNAMIC"},
	{uint32(SHT_NOTE), "NOTE"},
	{uint32(SHT_NOBITS), "NOBITS"},
	{uint32(SHT_REL), "REL"},
	{uint32(SHT_DYNSYM), "DYNSYM"},
	{uint32(SHT_INIT_ARRAY), "INIT_ARRAY"},
	{uint32(SHT_FINI_ARRAY), "FINI_ARRAY"},
	{uint32(SHT_PREINIT_ARRAY), "PREINIT_ARRAY"},
	{uint32(SHT_GROUP), "GROUP"},
	{uint32(SHT_SYMTAB_SHNDX), "SYMTAB_SHNDX"},
	{uint32(SHT_GNU_HASH), "GNU_HASH"},
	{uint32(SHT_GNU_VERDEF), "GNU_VERDEF"},
	{uint32(SHT_GNU_VERNEED), "GNU_VERNEED"},
	{uint32(SHT_GNU_VERSYM), "GNU_VERSYM"},
}

func (t SectionType) String() string   { return stringName(uint32(t), sectionTypeStrings, false) }
func (t SectionType) GoString() string { return stringName(uint32(t), sectionTypeStrings, true) }

// SectionFlag is the sh_flags bit set.
type SectionFlag uint64

const (
	SHF_WRITE            SectionFlag = 0x1
	SHF_ALLOC            SectionFlag = 0x2
	SHF_EXECINSTR        SectionFlag = 0x4
	SHF_MERGE            SectionFlag = 0x10
	SHF_STRINGS          SectionFlag = 0x20
	SHF_INFO_LINK        SectionFlag = 0x40
	SHF_LINK_ORDER       SectionFlag = 0x80
	SHF_OS_NONCONFORMING SectionFlag = 0x100
	SHF_GROUP            SectionFlag = 0x200
	SHF_TLS              SectionFlag = 0x400
	SHF_COMPRESSED       SectionFlag = 0x800
)

func (f SectionFlag) Alloc() bool      { return f&SHF_ALLOC != 0 }
func (f SectionFlag) Compressed() bool { return f&SHF_COMPRESSED != 0 }

// String renders the flags readelf style, e.g. "WAX".
func (f SectionFlag) String() string {
	var sb strings.Builder
	for _, fl := range []struct {
		f SectionFlag
		c byte
	}{
		{SHF_WRITE, 'W'},
		{SHF_ALLOC, 'A'},
		{SHF_EXECINSTR, 'X'},
		{SHF_MERGE, 'M'},
		{SHF_STRINGS, 'S'},
		{SHF_INFO_LINK, 'I'},
		{SHF_LINK_ORDER, 'L'},
		{SHF_OS_NONCONFORMING, 'O'},
		{SHF_GROUP, 'G'},
		{SHF_TLS, 'T'},
		{SHF_COMPRESSED, 'C'},
	} {
		if f&fl.f != 0 {
			sb.WriteByte(fl.c)
		}
	}
	return sb.String()
}

// CompressionType is the ch_type of a compressed section header.
type CompressionType uint32

const (
	COMPRESS_ZLIB CompressionType = 1
	COMPRESS_ZSTD CompressionType = 2
)
