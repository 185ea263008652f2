package loader

import "github.com/appsworld/go-delf/types"

// A Mapping is a reserved region of the address space backing one segment.
// Mappings live until the process exits or is replaced by a jump.
type Mapping struct {
	Addr types.Addr
	Len  uint64
	Prot Protection

	mem []byte
}

// NewMapping describes the region at addr backed by mem, as returned by a
// Mapper. The loader copies segment data into mem.
func NewMapping(addr types.Addr, prot Protection, mem []byte) *Mapping {
	return &Mapping{Addr: addr, Len: uint64(len(mem)), Prot: prot, mem: mem}
}

// Bytes returns the memory backing the mapping.
func (m *Mapping) Bytes() []byte { return m.mem }

// Range is the address range of the mapping.
func (m *Mapping) Range() types.Range {
	return types.Range{Start: m.Addr, End: m.Addr.Add(m.Len)}
}

// A Mapper reserves and protects memory for the loader.
type Mapper interface {
	// Map reserves length bytes of private, zero-filled, readable and
	// writable memory at exactly addr. An existing mapping in that range is
	// an error, never replaced. The returned Mapping must be built with
	// NewMapping so the loader can write to it.
	Map(addr types.Addr, length uint64) (*Mapping, error)
	// Protect changes the protection of the whole mapping.
	Protect(m *Mapping, prot Protection) error
}
