package loader

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/appsworld/go-delf/types"
)

// SystemMapper maps anonymous memory with mmap(2) and mprotect(2).
type SystemMapper struct{}

func hostProt(p Protection) int {
	prot := unix.PROT_NONE
	if p.Read() {
		prot |= unix.PROT_READ
	}
	if p.Write() {
		prot |= unix.PROT_WRITE
	}
	if p.Execute() {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// Map reserves the region with MAP_FIXED_NOREPLACE. Kernels older than 4.17
// treat the flag as a hint, so the returned address is checked as well.
func (SystemMapper) Map(addr types.Addr, length uint64) (*Mapping, error) {
	want := unsafe.Pointer(addr.Uintptr())
	p, err := unix.MmapPtr(-1, 0, want, uintptr(length),
		hostProt(ProtRead|ProtWrite),
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_FIXED_NOREPLACE)
	if err != nil {
		return nil, err
	}
	if p != want {
		unix.MunmapPtr(p, uintptr(length))
		return nil, unix.EEXIST
	}
	return NewMapping(addr, ProtRead|ProtWrite, unsafe.Slice((*byte)(p), length)), nil
}

func (SystemMapper) Protect(m *Mapping, prot Protection) error {
	if err := unix.Mprotect(m.mem, hostProt(prot)); err != nil {
		return err
	}
	m.Prot = prot
	return nil
}
