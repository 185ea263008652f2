package loader

import "github.com/appsworld/go-delf/types"

// Protection is a host page protection bit set. The values are the POSIX
// PROT_* bits shared by every Unix this package maps memory on.
type Protection int

const (
	ProtNone  Protection = 0x0
	ProtRead  Protection = 0x1
	ProtWrite Protection = 0x2
	ProtExec  Protection = 0x4
)

// ProtectionOf translates segment access flags to host protection bits. The
// two encodings differ (PF_R is 4, PROT_READ is 1) so this is never a cast.
func ProtectionOf(f types.SegmentFlag) Protection {
	var p Protection
	if f.Read() {
		p |= ProtRead
	}
	if f.Write() {
		p |= ProtWrite
	}
	if f.Execute() {
		p |= ProtExec
	}
	return p
}

func (p Protection) Read() bool    { return p&ProtRead != 0 }
func (p Protection) Write() bool   { return p&ProtWrite != 0 }
func (p Protection) Execute() bool { return p&ProtExec != 0 }

func (p Protection) String() string {
	s := []byte("---")
	if p.Read() {
		s[0] = 'r'
	}
	if p.Write() {
		s[1] = 'w'
	}
	if p.Execute() {
		s[2] = 'x'
	}
	return string(s)
}
