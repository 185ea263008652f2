package loader

import (
	"os"
	"testing"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/appsworld/go-delf/internal/testelf"
	"github.com/appsworld/go-delf/types"
)

// freeRegion finds an address range that is unmapped right now by mapping an
// anonymous region and releasing it again.
func freeRegion(t *testing.T, length int) types.Addr {
	t.Helper()
	m, err := mmap.MapRegion(nil, length, mmap.RDWR, mmap.ANON, 0)
	require.NoError(t, err)
	addr := types.AddrFromUintptr(uintptr(unsafe.Pointer(&m[0])))
	require.NoError(t, m.Unmap())
	return addr
}

func regionPerms(t *testing.T, addr types.Addr) *procfs.ProcMapPermissions {
	t.Helper()
	self, err := procfs.Self()
	require.NoError(t, err)
	maps, err := self.ProcMaps()
	require.NoError(t, err)
	for _, pm := range maps {
		if pm.StartAddr <= addr.Uintptr() && addr.Uintptr() < pm.EndAddr {
			return pm.Perms
		}
	}
	t.Fatalf("no mapping covers %s", addr)
	return nil
}

var page = uint64(os.Getpagesize())

// hostConfig leaves alignment to the kernel: testelf aligns file offsets to
// 4 KiB, which is less than the page size on some arm64 hosts.
func hostConfig() Config {
	cfg := DefaultConfig()
	cfg.Alignment = AlignHost
	return cfg
}

func TestSystemMapper(t *testing.T) {
	size := 2 * page
	addr := freeRegion(t, int(size))

	var sm SystemMapper
	m, err := sm.Map(addr, size)
	require.NoError(t, err)
	assert.Equal(t, addr, m.Addr)
	assert.Equal(t, ProtRead|ProtWrite, m.Prot)

	perms := regionPerms(t, addr)
	assert.True(t, perms.Read)
	assert.True(t, perms.Write)
	assert.False(t, perms.Execute)

	copy(m.mem, "hello")
	require.NoError(t, sm.Protect(m, ProtRead))
	assert.Equal(t, ProtRead, m.Prot)
	perms = regionPerms(t, addr)
	assert.True(t, perms.Read)
	assert.False(t, perms.Write)
	assert.Equal(t, []byte("hello"), m.mem[:5])
	require.NoError(t, verifyMapping(m))

	// an existing mapping is never replaced
	_, err = sm.Map(addr, size)
	assert.ErrorIs(t, err, unix.EEXIST)
	_, err = sm.Map(addr.Add(page), page)
	assert.ErrorIs(t, err, unix.EEXIST)
}

func TestSystemMapperMisaligned(t *testing.T) {
	addr := freeRegion(t, int(2*page))
	var sm SystemMapper
	_, err := sm.Map(addr.Add(0x10), page)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestLoadWithSystemMapper(t *testing.T) {
	base := freeRegion(t, int(3*page))

	f := mustParse(t, testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: types.X86_64,
		Entry:   base,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead | types.FlagExecute, VAddr: base, MemSize: page, Data: testelf.Payload},
			{Type: types.GnuStack, Flags: types.FlagRead | types.FlagWrite},
			{Type: types.Load, Flags: types.FlagRead | types.FlagWrite, VAddr: base.Add(page), MemSize: 2 * page, Data: []byte{1, 2, 3}},
		},
	}))

	cfg := hostConfig()
	cfg.Verify = true
	l, err := New(cfg, SystemMapper{})
	require.NoError(t, err)
	img, err := l.Load(f)
	require.NoError(t, err)

	require.Len(t, img.Mappings(), 2)
	assert.Equal(t, ProtRead|ProtExec, img.Mappings()[0].Prot)
	assert.Equal(t, ProtRead|ProtWrite, img.Mappings()[1].Prot)

	perms := regionPerms(t, base)
	assert.True(t, perms.Read)
	assert.False(t, perms.Write)
	assert.True(t, perms.Execute)

	code := unsafe.Slice((*byte)(unsafe.Pointer(base.Uintptr())), len(testelf.Payload))
	assert.Equal(t, testelf.Payload, code)
	data := unsafe.Slice((*byte)(unsafe.Pointer(base.Add(page).Uintptr())), int(2*page))
	assert.Equal(t, []byte{1, 2, 3, 0}, data[:4])
	assert.Equal(t, byte(0), data[2*page-1])
}

func TestLoadConflictWithSystemMapper(t *testing.T) {
	base := freeRegion(t, int(2*page))

	f := mustParse(t, testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: types.X86_64,
		Entry:   base,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead, VAddr: base, MemSize: 2 * page, Data: []byte{1}},
			{Type: types.Load, Flags: types.FlagRead | types.FlagWrite, VAddr: base.Add(page), MemSize: page, Data: []byte{2}},
		},
	}))
	l, err := New(hostConfig(), SystemMapper{})
	require.NoError(t, err)
	_, err = l.Load(f)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, OpMmap, lerr.Op)
	assert.Equal(t, 1, lerr.Segment)
	assert.ErrorIs(t, err, unix.EEXIST)

	// the first segment stays mapped and protected
	perms := regionPerms(t, base)
	assert.True(t, perms.Read)
	assert.False(t, perms.Write)
}

func TestVerifyMappingDetectsMismatch(t *testing.T) {
	addr := freeRegion(t, int(page))
	var sm SystemMapper
	m, err := sm.Map(addr, page)
	require.NoError(t, err)

	m.Prot = ProtRead | ProtExec
	assert.ErrorContains(t, verifyMapping(m), "want r-x")

	unmapped := &Mapping{Addr: freeRegion(t, int(page)), Len: page, Prot: ProtRead}
	assert.ErrorContains(t, verifyMapping(unmapped), "no region covers")
}
