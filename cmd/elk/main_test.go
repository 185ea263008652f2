package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsworld/go-delf/internal/testelf"
	"github.com/appsworld/go-delf/pkg/loader"
	"github.com/appsworld/go-delf/types"
)

// heapMapper satisfies loader.Mapper with heap buffers instead of the
// address space.
type heapMapper struct {
	mapped []types.Range
	mem    [][]byte
}

func (h *heapMapper) Map(addr types.Addr, length uint64) (*loader.Mapping, error) {
	h.mapped = append(h.mapped, types.Range{Start: addr, End: addr.Add(length)})
	mem := make([]byte, length)
	h.mem = append(h.mem, mem)
	return loader.NewMapping(addr, loader.ProtRead|loader.ProtWrite, mem), nil
}

func (h *heapMapper) Protect(m *loader.Mapping, prot loader.Protection) error {
	m.Prot = prot
	return nil
}

func writeFile(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o755))
	return path
}

func TestCheckError(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	assert.Equal(t, 0, checkError(&buf, nil))
	assert.Empty(t, buf.String())

	assert.Equal(t, 1, checkError(&buf, errors.Wrap(errReported, "parse")))
	assert.Empty(t, buf.String())

	assert.Equal(t, 1, checkError(&buf, errors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestLoaderConfig(t *testing.T) {
	p := &runParams{}
	lcfg, err := p.loaderConfig()
	require.NoError(t, err)
	assert.Equal(t, loader.AlignStrict, lcfg.Alignment)
	assert.False(t, lcfg.Verify)

	p.config = writeFile(t, "loader.yaml", []byte("alignment: host\nverify: false\n"))
	lcfg, err = p.loaderConfig()
	require.NoError(t, err)
	assert.Equal(t, loader.AlignHost, lcfg.Alignment)

	p.alignment = "strict"
	p.verify = true
	lcfg, err = p.loaderConfig()
	require.NoError(t, err)
	assert.Equal(t, loader.AlignStrict, lcfg.Alignment)
	assert.True(t, lcfg.Verify)
	assert.NotNil(t, lcfg.Logger)
}

func TestPause(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, pause(strings.NewReader("\n"), &out, "jmp"))
	assert.Equal(t, "Press Enter to jmp...", out.String())

	// EOF releases the pause too
	require.NoError(t, pause(strings.NewReader(""), &out, "jmp"))
}

func TestInfo(t *testing.T) {
	text := bytes.Repeat([]byte{0x90}, 64)
	path := writeFile(t, "hello", testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: types.X86_64,
		Entry:   0x401000,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead | types.FlagExecute, VAddr: 0x401000, Data: text},
			{Type: types.GnuStack, Flags: types.FlagRead | types.FlagWrite},
		},
		Sections: []testelf.Section{
			{Name: ".text", Type: types.SHT_PROGBITS, Flags: types.SHF_ALLOC | types.SHF_EXECINSTR, Addr: 0x401000, Data: text},
		},
	}))

	var out, errOut bytes.Buffer
	require.NoError(t, info(&out, &errOut, path))
	assert.Empty(t, errOut.String())

	s := out.String()
	assert.Contains(t, s, "Entry: 00401000")
	assert.Contains(t, s, "Machine: X86_64")
	assert.Contains(t, s, "Type: Exec")
	assert.Contains(t, s, "GnuStack")
	assert.Contains(t, s, "r-x")
	assert.Contains(t, s, ".shstrtab")
	assert.Contains(t, s, "AX")
	assert.NotContains(t, s, "Entry symbol")
}

func TestInfoReportsParseErrors(t *testing.T) {
	b := testelf.Executable(testelf.Payload)
	b[18] = 0xfa
	path := writeFile(t, "bad", b)

	var out, errOut bytes.Buffer
	err := info(&out, &errOut, path)
	assert.ErrorIs(t, err, errReported)
	assert.Empty(t, out.String())
	assert.True(t, strings.HasPrefix(errOut.String(), "Parsing failed:\n"))
	assert.Contains(t, errOut.String(), "MapRes at position 18: unknown Machine code 0xfa")
	assert.Contains(t, errOut.String(), "Machine at position 18:")
	assert.Contains(t, errOut.String(), "00000012: fa 00 01 00 00 00 ")
}

func hostMachine() types.Machine {
	for _, m := range []types.Machine{types.X86_64, types.AArch64} {
		if m.GOARCH() == runtime.GOARCH {
			return m
		}
	}
	return 0
}

func TestPrepare(t *testing.T) {
	machine := hostMachine()
	if machine == 0 {
		t.Skipf("no jump support on %s", runtime.GOARCH)
	}
	path := writeFile(t, "exec", testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: machine,
		Entry:   0x401000,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead | types.FlagExecute, VAddr: 0x400000, MemSize: 0x2000, Data: testelf.Payload},
		},
	}))

	hm := &heapMapper{}
	p := &runParams{file: path, alignment: "host", stderr: &bytes.Buffer{}}
	img, err := prepare(p, hm)
	require.NoError(t, err)
	assert.Equal(t, types.Addr(0x401000), img.Entry())
	assert.Equal(t, []types.Range{{Start: 0x400000, End: 0x402000}}, hm.mapped)
	assert.Equal(t, testelf.Payload, hm.mem[0][:len(testelf.Payload)])
	assert.Equal(t, []loader.Mapping{{Addr: 0x400000, Len: 0x2000, Prot: loader.ProtRead | loader.ProtExec}}, img.Mappings())
}

func TestPrepareRefusesNonExecutableEntry(t *testing.T) {
	machine := hostMachine()
	if machine == 0 {
		t.Skipf("no jump support on %s", runtime.GOARCH)
	}
	path := writeFile(t, "exec", testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: machine,
		Entry:   0x400000,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead | types.FlagWrite, VAddr: 0x400000, Data: testelf.Payload},
		},
	}))
	p := &runParams{file: path, alignment: "host", stderr: &bytes.Buffer{}}
	_, err := prepare(p, &heapMapper{})
	assert.ErrorContains(t, err, "non-executable")
}

func TestPrepareLoadFailure(t *testing.T) {
	path := writeFile(t, "exec", testelf.Build(testelf.Image{
		Type:    types.Exec,
		Machine: types.X86_64,
		Entry:   0x400010,
		Segments: []testelf.Segment{
			{Type: types.Load, Flags: types.FlagRead | types.FlagExecute, VAddr: 0x400010, Data: testelf.Payload},
		},
	}))
	p := &runParams{file: path, alignment: "strict", stderr: &bytes.Buffer{}}
	_, err := prepare(p, &heapMapper{})

	var lerr *loader.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, loader.OpAlign, lerr.Op)
	assert.Contains(t, err.Error(), "failed to load segments")
}
