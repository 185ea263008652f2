// Package loader maps the Load segments of a parsed executable at their
// virtual addresses and transfers control to its entry point.
package loader

import (
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	delf "github.com/appsworld/go-delf"
	"github.com/appsworld/go-delf/types"
)

// Loader maps segments through a Mapper, one segment at a time.
type Loader struct {
	cfg    Config
	mapper Mapper
	logger log.Logger
	verify func(*Mapping) error
}

// New returns a Loader. A nil Logger in cfg is replaced by a no-op logger.
func New(cfg Config, mapper Mapper) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	l := &Loader{cfg: cfg, mapper: mapper, logger: logger}
	if cfg.Verify {
		l.verify = verifyMapping
	}
	return l, nil
}

// Load maps every Load segment of f in table order. For each one it reserves
// writable memory at the segment address, copies the file bytes, records the
// mapping in the image and only then applies the declared protection.
//
// Any failure aborts the load. Regions mapped before the failure stay
// mapped: nothing is ever unmapped once reserved.
func (l *Loader) Load(f *delf.File) (*Image, error) {
	img := &Image{entry: f.Entry, machine: f.Machine}
	for i, ph := range f.ProgramHeaders {
		if ph.Type != types.Load {
			level.Debug(l.logger).Log("msg", "skipping segment", "index", i, "type", ph.Type)
			continue
		}
		if err := l.loadSegment(img, i, ph); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (l *Loader) loadSegment(img *Image, idx int, ph *delf.ProgramHeader) error {
	r := ph.MemRange()
	fail := func(op string, err error) error {
		return &Error{Op: op, Segment: idx, Range: r, Err: err}
	}

	if ph.MemSize == 0 {
		return fail(OpMmap, ErrEmptySegment)
	}
	if l.cfg.Alignment == AlignStrict {
		if !ph.VAddr.IsAligned(l.cfg.PageSize) || ph.Offset%l.cfg.PageSize != 0 {
			return fail(OpAlign, ErrMisaligned)
		}
	}

	level.Info(l.logger).Log("msg", "mapping segment", "index", idx, "range", r, "size", humanize.IBytes(ph.MemSize), "flags", ph.Flags)
	m, err := l.mapper.Map(ph.VAddr, ph.MemSize)
	if err != nil {
		return fail(OpMmap, err)
	}
	img.mappings = append(img.mappings, m)

	level.Debug(l.logger).Log("msg", "copying segment data", "index", idx, "bytes", len(ph.Data))
	if len(m.mem) < len(ph.Data) {
		return fail(OpCopy, errors.Wrapf(ErrShortMapping, "have %d bytes, need %d", len(m.mem), len(ph.Data)))
	}
	copy(m.mem, ph.Data)

	prot := ProtectionOf(ph.Flags)
	level.Debug(l.logger).Log("msg", "protecting segment", "index", idx, "prot", prot)
	if err := l.mapper.Protect(m, prot); err != nil {
		return fail(OpMprotect, err)
	}

	if l.verify != nil {
		if err := l.verify(m); err != nil {
			return fail(OpVerify, err)
		}
	}
	return nil
}
