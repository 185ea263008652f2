package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	delf "github.com/appsworld/go-delf"
	"github.com/appsworld/go-delf/pkg/loader"
)

type runParams struct {
	file      string
	pause     bool
	alignment string
	verify    bool
	config    string

	stdin  io.Reader
	stderr io.Writer
}

// loaderConfig layers the flags over the config file over the defaults.
func (p *runParams) loaderConfig() (loader.Config, error) {
	lcfg := loader.DefaultConfig()
	if p.config != "" {
		var err error
		if lcfg, err = loader.LoadConfig(p.config); err != nil {
			return lcfg, err
		}
	}
	if p.alignment != "" {
		lcfg.Alignment = loader.Alignment(p.alignment)
	}
	if p.verify {
		lcfg.Verify = true
	}
	lcfg.Logger = logger
	return lcfg, lcfg.Validate()
}

// openImage opens and parses file. Parse failures are written to w as a
// positional diagnostic and reported as errReported.
func openImage(file string, w io.Writer) (*delf.File, error) {
	f, err := delf.OpenOrPrintError(file, w)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errReported
	}
	return f, nil
}

func prepare(p *runParams, mapper loader.Mapper) (*loader.Image, error) {
	lcfg, err := p.loaderConfig()
	if err != nil {
		return nil, err
	}

	level.Info(logger).Log("msg", "analyzing", "file", p.file)
	f, err := openImage(p.file, p.stderr)
	if err != nil {
		return nil, err
	}
	// f is not closed: the loaded program replaces this process.
	level.Info(logger).Log("msg", "parsed", "type", f.Type, "machine", f.Machine, "entry", f.Entry, "segments", len(f.ProgramHeaders))
	for i, ph := range f.ProgramHeaders {
		level.Debug(logger).Log("msg", "program header", "index", i, "type", ph.Type, "flags", ph.Flags, "mem", ph.MemRange(), "file", ph.FileRange(), "size", humanize.IBytes(ph.MemSize))
	}

	ld, err := loader.New(lcfg, mapper)
	if err != nil {
		return nil, err
	}
	img, err := ld.Load(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load segments")
	}
	if err := img.CanJump(); err != nil {
		return nil, err
	}
	return img, nil
}

// pause prints a prompt and blocks until a line (or EOF) is read from r.
func pause(r io.Reader, w io.Writer, reason string) error {
	fmt.Fprintf(w, "Press Enter to %s...", reason)
	if _, err := bufio.NewReader(r).ReadString('\n'); err != nil && err != io.EOF {
		return errors.Wrap(err, "failed to read from stdin")
	}
	return nil
}

func run(p *runParams) error {
	img, err := prepare(p, loader.SystemMapper{})
	if err != nil {
		return err
	}
	if p.pause {
		if err := pause(p.stdin, p.stderr, "jmp"); err != nil {
			return err
		}
	}
	level.Info(logger).Log("msg", "jumping to entry point", "entry", img.Entry())
	return img.Jump()
}
