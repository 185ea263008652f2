package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	delf "github.com/appsworld/go-delf"
)

func info(out, errOut io.Writer, file string) error {
	f, err := openImage(file, errOut)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(out, "File:", file)
	fmt.Fprintln(out, "\t Ident:", f.Ident)
	fmt.Fprintln(out, "\t Type:", f.Type)
	fmt.Fprintln(out, "\t Machine:", f.Machine)
	fmt.Fprintln(out, "\t Entry:", f.Entry)
	if sym, err := f.EntrySymbol(); err == nil && sym != "" {
		fmt.Fprintln(out, "\t Entry symbol:", sym)
	}

	fmt.Fprintln(out, "\t Program headers:")
	writeProgramHeaders(out, f)

	if len(f.Sections) > 0 {
		fmt.Fprintln(out, "\t Sections:")
		writeSections(out, f)
	}
	return nil
}

func writeProgramHeaders(out io.Writer, f *delf.File) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Type", "Flags", "Offset", "VAddr", "FileSize", "MemSize", "Align"})
	for i, ph := range f.ProgramHeaders {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			ph.Type.String(),
			ph.Flags.String(),
			fmt.Sprintf("%#x", ph.Offset),
			ph.VAddr.String(),
			humanize.IBytes(ph.FileSize),
			humanize.IBytes(ph.MemSize),
			fmt.Sprintf("%#x", ph.Align),
		})
	}
	table.Render()
}

func writeSections(out io.Writer, f *delf.File) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Name", "Type", "Flags", "Addr", "Offset", "Size"})
	for i, s := range f.Sections {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			s.Name,
			s.Type.String(),
			s.Flags.String(),
			s.Addr.String(),
			fmt.Sprintf("%#x", s.Offset),
			humanize.IBytes(s.Size),
		})
	}
	table.Render()
}
