package delf

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/appsworld/go-delf/pkg/parse"
)

// HexDump formats at most the first parse.PreviewLen bytes of a buffer as
// space-separated hex pairs.
type HexDump []byte

func (h HexDump) String() string {
	b := []byte(h)
	if len(b) > parse.PreviewLen {
		b = b[:parse.PreviewLen]
	}
	var sb strings.Builder
	for _, x := range b {
		fmt.Fprintf(&sb, "%02x ", x)
	}
	return sb.String()
}

// WriteDiagnostic writes every frame of err, innermost first, with its
// position and a dump of the bytes found there.
func WriteDiagnostic(w io.Writer, err *parse.Error) {
	fmt.Fprintln(w, "Parsing failed:")
	for _, e := range err.Errors {
		if e.Cause != nil {
			fmt.Fprintf(w, "%s at position %d: %v\n", e.Label(), e.Offset, e.Cause)
		} else {
			fmt.Fprintf(w, "%s at position %d:\n", e.Label(), e.Offset)
		}
		fmt.Fprintf(w, "%08x: %s\n", e.Offset, HexDump(e.Preview))
	}
}

// ParseOrPrintError parses data and returns the File, or writes a
// diagnostic to w and returns nil. Only parser errors are expected here;
// anything else is a bug and panics.
func ParseOrPrintError(data []byte, w io.Writer) *File {
	f, err := Parse(data)
	if err == nil {
		return f
	}
	var perr *parse.Error
	if !errors.As(err, &perr) {
		panic(fmt.Sprintf("BUG: unexpected parser error: %v", err))
	}
	WriteDiagnostic(w, perr)
	return nil
}

// OpenOrPrintError is Open with the parse step handled by ParseOrPrintError.
// Errors reading the file are returned. A malformed file is described on w
// and reported as a nil File with a nil error.
func OpenOrPrintError(name string, w io.Writer) (*File, error) {
	data, closer, err := mapFile(name)
	if err != nil {
		return nil, err
	}
	f := ParseOrPrintError(data, w)
	if f == nil {
		closer.Close()
		return nil, nil
	}
	f.closer = closer
	return f, nil
}
