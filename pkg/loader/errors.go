package loader

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/appsworld/go-delf/types"
)

// Operations reported in Error.Op.
const (
	OpAlign    = "align"
	OpMmap     = "mmap"
	OpCopy     = "copy"
	OpMprotect = "mprotect"
	OpVerify   = "verify"
)

var (
	// ErrMisaligned is the cause of an OpAlign failure.
	ErrMisaligned = errors.New("segment is not page aligned")
	// ErrEmptySegment is returned for a Load segment with no memory size.
	ErrEmptySegment = errors.New("segment has zero length")
	// ErrShortMapping is returned when a Mapper hands back less memory than
	// the segment has file bytes.
	ErrShortMapping = errors.New("mapping is too small for segment data")
)

// Error records a failed step of loading one segment. Segment is the index
// of the program header in the table.
type Error struct {
	Op      string
	Segment int
	Range   types.Range
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s segment %d (%s): %v", e.Op, e.Segment, e.Range, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
