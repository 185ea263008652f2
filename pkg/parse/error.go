package parse

import (
	"fmt"
	"strings"
)

// PreviewLen is the number of bytes an Entry keeps from the position it
// failed at.
const PreviewLen = 20

// Severity tells combinators whether a failure may be recovered from.
type Severity int

const (
	// Backtrack means "no match here"; Alt tries its next alternative.
	Backtrack Severity = iota
	// Failure means the input is malformed; the whole parse aborts.
	Failure
)

func (s Severity) String() string {
	switch s {
	case Backtrack:
		return "Backtrack"
	case Failure:
		return "Failure"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Kind names the primitive that produced a leaf error.
type Kind string

const (
	KindEof    Kind = "Eof"
	KindTag    Kind = "Tag"
	KindVerify Kind = "Verify"
	KindMapRes Kind = "MapRes"
	KindAlt    Kind = "Alt"
	KindCount  Kind = "Count"
	KindSeek   Kind = "Seek"
)

// Entry is one frame of an error stack. The innermost frame is a leaf with a
// Kind (and optionally a Cause); the frames above it carry Context labels.
type Entry struct {
	Offset  int
	Preview []byte
	Kind    Kind
	Context string
	Cause   error
}

func newEntry(in Input) Entry {
	n := in.Len()
	if n > PreviewLen {
		n = PreviewLen
	}
	preview := make([]byte, n)
	copy(preview, in.Bytes())
	return Entry{Offset: in.Offset(), Preview: preview}
}

// Label returns the context label or, for leaf frames, the kind.
func (e Entry) Label() string {
	if e.Context != "" {
		return e.Context
	}
	return string(e.Kind)
}

func (e Entry) String() string {
	s := fmt.Sprintf("%s at byte %#x", e.Label(), e.Offset)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Error is returned by every parser in this package. Errors is ordered
// innermost first; each enclosing Context appends its own frame on the way
// out.
type Error struct {
	Severity Severity
	Errors   []Entry
}

// NewError returns a leaf error of the given kind at in.
func NewError(sev Severity, in Input, kind Kind, cause error) *Error {
	e := newEntry(in)
	e.Kind = kind
	e.Cause = cause
	return &Error{Severity: sev, Errors: []Entry{e}}
}

// Failf returns a definitive leaf error at in with a formatted cause.
func Failf(in Input, kind Kind, format string, args ...interface{}) *Error {
	return NewError(Failure, in, kind, fmt.Errorf(format, args...))
}

func (e *Error) push(in Input, label string) {
	en := newEntry(in)
	en.Context = label
	e.Errors = append(e.Errors, en)
}

// Offset returns the position of the innermost failure.
func (e *Error) Offset() int {
	if len(e.Errors) == 0 {
		return 0
	}
	return e.Errors[0].Offset
}

// Contexts returns the context labels, outermost first.
func (e *Error) Contexts() []string {
	var labels []string
	for i := len(e.Errors) - 1; i >= 0; i-- {
		if c := e.Errors[i].Context; c != "" {
			labels = append(labels, c)
		}
	}
	return labels
}

// Unwrap exposes the cause of the innermost frame, e.g. a
// *types.UnknownCodeError carrying the rejected value.
func (e *Error) Unwrap() error {
	for _, en := range e.Errors {
		if en.Cause != nil {
			return en.Cause
		}
	}
	return nil
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return "parse error"
	}
	leaf := e.Errors[0]
	var sb strings.Builder
	if ctx := e.Contexts(); len(ctx) > 0 {
		sb.WriteString(strings.Join(ctx, ": "))
		sb.WriteString(": ")
	}
	sb.WriteString(leaf.String())
	return sb.String()
}
