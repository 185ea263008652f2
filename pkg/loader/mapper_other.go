//go:build !linux

package loader

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/appsworld/go-delf/types"
)

var errUnsupported = errors.Errorf("fixed-address mapping is not supported on %s", runtime.GOOS)

// SystemMapper fails on every call outside Linux.
type SystemMapper struct{}

func (SystemMapper) Map(types.Addr, uint64) (*Mapping, error) { return nil, errUnsupported }

func (SystemMapper) Protect(*Mapping, Protection) error { return errUnsupported }
