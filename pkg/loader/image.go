package loader

import (
	"runtime"

	"github.com/pkg/errors"

	"github.com/appsworld/go-delf/types"
)

// An Image is the result of a successful Load. It holds every Mapping until
// Jump; it has no Close.
type Image struct {
	entry    types.Addr
	machine  types.Machine
	mappings []*Mapping
}

// Entry is the address Jump transfers control to.
func (im *Image) Entry() types.Addr { return im.entry }

// Mappings returns a snapshot of the mappings in load order.
func (im *Image) Mappings() []Mapping {
	out := make([]Mapping, len(im.mappings))
	for i, m := range im.mappings {
		out[i] = Mapping{Addr: m.Addr, Len: m.Len, Prot: m.Prot}
	}
	return out
}

// CanJump reports why Jump would refuse to run the image on this host, or
// nil when it would not.
func (im *Image) CanJump() error {
	if !canJump {
		return errors.Errorf("jumping is not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	if arch := im.machine.GOARCH(); arch != runtime.GOARCH {
		return errors.Errorf("image is built for %s, host is %s", im.machine, runtime.GOARCH)
	}
	for _, m := range im.mappings {
		if m.Range().Contains(im.entry) {
			if !m.Prot.Execute() {
				return errors.Errorf("entry point %s is in a non-executable mapping (%s)", im.entry, m.Prot)
			}
			return nil
		}
	}
	return errors.Errorf("entry point %s is not inside any mapping", im.entry)
}

// Jump transfers control to the entry point on the current OS thread. On
// success it never returns; the loaded program owns the process from then
// on. An error is returned only when CanJump fails.
func (im *Image) Jump() error {
	if err := im.CanJump(); err != nil {
		return err
	}
	runtime.LockOSThread()
	jump(im.entry.Uintptr())
	panic("BUG: returned from the loaded program's entry point")
}
