package loader

import (
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

// verifyMapping checks /proc/self/maps for a region covering m with exactly
// the protection the loader applied. Adjacent regions with equal attributes
// may have been merged by the kernel, so containment is enough.
func verifyMapping(m *Mapping) error {
	self, err := procfs.Self()
	if err != nil {
		return errors.Wrap(err, "failed to open /proc/self")
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return errors.Wrap(err, "failed to read /proc/self/maps")
	}
	start, end := m.Addr.Uintptr(), m.Range().End.Uintptr()
	for _, pm := range maps {
		if pm.StartAddr > start || end > pm.EndAddr {
			continue
		}
		var got Protection
		if pm.Perms.Read {
			got |= ProtRead
		}
		if pm.Perms.Write {
			got |= ProtWrite
		}
		if pm.Perms.Execute {
			got |= ProtExec
		}
		if got != m.Prot {
			return errors.Errorf("region %x-%x is %s, want %s", pm.StartAddr, pm.EndAddr, got, m.Prot)
		}
		return nil
	}
	return errors.Errorf("no region covers %s", m.Range())
}
