package addrspace

import (
	"github.com/sarchlab/vmkern/mem/vm"
)

// PrepareLoad makes every read-only region writable so that the loader can
// fill it. The regions are marked so that CompleteLoad can undo the change.
func (m *Manager) PrepareLoad(as *AddressSpace) error {
	if as == nil {
		return nil
	}

	as.regions.Each(func(r *vm.Region) {
		if !r.Perms.Has(vm.PermWrite) {
			r.Perms |= vm.PermWrite | vm.PermTransientWrite
		}
	})

	m.invoke(HookPosLoadPrepared, as, nil)

	return nil
}

// CompleteLoad takes write permission away from the regions that PrepareLoad
// opened, clears the dirty bit of every page loaded into them, and flushes
// the translation cache.
func (m *Manager) CompleteLoad(as *AddressSpace) error {
	if as == nil {
		return nil
	}

	m.table.Lock()
	as.regions.Each(func(r *vm.Region) {
		if !r.Perms.Has(vm.PermTransientWrite) {
			return
		}

		r.Perms &^= vm.PermWrite | vm.PermTransientWrite
		m.cleanPages(as, r)
	})
	m.table.Unlock()

	m.tlb.Flush()

	m.invoke(HookPosLoadCompleted, as, nil)

	return nil
}

// cleanPages requires the table lock.
func (m *Manager) cleanPages(as *AddressSpace, r *vm.Region) {
	first := r.FirstPage()
	for vpn := first; vpn < first+r.NumPages; vpn++ {
		id, found := m.table.Find(as.id, vpn)
		if !found {
			continue
		}

		m.table.SetDirty(id, false)
	}
}
