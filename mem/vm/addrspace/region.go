package addrspace

import (
	"math"

	"github.com/sarchlab/vmkern/mem/vm"
)

// DefineRegion sets up a region that covers [vAddr, vAddr+size). The base is
// aligned down to a page boundary and the size grows to cover the same bytes
// in whole pages. A region without any page, or one that runs past the top of
// the address space, is a caller bug and panics.
func (m *Manager) DefineRegion(
	as *AddressSpace,
	vAddr, size uint64,
	readable, writable, executable bool,
) error {
	if as == nil {
		return nil
	}

	if size > math.MaxUint64-vAddr {
		panic("defining a region that wraps around the address space")
	}

	size += vAddr &^ vm.PageFrame
	vAddr = vm.AlignDown(vAddr)
	size = vm.RoundUp(size)

	numPages := size / vm.PageSize
	if numPages == 0 {
		panic("defining a region without any page")
	}

	if vAddr+size <= vAddr {
		panic("defining a region that wraps around the address space")
	}

	if err := m.heap.alloc(regionSize); err != nil {
		return err
	}

	r := &vm.Region{
		Base:     vAddr,
		NumPages: numPages,
		Perms:    vm.MakePerm(readable, writable, executable),
	}
	as.regions.Push(r)

	m.invoke(HookPosRegionDefined, as, *r)

	return nil
}

func (m *Manager) copyRegion(as *AddressSpace, r vm.Region) error {
	return m.DefineRegion(as, r.Base, r.NumPages*vm.PageSize,
		r.Perms.Has(vm.PermRead),
		r.Perms.Has(vm.PermWrite),
		r.Perms.Has(vm.PermExecute))
}

// DefineStack reserves the user stack right below vm.UserStackTop and returns
// the initial stack pointer.
func (m *Manager) DefineStack(as *AddressSpace) (uint64, error) {
	size := m.stackPages * vm.PageSize

	err := m.DefineRegion(as, vm.UserStackTop-size, size, true, true, false)
	if err != nil {
		return 0, err
	}

	return vm.UserStackTop, nil
}

// Regions returns copies of the regions of the address space, most recently
// defined first.
func (m *Manager) Regions(as *AddressSpace) []vm.Region {
	if as == nil {
		return nil
	}

	return as.regions.Snapshot()
}

// FindRegion returns the region that covers vAddr.
func (m *Manager) FindRegion(as *AddressSpace, vAddr uint64) (vm.Region, bool) {
	if as == nil {
		return vm.Region{}, false
	}

	r, found := as.regions.Find(vAddr)
	if !found {
		return vm.Region{}, false
	}

	return *r, true
}

// HeapInUse returns the kernel heap bytes held by address spaces and regions.
func (m *Manager) HeapInUse() uint64 {
	return m.heap.inUse()
}
