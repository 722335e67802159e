// Package addrspace manages process address spaces: their regions, their
// entries in the shared hashed page table, duplication on fork, and the
// permission changes needed while an executable image is loaded.
//
// A nil *AddressSpace is accepted by every operation and does nothing.
package addrspace

import (
	"sort"
	"sync"
	"unsafe"

	"github.com/sarchlab/vmkern/hooking"
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
)

// Hook positions of the manager.
var (
	HookPosSpaceCreated   = &hooking.HookPos{Name: "SpaceCreated"}
	HookPosSpaceDestroyed = &hooking.HookPos{Name: "SpaceDestroyed"}
	HookPosSpaceCopied    = &hooking.HookPos{Name: "SpaceCopied"}
	HookPosRegionDefined  = &hooking.HookPos{Name: "RegionDefined"}
	HookPosLoadPrepared   = &hooking.HookPos{Name: "LoadPrepared"}
	HookPosLoadCompleted  = &hooking.HookPos{Name: "LoadCompleted"}
	HookPosActivated      = &hooking.HookPos{Name: "Activated"}
)

var (
	spaceSize  = uint64(unsafe.Sizeof(AddressSpace{}))
	regionSize = uint64(unsafe.Sizeof(vm.Region{}))
)

// An AddressSpace is the set of regions of one process. Its page-table
// entries live in the shared hashed page table, keyed by its ID.
type AddressSpace struct {
	id      vm.ASID
	regions vm.RegionList
}

// ID returns the key of the address space in the page table.
func (as *AddressSpace) ID() vm.ASID {
	return as.id
}

// A CurrentSpaceGetter tells which address space the scheduler has made
// current on this core.
type CurrentSpaceGetter interface {
	CurrentSpace() *AddressSpace
}

// A TLBFlusher invalidates the translation cache of this core.
type TLBFlusher interface {
	Flush()
}

// Manager implements the address-space operations.
type Manager struct {
	hooking.HookableBase

	name       string
	table      hpt.PageTable
	tlb        TLBFlusher
	current    CurrentSpaceGetter
	ids        vm.ASIDGenerator
	heap       *kernelHeap
	stackPages uint64

	liveLock sync.Mutex
	live     map[vm.ASID]*AddressSpace
}

// Name returns the name of the manager.
func (m *Manager) Name() string {
	return m.name
}

// Table returns the page table the manager keeps entries in.
func (m *Manager) Table() hpt.PageTable {
	return m.table
}

// Create allocates an empty address space.
func (m *Manager) Create() (*AddressSpace, error) {
	if err := m.heap.alloc(spaceSize); err != nil {
		return nil, err
	}

	as := &AddressSpace{id: m.ids.Generate()}

	m.liveLock.Lock()
	m.live[as.id] = as
	m.liveLock.Unlock()

	m.invoke(HookPosSpaceCreated, as, nil)

	return as, nil
}

// Destroy releases the regions of the address space, removes all its
// page-table entries together with their frames, and flushes the translation
// cache.
func (m *Manager) Destroy(as *AddressSpace) {
	if as == nil {
		return
	}

	as.regions.Clear(func(*vm.Region) {
		m.heap.free(regionSize)
	})

	m.table.Lock()
	removed := m.table.RemoveAll(as.id)
	m.table.Unlock()

	m.liveLock.Lock()
	delete(m.live, as.id)
	m.liveLock.Unlock()

	m.heap.free(spaceSize)

	m.tlb.Flush()

	m.invoke(HookPosSpaceDestroyed, as, removed)
}

// Activate flushes the translation cache if a process address space is
// current.
func (m *Manager) Activate() {
	as := m.current.CurrentSpace()
	if as == nil {
		return
	}

	m.tlb.Flush()

	m.invoke(HookPosActivated, as, nil)
}

// Deactivate is the same as Activate. Both leave the translation cache
// without any entry of the outgoing address space.
func (m *Manager) Deactivate() {
	m.Activate()
}

// Spaces returns the live address spaces ordered by ID.
func (m *Manager) Spaces() []*AddressSpace {
	m.liveLock.Lock()
	defer m.liveLock.Unlock()

	spaces := make([]*AddressSpace, 0, len(m.live))
	for _, as := range m.live {
		spaces = append(spaces, as)
	}

	sort.Slice(spaces, func(i, j int) bool {
		return spaces[i].id < spaces[j].id
	})

	return spaces
}

// Lookup returns the live address space with the given ID.
func (m *Manager) Lookup(id vm.ASID) (*AddressSpace, bool) {
	m.liveLock.Lock()
	defer m.liveLock.Unlock()

	as, ok := m.live[id]

	return as, ok
}

func (m *Manager) invoke(pos *hooking.HookPos, item, detail any) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
