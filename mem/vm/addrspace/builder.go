package addrspace

import (
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
)

// A Builder can build address-space managers.
type Builder struct {
	table      hpt.PageTable
	tlb        TLBFlusher
	current    CurrentSpaceGetter
	ids        vm.ASIDGenerator
	heapLimit  uint64
	stackPages uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		stackPages: vm.DefaultStackPages,
	}
}

// WithPageTable sets the shared page table.
func (b Builder) WithPageTable(t hpt.PageTable) Builder {
	b.table = t
	return b
}

// WithTLB sets what flushes the translation cache.
func (b Builder) WithTLB(f TLBFlusher) Builder {
	b.tlb = f
	return b
}

// WithCurrentSpaceGetter sets how the manager learns the current address
// space. Without one, Activate never has anything to do.
func (b Builder) WithCurrentSpaceGetter(g CurrentSpaceGetter) Builder {
	b.current = g
	return b
}

// WithASIDGenerator sets the source of address-space identities.
func (b Builder) WithASIDGenerator(g vm.ASIDGenerator) Builder {
	b.ids = g
	return b
}

// WithHeapLimit bounds the kernel heap bytes that address spaces and regions
// may use. Zero means unlimited.
func (b Builder) WithHeapLimit(bytes uint64) Builder {
	b.heapLimit = bytes
	return b
}

// WithStackPages sets the size of the stack created by DefineStack.
func (b Builder) WithStackPages(n uint64) Builder {
	b.stackPages = n
	return b
}

// Build creates a manager.
func (b Builder) Build(name string) *Manager {
	if b.table == nil {
		panic("address space manager needs a page table")
	}

	if b.tlb == nil {
		panic("address space manager needs a TLB flusher")
	}

	m := &Manager{
		name:       name,
		table:      b.table,
		tlb:        b.tlb,
		current:    b.current,
		ids:        b.ids,
		heap:       &kernelHeap{limit: b.heapLimit},
		stackPages: b.stackPages,
		live:       make(map[vm.ASID]*AddressSpace),
	}

	if m.current == nil {
		m.current = &ProcessContext{}
	}

	if m.ids == nil {
		m.ids = vm.NewASIDGenerator()
	}

	return m
}
