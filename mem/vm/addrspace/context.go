package addrspace

import "sync"

// A ProcessContext records the address space of the process running on this
// core. The scheduler sets it on context switch.
type ProcessContext struct {
	sync.Mutex
	as *AddressSpace
}

// Switch makes as current.
func (c *ProcessContext) Switch(as *AddressSpace) {
	c.Lock()
	defer c.Unlock()

	c.as = as
}

// CurrentSpace returns the current address space, which may be nil.
func (c *ProcessContext) CurrentSpace() *AddressSpace {
	c.Lock()
	defer c.Unlock()

	return c.as
}
