// Package tlb controls the hardware translation cache.
//
// The controller is the only code that writes translation-cache slots. Every
// write sequence runs with interrupts disabled on the core so that a fault
// never observes a half-written cache.
package tlb

import (
	"github.com/sarchlab/vmkern/hooking"
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/tlb/internal"
)

// HookPosFlush marks a full invalidation of the translation cache.
var HookPosFlush = &hooking.HookPos{Name: "TLBFlush"}

// HookPosFill marks a translation being loaded into a slot.
var HookPosFill = &hooking.HookPos{Name: "TLBFill"}

// A SlotEntry is the content of one translation-cache slot.
type SlotEntry struct {
	Valid bool
	VPN   uint64
	Frame frame.Frame
	Dirty bool
}

// Hardware is the translation cache of one core.
type Hardware interface {
	NumSlots() int
	WriteSlot(slot int, e SlotEntry)
}

// Level is an interrupt priority level returned by Disable.
type Level int

// InterruptController masks interrupt delivery on the current core.
type InterruptController interface {
	// Disable raises the level so that no interrupt is delivered and returns
	// the previous level.
	Disable() Level

	// Restore sets the level back.
	Restore(l Level)
}

// Controller flushes and fills the translation cache.
type Controller struct {
	hooking.HookableBase

	name    string
	hw      Hardware
	irq     InterruptController
	victims internal.Set
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.name
}

// Flush invalidates every slot.
func (c *Controller) Flush() {
	l := c.irq.Disable()

	for i := 0; i < c.hw.NumSlots(); i++ {
		c.hw.WriteSlot(i, SlotEntry{})
	}

	c.victims.Reset()

	c.irq.Restore(l)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosFlush,
	})
}

// Fill loads a translation into the cache and returns the slot used. A slot
// that already translates the same page is overwritten.
func (c *Controller) Fill(e SlotEntry) int {
	e.Valid = true

	l := c.irq.Disable()

	slot, found := c.victims.Lookup(e.VPN)
	if !found {
		slot = c.victims.Victim()
	}

	c.hw.WriteSlot(slot, e)
	c.victims.Assign(slot, e.VPN)
	c.victims.Visit(slot)

	c.irq.Restore(l)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosFill,
		Item:   e,
		Detail: slot,
	})

	return slot
}

// SlotAddr returns the virtual address translated by a slot entry.
func (e SlotEntry) SlotAddr() uint64 {
	return vm.PageAddr(e.VPN)
}
