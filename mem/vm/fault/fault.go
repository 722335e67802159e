// Package fault services translation misses for user address spaces.
//
// A miss on an address covered by a region gets a page-table entry, created
// lazily with a zeroed frame if the page was never touched, and the
// translation is loaded into the translation cache. Region permissions are
// recorded on the entry but not enforced here.
package fault

import (
	"fmt"

	"github.com/sarchlab/vmkern/hooking"
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
)

// Type tells what kind of access faulted.
type Type int

// Fault types.
const (
	Read Type = iota
	Write
)

func (t Type) String() string {
	if t == Write {
		return "write"
	}

	return "read"
}

// HookPosFault marks a serviced fault.
var HookPosFault = &hooking.HookPos{Name: "Fault"}

// A Fault is the item passed to hooks when a fault has been serviced.
type Fault struct {
	Space *addrspace.AddressSpace
	Type  Type
	VAddr uint64
	Entry hpt.Entry
	Slot  int
}

// A Filler loads a translation into the translation cache.
type Filler interface {
	Fill(e tlb.SlotEntry) int
}

// Handler services faults.
type Handler struct {
	hooking.HookableBase

	spaces *addrspace.Manager
	table  hpt.PageTable
	filler Filler
}

// NewHandler creates a handler that resolves regions through spaces and
// loads translations through filler.
func NewHandler(spaces *addrspace.Manager, filler Filler) *Handler {
	return &Handler{
		spaces: spaces,
		table:  spaces.Table(),
		filler: filler,
	}
}

// Name returns the name of the handler.
func (h *Handler) Name() string {
	return "Fault"
}

// HandleFault makes vAddr of as translatable.
func (h *Handler) HandleFault(
	as *addrspace.AddressSpace,
	t Type,
	vAddr uint64,
) error {
	if as == nil {
		return vm.ErrBadAddress
	}

	r, found := h.spaces.FindRegion(as, vAddr)
	if !found {
		return fmt.Errorf("%s fault at 0x%x: %w", t, vAddr, vm.ErrBadAddress)
	}

	vpn := vm.PageNumber(vAddr)

	h.table.Lock()
	id, err := h.table.LookupOrCreate(
		as.ID(), vpn, r.Perms.Has(vm.PermWrite))
	if err != nil {
		h.table.Unlock()
		return fmt.Errorf("%s fault at 0x%x: %w", t, vAddr, err)
	}
	e := h.table.Get(id)
	h.table.Unlock()

	slot := h.filler.Fill(tlb.SlotEntry{
		VPN:   vpn,
		Frame: e.Frame,
		Dirty: e.Dirty,
	})

	if h.NumHooks() > 0 {
		h.InvokeHook(hooking.HookCtx{
			Domain: h,
			Pos:    HookPosFault,
			Item:   Fault{Space: as, Type: t, VAddr: vAddr, Entry: e, Slot: slot},
		})
	}

	return nil
}
