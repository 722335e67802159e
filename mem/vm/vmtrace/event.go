// Package vmtrace turns hook invocations of the virtual memory manager into
// event records that can be logged or stored.
package vmtrace

import (
	"fmt"

	"github.com/sarchlab/vmkern/hooking"
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/fault"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
)

// An Event is one hook invocation flattened into plain fields.
type Event struct {
	Seq      uint64
	Location string
	What     string
	Space    uint64
	Detail   string
}

func (e Event) String() string {
	if e.Space == 0 {
		return fmt.Sprintf("%s %s %s", e.Location, e.What, e.Detail)
	}

	return fmt.Sprintf("%s %s as=%d %s", e.Location, e.What, e.Space, e.Detail)
}

// Describe flattens a hook context.
func Describe(ctx hooking.HookCtx) Event {
	e := Event{
		Location: ctx.Domain.Name(),
		What:     ctx.Pos.Name,
	}

	switch item := ctx.Item.(type) {
	case *addrspace.AddressSpace:
		e.Space = uint64(item.ID())
	case fault.Fault:
		e.Space = uint64(item.Space.ID())
		e.Detail = fmt.Sprintf("%s 0x%x -> frame 0x%x slot %d",
			item.Type, item.VAddr, uint64(item.Entry.Frame), item.Slot)
	case tlb.SlotEntry:
		e.Detail = fmt.Sprintf("vpn 0x%x -> frame 0x%x slot %v",
			item.VPN, uint64(item.Frame), ctx.Detail)
	}

	switch detail := ctx.Detail.(type) {
	case vm.Region:
		e.Detail = fmt.Sprintf("0x%x+%d %s",
			detail.Base, detail.NumPages, detail.Perms)
	case *addrspace.AddressSpace:
		e.Detail = fmt.Sprintf("from %d", detail.ID())
	case int:
		if ctx.Pos == addrspace.HookPosSpaceDestroyed {
			e.Detail = fmt.Sprintf("%d entries removed", detail)
		}
	}

	return e
}
