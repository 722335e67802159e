package addrspace

import (
	"fmt"
	"sync"

	"github.com/sarchlab/vmkern/mem/vm"
)

// kernelHeap accounts the bytes used by address spaces and regions. A zero
// limit never fails.
type kernelHeap struct {
	sync.Mutex
	limit uint64
	used  uint64
}

func (h *kernelHeap) alloc(n uint64) error {
	h.Lock()
	defer h.Unlock()

	if h.limit > 0 && h.used+n > h.limit {
		return fmt.Errorf("allocating %d bytes of kernel heap: %w",
			n, vm.ErrOutOfMemory)
	}

	h.used += n

	return nil
}

func (h *kernelHeap) free(n uint64) {
	h.Lock()
	defer h.Unlock()

	if n > h.used {
		panic("freeing more kernel heap than allocated")
	}

	h.used -= n
}

func (h *kernelHeap) inUse() uint64 {
	h.Lock()
	defer h.Unlock()

	return h.used
}
