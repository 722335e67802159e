// Package frame provides physical frames to the virtual memory manager.
package frame

import (
	"fmt"
	"sync"

	"github.com/sarchlab/vmkern/mem/vm"
)

// A Frame is a physical frame number.
type Frame uint64

// Addr returns the physical address of the first byte of the frame.
func (f Frame) Addr() uint64 {
	return uint64(f) << vm.Log2PageSize
}

// An Allocator hands out kernel-accessible physical frames.
type Allocator interface {
	// AllocKPages allocates n contiguous zeroed frames and returns the first.
	AllocKPages(n int) (Frame, error)

	// FreeKPage frees the allocation that starts at f.
	FreeKPage(f Frame)

	// Data returns the kernel view of the frame's bytes.
	Data(f Frame) []byte
}

// CopyFrame copies the content of frame from into frame to.
func CopyFrame(a Allocator, from, to Frame) {
	copy(a.Data(to), a.Data(from))
}

// A Pool is an Allocator over a Storage. It allocates first-fit.
type Pool struct {
	sync.Mutex

	storage   *Storage
	used      []bool
	runLength map[Frame]int
	numUsed   int
}

// NewPool creates a pool that manages numFrames frames of a new storage.
func NewPool(numFrames int) *Pool {
	return NewPoolWithStorage(
		NewStorage(uint64(numFrames)*vm.PageSize), numFrames)
}

// NewPoolWithStorage creates a pool over an existing storage.
func NewPoolWithStorage(s *Storage, numFrames int) *Pool {
	if uint64(numFrames)*vm.PageSize > s.Capacity() {
		panic("storage too small for the frame pool")
	}

	return &Pool{
		storage:   s,
		used:      make([]bool, numFrames),
		runLength: make(map[Frame]int),
	}
}

// AllocKPages allocates n contiguous frames.
func (p *Pool) AllocKPages(n int) (Frame, error) {
	if n <= 0 {
		panic("allocating a non-positive number of frames")
	}

	p.Lock()
	defer p.Unlock()

	start, ok := p.findRun(n)
	if !ok {
		return 0, fmt.Errorf("allocating %d frames: %w", n, vm.ErrOutOfMemory)
	}

	for i := start; i < start+n; i++ {
		p.used[i] = true
	}

	p.runLength[Frame(start)] = n
	p.numUsed += n

	return Frame(start), nil
}

func (p *Pool) findRun(n int) (int, bool) {
	runStart := 0
	runLen := 0

	for i, u := range p.used {
		if u {
			runLen = 0
			runStart = i + 1

			continue
		}

		runLen++
		if runLen == n {
			return runStart, true
		}
	}

	return 0, false
}

// FreeKPage frees the allocation starting at f. Freeing anything else is a
// programming error.
func (p *Pool) FreeKPage(f Frame) {
	p.Lock()
	defer p.Unlock()

	n, ok := p.runLength[f]
	if !ok {
		panic(fmt.Sprintf("freeing frame 0x%x that is not allocated", uint64(f)))
	}

	for i := 0; i < n; i++ {
		p.used[int(f)+i] = false
		p.storage.release((f + Frame(i)).Addr())
	}

	delete(p.runLength, f)
	p.numUsed -= n
}

// Data returns the bytes of the frame. The slice aliases physical memory.
func (p *Pool) Data(f Frame) []byte {
	p.Lock()
	defer p.Unlock()

	u, err := p.storage.unit(f.Addr())
	if err != nil {
		panic(err)
	}

	return u
}

// IsAllocated reports whether frame f is in use.
func (p *Pool) IsAllocated(f Frame) bool {
	p.Lock()
	defer p.Unlock()

	return int(f) < len(p.used) && p.used[f]
}

// NumFrames returns the size of the pool.
func (p *Pool) NumFrames() int {
	return len(p.used)
}

// NumUsed returns the number of allocated frames.
func (p *Pool) NumUsed() int {
	p.Lock()
	defer p.Unlock()

	return p.numUsed
}

// NumFree returns the number of free frames.
func (p *Pool) NumFree() int {
	return p.NumFrames() - p.NumUsed()
}

// Storage returns the physical memory behind the pool.
func (p *Pool) Storage() *Storage {
	return p.storage
}
