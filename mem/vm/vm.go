// Package vm provides the core types shared by the virtual memory manager:
// page geometry, region permissions, address-space identities and the
// errors reported by the address-space operations.
package vm

import "sync/atomic"

// Page geometry.
const (
	Log2PageSize = 12
	PageSize     = uint64(1) << Log2PageSize
	PageFrame    = ^(PageSize - 1)
)

// UserStackTop is the virtual address just above the user stack. The initial
// stack pointer of a new process points here.
const UserStackTop = uint64(0x80000000)

// DefaultStackPages is the number of pages reserved below UserStackTop.
const DefaultStackPages = 16

// ASID identifies an address space in the hashed page table. An ASID is only
// used as a key and is never reused while the address space is alive.
type ASID uint64

// An ASIDGenerator hands out address-space identities.
type ASIDGenerator interface {
	Generate() ASID
}

// NewASIDGenerator returns a generator that counts up from 1.
func NewASIDGenerator() ASIDGenerator {
	return &sequentialASIDGenerator{}
}

type sequentialASIDGenerator struct {
	nextID uint64
}

func (g *sequentialASIDGenerator) Generate() ASID {
	return ASID(atomic.AddUint64(&g.nextID, 1))
}

// PageNumber returns the virtual page number that contains vAddr.
func PageNumber(vAddr uint64) uint64 {
	return vAddr >> Log2PageSize
}

// PageAddr returns the first address of the virtual page vpn.
func PageAddr(vpn uint64) uint64 {
	return vpn << Log2PageSize
}

// AlignDown chops the in-page offset off vAddr.
func AlignDown(vAddr uint64) uint64 {
	return vAddr & PageFrame
}

// RoundUp rounds size up to a whole number of pages.
func RoundUp(size uint64) uint64 {
	return (size + PageSize - 1) & PageFrame
}
