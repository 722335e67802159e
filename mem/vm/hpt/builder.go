package hpt

import (
	"github.com/sarchlab/vmkern/mem/vm/frame"
)

// A Builder can build hashed page tables.
type Builder struct {
	numBuckets int
	maxEntries int
	frames     frame.Allocator
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numBuckets: 1024,
	}
}

// WithNumBuckets sets the number of hash buckets. The number is fixed for the
// lifetime of the table.
func (b Builder) WithNumBuckets(n int) Builder {
	b.numBuckets = n
	return b
}

// WithMaxEntries bounds the number of entries the table can hold. Zero means
// the table is only bounded by the frame allocator.
func (b Builder) WithMaxEntries(n int) Builder {
	b.maxEntries = n
	return b
}

// WithFrameAllocator sets the allocator that provides the frames backing the
// entries.
func (b Builder) WithFrameAllocator(a frame.Allocator) Builder {
	b.frames = a
	return b
}

// Build creates a new Table.
func (b Builder) Build() *Table {
	if b.numBuckets <= 0 {
		panic("hashed page table needs at least one bucket")
	}

	if b.frames == nil {
		panic("hashed page table needs a frame allocator")
	}

	t := &Table{
		frames:     b.frames,
		buckets:    make([]EntryID, b.numBuckets),
		maxEntries: b.maxEntries,
	}

	for i := range t.buckets {
		t.buckets[i] = NilEntry
	}

	return t
}
