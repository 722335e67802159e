// Package hpt provides the hashed page table shared by all address spaces.
//
// The table holds the page-table entries of every address space in a single
// set of hash buckets keyed by (address space, virtual page). Entries live in
// a slab and bucket chains link them by slab index. The table embeds a mutex;
// callers must hold it across every traversal-and-mutate sequence, and none
// of the methods below take it themselves.
package hpt

import (
	"fmt"
	"sync"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/frame"
)

// An EntryID is the slab index of an entry.
type EntryID int32

// NilEntry terminates a bucket chain.
const NilEntry EntryID = -1

// An Entry maps one virtual page of one address space to one physical frame.
// The entry owns the frame: the frame is freed when the entry is removed.
type Entry struct {
	Owner vm.ASID
	VPN   uint64
	Frame frame.Frame
	Dirty bool

	next EntryID
	live bool
}

// A WalkFunc is called for every live entry during a walk. Returning false
// stops the walk.
type WalkFunc func(bucket int, id EntryID, e Entry) bool

// A PageTable is the hashed page table service used by the address-space
// manager and the fault handler.
type PageTable interface {
	// Lock and Unlock guard the table. All other methods require the lock.
	Lock()
	Unlock()

	// Hash returns the bucket that an entry with the key must live in.
	Hash(owner vm.ASID, vpn uint64) int

	// LookupOrCreate returns the entry for the key, creating and inserting a
	// new one backed by a fresh frame if it does not exist.
	LookupOrCreate(owner vm.ASID, vpn uint64, dirty bool) (EntryID, error)

	// Find returns the entry for the key.
	Find(owner vm.ASID, vpn uint64) (EntryID, bool)

	// Get returns a copy of the entry.
	Get(id EntryID) Entry

	// SetDirty updates the dirty bit of the entry.
	SetDirty(id EntryID, dirty bool)

	// Create allocates an entry and its frame without linking it into a
	// bucket. The entry must be passed to Insert.
	Create(owner vm.ASID, vpn uint64, dirty bool) (EntryID, error)

	// Insert links a created entry at the head of its hashed bucket.
	Insert(id EntryID)

	// Remove unlinks and frees the entry for the key.
	Remove(owner vm.ASID, vpn uint64) bool

	// RemoveAll unlinks and frees every entry owned by owner and returns how
	// many were removed.
	RemoveAll(owner vm.ASID) int

	// Walk visits every live entry bucket by bucket. The callback may insert
	// entries.
	Walk(fn WalkFunc)

	// CheckBuckets verifies that every entry is in the bucket its key hashes
	// to.
	CheckBuckets() error

	// Frames returns the allocator backing the entries.
	Frames() frame.Allocator

	// Len returns the number of live entries.
	Len() int

	// CountOwnedBy returns the number of entries owned by owner.
	CountOwnedBy(owner vm.ASID) int

	// NumBuckets returns the number of buckets.
	NumBuckets() int

	// BucketLengths returns the chain length of every bucket.
	BucketLengths() []int
}

// Table is the default PageTable implementation.
type Table struct {
	sync.Mutex

	frames     frame.Allocator
	buckets    []EntryID
	slab       []Entry
	freeSlots  []EntryID
	maxEntries int
	numEntries int
}

// Hash mixes the owner into the virtual page number so that the same page of
// different address spaces spreads over different buckets.
func (t *Table) Hash(owner vm.ASID, vpn uint64) int {
	h := uint64(owner)*0x9e3779b97f4a7c15 ^ vpn

	return int(h % uint64(len(t.buckets)))
}

// Frames returns the frame allocator.
func (t *Table) Frames() frame.Allocator {
	return t.frames
}

// NumBuckets returns the number of buckets.
func (t *Table) NumBuckets() int {
	return len(t.buckets)
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.numEntries
}

// LookupOrCreate returns the entry for (owner, vpn), creating it if needed.
func (t *Table) LookupOrCreate(
	owner vm.ASID,
	vpn uint64,
	dirty bool,
) (EntryID, error) {
	if id, found := t.Find(owner, vpn); found {
		return id, nil
	}

	id, err := t.Create(owner, vpn, dirty)
	if err != nil {
		return NilEntry, err
	}

	t.Insert(id)

	return id, nil
}

// Find searches the bucket of (owner, vpn) for the entry.
func (t *Table) Find(owner vm.ASID, vpn uint64) (EntryID, bool) {
	b := t.Hash(owner, vpn)

	for cur := t.buckets[b]; cur != NilEntry; cur = t.slab[cur].next {
		e := &t.slab[cur]
		if e.Owner == owner && e.VPN == vpn {
			return cur, true
		}
	}

	return NilEntry, false
}

// Get returns a copy of the entry.
func (t *Table) Get(id EntryID) Entry {
	t.entryMustBeLive(id)

	return t.slab[id]
}

// SetDirty updates the dirty bit.
func (t *Table) SetDirty(id EntryID, dirty bool) {
	t.entryMustBeLive(id)

	t.slab[id].Dirty = dirty
}

// Create allocates a frame and a slab slot for a new entry.
func (t *Table) Create(
	owner vm.ASID,
	vpn uint64,
	dirty bool,
) (EntryID, error) {
	f, err := t.frames.AllocKPages(1)
	if err != nil {
		return NilEntry, fmt.Errorf("allocating frame for vpn 0x%x: %w", vpn, err)
	}

	id, err := t.allocSlot()
	if err != nil {
		t.frames.FreeKPage(f)
		return NilEntry, err
	}

	t.slab[id] = Entry{
		Owner: owner,
		VPN:   vpn,
		Frame: f,
		Dirty: dirty,
		next:  NilEntry,
		live:  true,
	}
	t.numEntries++

	return id, nil
}

func (t *Table) allocSlot() (EntryID, error) {
	if n := len(t.freeSlots); n > 0 {
		id := t.freeSlots[n-1]
		t.freeSlots = t.freeSlots[:n-1]

		return id, nil
	}

	if t.maxEntries > 0 && len(t.slab) >= t.maxEntries {
		return NilEntry, fmt.Errorf("allocating page table entry: %w",
			vm.ErrOutOfMemory)
	}

	t.slab = append(t.slab, Entry{next: NilEntry})

	return EntryID(len(t.slab) - 1), nil
}

// Insert links the entry at the head of its bucket.
func (t *Table) Insert(id EntryID) {
	t.entryMustBeLive(id)

	e := &t.slab[id]
	b := t.Hash(e.Owner, e.VPN)
	e.next = t.buckets[b]
	t.buckets[b] = id
}

// Remove unlinks and frees the entry for (owner, vpn).
func (t *Table) Remove(owner vm.ASID, vpn uint64) bool {
	b := t.Hash(owner, vpn)
	prev := NilEntry

	for cur := t.buckets[b]; cur != NilEntry; cur = t.slab[cur].next {
		e := &t.slab[cur]
		if e.Owner == owner && e.VPN == vpn {
			t.unlink(b, prev, cur)
			t.free(cur)

			return true
		}

		prev = cur
	}

	return false
}

// RemoveAll unlinks and frees every entry owned by owner.
func (t *Table) RemoveAll(owner vm.ASID) int {
	removed := 0

	for b := range t.buckets {
		prev := NilEntry
		cur := t.buckets[b]

		for cur != NilEntry {
			next := t.slab[cur].next

			if t.slab[cur].Owner == owner {
				t.unlink(b, prev, cur)
				t.free(cur)
				removed++
			} else {
				prev = cur
			}

			cur = next
		}
	}

	return removed
}

func (t *Table) unlink(bucket int, prev, cur EntryID) {
	next := t.slab[cur].next
	if prev == NilEntry {
		t.buckets[bucket] = next
	} else {
		t.slab[prev].next = next
	}
}

func (t *Table) free(id EntryID) {
	t.frames.FreeKPage(t.slab[id].Frame)
	t.slab[id] = Entry{next: NilEntry}
	t.freeSlots = append(t.freeSlots, id)
	t.numEntries--
}

// Walk visits every live entry. The slab is re-read at every step, so fn may
// insert entries; entries inserted into a bucket already passed are not
// visited.
func (t *Table) Walk(fn WalkFunc) {
	for b := range t.buckets {
		for cur := t.buckets[b]; cur != NilEntry; cur = t.slab[cur].next {
			if !fn(b, cur, t.slab[cur]) {
				return
			}
		}
	}
}

// CheckBuckets verifies the bucket invariant.
func (t *Table) CheckBuckets() error {
	var violation *vm.ConsistencyViolation

	t.Walk(func(b int, _ EntryID, e Entry) bool {
		expected := t.Hash(e.Owner, e.VPN)
		if expected != b {
			violation = &vm.ConsistencyViolation{
				Bucket:   b,
				Expected: expected,
				Owner:    e.Owner,
				VPN:      e.VPN,
			}

			return false
		}

		return true
	})

	if violation != nil {
		return violation
	}

	return nil
}

// CountOwnedBy returns the number of entries owned by owner.
func (t *Table) CountOwnedBy(owner vm.ASID) int {
	n := 0

	t.Walk(func(_ int, _ EntryID, e Entry) bool {
		if e.Owner == owner {
			n++
		}

		return true
	})

	return n
}

// BucketLengths returns the chain length of every bucket.
func (t *Table) BucketLengths() []int {
	lengths := make([]int, len(t.buckets))

	t.Walk(func(b int, _ EntryID, _ Entry) bool {
		lengths[b]++
		return true
	})

	return lengths
}

func (t *Table) entryMustBeLive(id EntryID) {
	if id < 0 || int(id) >= len(t.slab) || !t.slab[id].live {
		panic(fmt.Sprintf("page table entry %d does not exist", id))
	}
}
