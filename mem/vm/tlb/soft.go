package tlb

import (
	"sync"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/frame"
)

// SoftTLB is a translation cache kept in memory.
type SoftTLB struct {
	sync.Mutex
	slots []SlotEntry
}

// NewSoftTLB creates a translation cache with n slots, all invalid.
func NewSoftTLB(n int) *SoftTLB {
	return &SoftTLB{slots: make([]SlotEntry, n)}
}

// NumSlots returns the number of slots.
func (t *SoftTLB) NumSlots() int {
	return len(t.slots)
}

// WriteSlot overwrites one slot.
func (t *SoftTLB) WriteSlot(slot int, e SlotEntry) {
	t.Lock()
	defer t.Unlock()

	t.slots[slot] = e
}

// Translate looks vAddr up in the valid slots.
func (t *SoftTLB) Translate(vAddr uint64) (f frame.Frame, dirty, found bool) {
	t.Lock()
	defer t.Unlock()

	vpn := vm.PageNumber(vAddr)
	for _, e := range t.slots {
		if e.Valid && e.VPN == vpn {
			return e.Frame, e.Dirty, true
		}
	}

	return 0, false, false
}

// Slots returns a copy of every slot.
func (t *SoftTLB) Slots() []SlotEntry {
	t.Lock()
	defer t.Unlock()

	return append([]SlotEntry(nil), t.slots...)
}

// NumValid returns the number of valid slots.
func (t *SoftTLB) NumValid() int {
	t.Lock()
	defer t.Unlock()

	n := 0
	for _, e := range t.slots {
		if e.Valid {
			n++
		}
	}

	return n
}

// SoftInterrupts keeps an interrupt priority level in memory.
type SoftInterrupts struct {
	sync.Mutex
	level Level
}

// HighLevel is the level at which no interrupt is delivered.
const HighLevel Level = 1

// Disable raises the level to HighLevel.
func (s *SoftInterrupts) Disable() Level {
	s.Lock()
	defer s.Unlock()

	old := s.level
	s.level = HighLevel

	return old
}

// Restore sets the level.
func (s *SoftInterrupts) Restore(l Level) {
	s.Lock()
	defer s.Unlock()

	s.level = l
}

// Enabled reports whether interrupts are delivered.
func (s *SoftInterrupts) Enabled() bool {
	s.Lock()
	defer s.Unlock()

	return s.level < HighLevel
}
