// Package internal provides the slot bookkeeping of the translation cache.
package internal

import "sort"

// A Set tracks which virtual page each translation-cache slot holds and
// picks the least recently used slot as the victim when a new translation is
// loaded.
type Set interface {
	Lookup(vpn uint64) (slot int, found bool)
	Assign(slot int, vpn uint64)
	Victim() int
	Visit(slot int)
	Reset()
}

// NewSet creates a set over numSlots slots. All slots start empty.
func NewSet(numSlots int) Set {
	s := &setImpl{}
	s.blocks = make([]*block, numSlots)
	s.visitList = make([]*block, 0, numSlots)
	s.vpnSlotMap = make(map[uint64]int)

	for i := range s.blocks {
		b := &block{slot: i}
		s.blocks[i] = b
		s.Visit(i)
	}

	return s
}

type block struct {
	slot      int
	vpn       uint64
	valid     bool
	lastVisit uint64
}

type setImpl struct {
	blocks     []*block
	vpnSlotMap map[uint64]int
	visitList  []*block
	visitCount uint64
}

func (s *setImpl) Lookup(vpn uint64) (int, bool) {
	slot, ok := s.vpnSlotMap[vpn]
	return slot, ok
}

func (s *setImpl) Assign(slot int, vpn uint64) {
	b := s.blocks[slot]
	if b.valid {
		delete(s.vpnSlotMap, b.vpn)
	}

	b.vpn = vpn
	b.valid = true
	s.vpnSlotMap[vpn] = slot
}

// Victim returns an empty slot if there is one, otherwise the least recently
// visited slot.
func (s *setImpl) Victim() int {
	for _, b := range s.visitList {
		if !b.valid {
			return b.slot
		}
	}

	return s.visitList[0].slot
}

func (s *setImpl) Visit(slot int) {
	b := s.blocks[slot]

	for i, v := range s.visitList {
		if v.slot == slot {
			s.visitList = append(s.visitList[:i], s.visitList[i+1:]...)
			break
		}
	}

	s.visitCount++
	b.lastVisit = s.visitCount

	index := sort.Search(len(s.visitList), func(i int) bool {
		return s.visitList[i].lastVisit > b.lastVisit
	})
	s.visitList = append(s.visitList, nil)
	copy(s.visitList[index+1:], s.visitList[index:])
	s.visitList[index] = b
}

func (s *setImpl) Reset() {
	for _, b := range s.blocks {
		b.valid = false
		b.vpn = 0
	}

	s.vpnSlotMap = make(map[uint64]int)
}
