package addrspace

import (
	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
)

// Copy creates an independent duplicate of old: the same regions and, for
// every mapped page, a new frame holding the same bytes. On failure nothing
// of the duplicate survives.
func (m *Manager) Copy(old *AddressSpace) (*AddressSpace, error) {
	if old == nil {
		return nil, nil
	}

	newAS, err := m.Create()
	if err != nil {
		return nil, err
	}

	regions := old.regions.Snapshot()
	for i := len(regions) - 1; i >= 0; i-- {
		err = m.copyRegion(newAS, regions[i])
		if err != nil {
			m.Destroy(newAS)
			return nil, err
		}
	}

	err = m.copyPageTable(old, newAS)
	if err != nil {
		m.Destroy(newAS)
		return nil, err
	}

	m.invoke(HookPosSpaceCopied, newAS, old)

	return newAS, nil
}

func (m *Manager) copyPageTable(old, newAS *AddressSpace) error {
	m.table.Lock()
	defer m.table.Unlock()

	var err error

	m.table.Walk(func(bucket int, _ hpt.EntryID, e hpt.Entry) bool {
		if e.Owner != old.id {
			return true
		}

		m.entryMustBeInBucket(bucket, e)

		var id hpt.EntryID

		id, err = m.table.Create(newAS.id, e.VPN, e.Dirty)
		if err != nil {
			return false
		}

		frame.CopyFrame(m.table.Frames(), e.Frame, m.table.Get(id).Frame)
		m.table.Insert(id)

		return true
	})

	return err
}

func (m *Manager) entryMustBeInBucket(bucket int, e hpt.Entry) {
	expected := m.table.Hash(e.Owner, e.VPN)
	if expected != bucket {
		panic(&vm.ConsistencyViolation{
			Bucket:   bucket,
			Expected: expected,
			Owner:    e.Owner,
			VPN:      e.VPN,
		})
	}
}
