package addrspace

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
)

var _ = Describe("Copy", func() {
	var (
		mockCtrl *gomock.Controller
		flusher  *MockTLBFlusher
		pool     *frame.Pool
		table    *hpt.Table
		m        *Manager
		old      *AddressSpace
	)

	build := func(numFrames int) {
		pool = frame.NewPool(numFrames)
		table = hpt.MakeBuilder().
			WithNumBuckets(16).
			WithFrameAllocator(pool).
			Build()
		m = MakeBuilder().
			WithPageTable(table).
			WithTLB(flusher).
			Build("AddrSpace")
	}

	fill := func(as *AddressSpace, vAddr uint64, content string) hpt.Entry {
		table.Lock()
		defer table.Unlock()

		id, err := table.LookupOrCreate(as.ID(), vm.PageNumber(vAddr), true)
		Expect(err).NotTo(HaveOccurred())

		e := table.Get(id)
		copy(pool.Data(e.Frame), content)

		return e
	}

	entryOf := func(as *AddressSpace, vAddr uint64) (hpt.Entry, bool) {
		table.Lock()
		defer table.Unlock()

		id, found := table.Find(as.ID(), vm.PageNumber(vAddr))
		if !found {
			return hpt.Entry{}, false
		}

		return table.Get(id), true
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		flusher = NewMockTLBFlusher(mockCtrl)
		flusher.EXPECT().Flush().AnyTimes()
		build(64)

		old, _ = m.Create()
		Expect(m.DefineRegion(old, 0x1000, 0x2000, true, false, true)).
			To(Succeed())
		Expect(m.DefineRegion(old, 0x10000, 0x1000, true, true, false)).
			To(Succeed())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should return nil for a nil address space", func() {
		as, err := m.Copy(nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(as).To(BeNil())
		Expect(m.Spaces()).To(HaveLen(1))
	})

	It("should copy regions in the same order", func() {
		newAS, err := m.Copy(old)

		Expect(err).NotTo(HaveOccurred())
		Expect(newAS.ID()).NotTo(Equal(old.ID()))
		Expect(m.Regions(newAS)).To(Equal(m.Regions(old)))
	})

	It("should copy pages into distinct frames", func() {
		a := fill(old, 0x1000, "text")
		b := fill(old, 0x10000, "data")
		table.Lock()
		idB, _ := table.Find(old.ID(), vm.PageNumber(0x10000))
		table.SetDirty(idB, false)
		table.Unlock()

		newAS, err := m.Copy(old)
		Expect(err).NotTo(HaveOccurred())

		na, found := entryOf(newAS, 0x1000)
		Expect(found).To(BeTrue())
		nb, found := entryOf(newAS, 0x10000)
		Expect(found).To(BeTrue())

		Expect(na.Frame).NotTo(Equal(a.Frame))
		Expect(nb.Frame).NotTo(Equal(b.Frame))
		Expect(pool.Data(na.Frame)).To(Equal(pool.Data(a.Frame)))
		Expect(pool.Data(nb.Frame)).To(Equal(pool.Data(b.Frame)))
		Expect(na.Dirty).To(BeTrue())
		Expect(nb.Dirty).To(BeFalse())

		table.Lock()
		Expect(table.CountOwnedBy(newAS.ID())).To(Equal(2))
		Expect(table.CheckBuckets()).To(Succeed())
		table.Unlock()

		copy(pool.Data(a.Frame), "TEXT")
		Expect(string(pool.Data(na.Frame)[:4])).To(Equal("text"))
	})

	It("should leave nothing behind when frames run out", func() {
		build(4)
		old, _ = m.Create()
		Expect(m.DefineRegion(old, 0x1000, 0x3000, true, true, false)).
			To(Succeed())
		fill(old, 0x1000, "a")
		fill(old, 0x2000, "b")
		fill(old, 0x3000, "c")
		heap := m.HeapInUse()

		newAS, err := m.Copy(old)

		Expect(err).To(MatchError(vm.ErrOutOfMemory))
		Expect(newAS).To(BeNil())
		Expect(m.Spaces()).To(Equal([]*AddressSpace{old}))
		Expect(m.HeapInUse()).To(Equal(heap))
		Expect(table.Len()).To(Equal(3))
		Expect(pool.NumUsed()).To(Equal(3))
	})

	It("should leave nothing behind when regions cannot be copied", func() {
		m.heap.limit = m.heap.inUse() + spaceSize + regionSize
		heap := m.HeapInUse()

		newAS, err := m.Copy(old)

		Expect(err).To(MatchError(vm.ErrOutOfMemory))
		Expect(newAS).To(BeNil())
		Expect(m.Spaces()).To(Equal([]*AddressSpace{old}))
		Expect(m.HeapInUse()).To(Equal(heap))
	})

	It("should panic on an entry in the wrong bucket", func() {
		pt := NewMockPageTable(mockCtrl)
		m = MakeBuilder().
			WithPageTable(pt).
			WithTLB(flusher).
			Build("AddrSpace")
		as, _ := m.Create()

		pt.EXPECT().Lock().AnyTimes()
		pt.EXPECT().Unlock().AnyTimes()
		pt.EXPECT().Hash(as.ID(), uint64(1)).Return(5)
		pt.EXPECT().
			Walk(gomock.Any()).
			Do(func(fn hpt.WalkFunc) {
				fn(3, 0, hpt.Entry{Owner: as.ID(), VPN: 1})
			})

		Expect(func() { _, _ = m.Copy(as) }).
			To(PanicWith(BeAssignableToTypeOf(&vm.ConsistencyViolation{})))
	})
})

var _ = Describe("Load and fork", func() {
	It("should carry a loaded image into the child", func() {
		pool := frame.NewPool(32)
		hw := tlb.NewSoftTLB(8)
		table := hpt.MakeBuilder().
			WithNumBuckets(8).
			WithFrameAllocator(pool).
			Build()
		ctrl := tlb.MakeBuilder().WithHardware(hw).Build("TLB")
		m := MakeBuilder().
			WithPageTable(table).
			WithTLB(ctrl).
			Build("AddrSpace")

		a, err := m.Create()
		Expect(err).NotTo(HaveOccurred())
		Expect(m.DefineRegion(a, 0x1000, 3*vm.PageSize, true, false, true)).
			To(Succeed())

		Expect(m.PrepareLoad(a)).To(Succeed())
		r, _ := m.FindRegion(a, 0x1000)
		Expect(r.Perms.Has(vm.PermWrite | vm.PermTransientWrite)).To(BeTrue())

		table.Lock()
		id, err := table.LookupOrCreate(a.ID(), vm.PageNumber(0x1000), true)
		Expect(err).NotTo(HaveOccurred())
		f := table.Get(id).Frame
		table.Unlock()
		copy(pool.Data(f), "\x7fELF")
		ctrl.Fill(tlb.SlotEntry{VPN: vm.PageNumber(0x1000), Frame: f, Dirty: true})

		Expect(m.CompleteLoad(a)).To(Succeed())
		Expect(hw.NumValid()).To(Equal(0))

		r, _ = m.FindRegion(a, 0x1000)
		Expect(r.Perms).To(Equal(vm.PermRead | vm.PermExecute))
		table.Lock()
		Expect(table.Get(id).Dirty).To(BeFalse())
		table.Unlock()

		b, err := m.Copy(a)
		Expect(err).NotTo(HaveOccurred())

		regions := m.Regions(b)
		Expect(regions).To(HaveLen(1))
		Expect(regions[0].Base).To(Equal(uint64(0x1000)))
		Expect(regions[0].NumPages).To(Equal(uint64(3)))
		Expect(regions[0].Perms).To(Equal(vm.PermRead | vm.PermExecute))

		table.Lock()
		Expect(table.CountOwnedBy(b.ID())).To(Equal(1))
		bid, found := table.Find(b.ID(), vm.PageNumber(0x1000))
		Expect(found).To(BeTrue())
		bf := table.Get(bid).Frame
		table.Unlock()

		Expect(bf).NotTo(Equal(f))
		Expect(pool.Data(bf)).To(Equal(pool.Data(f)))

		m.Destroy(a)
		m.Destroy(b)
		Expect(table.Len()).To(Equal(0))
		Expect(pool.NumUsed()).To(Equal(0))
	})
})
