package fault

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/vmkern/mem/vm"
	"github.com/sarchlab/vmkern/mem/vm/addrspace"
	"github.com/sarchlab/vmkern/mem/vm/frame"
	"github.com/sarchlab/vmkern/mem/vm/hpt"
	"github.com/sarchlab/vmkern/mem/vm/tlb"
)

var _ = Describe("Handler", func() {
	var (
		mockCtrl *gomock.Controller
		filler   *MockFiller
		pool     *frame.Pool
		table    *hpt.Table
		spaces   *addrspace.Manager
		h        *Handler
		as       *addrspace.AddressSpace
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		filler = NewMockFiller(mockCtrl)
		pool = frame.NewPool(2)
		table = hpt.MakeBuilder().
			WithNumBuckets(4).
			WithFrameAllocator(pool).
			Build()
		spaces = addrspace.MakeBuilder().
			WithPageTable(table).
			WithTLB(tlb.MakeBuilder().Build("TLB")).
			Build("AddrSpace")
		h = NewHandler(spaces, filler)

		as, _ = spaces.Create()
		Expect(spaces.DefineRegion(as, 0x1000, 0x3000, true, false, true)).
			To(Succeed())
		Expect(spaces.DefineRegion(as, 0x8000, 0x1000, true, true, false)).
			To(Succeed())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should map a page and load the translation", func() {
		filler.EXPECT().
			Fill(gomock.Any()).
			DoAndReturn(func(e tlb.SlotEntry) int {
				Expect(e.VPN).To(Equal(uint64(8)))
				Expect(e.Dirty).To(BeTrue())
				return 2
			})

		Expect(h.HandleFault(as, Write, 0x8123)).To(Succeed())

		table.Lock()
		_, found := table.Find(as.ID(), 8)
		table.Unlock()
		Expect(found).To(BeTrue())
	})

	It("should map read-only pages clean", func() {
		filler.EXPECT().
			Fill(gomock.Any()).
			DoAndReturn(func(e tlb.SlotEntry) int {
				Expect(e.Dirty).To(BeFalse())
				return 0
			})

		Expect(h.HandleFault(as, Read, 0x2000)).To(Succeed())
	})

	It("should reuse the entry on a second fault", func() {
		filler.EXPECT().Fill(gomock.Any()).Return(0).Times(2)

		Expect(h.HandleFault(as, Read, 0x1000)).To(Succeed())
		Expect(h.HandleFault(as, Read, 0x1fff)).To(Succeed())

		Expect(table.Len()).To(Equal(1))
	})

	It("should reject addresses outside every region", func() {
		err := h.HandleFault(as, Read, 0x5000)

		Expect(err).To(MatchError(vm.ErrBadAddress))
		Expect(table.Len()).To(Equal(0))
	})

	It("should reject a nil address space", func() {
		Expect(h.HandleFault(nil, Read, 0x1000)).To(MatchError(vm.ErrBadAddress))
	})

	It("should report running out of frames", func() {
		filler.EXPECT().Fill(gomock.Any()).Return(0).Times(2)
		Expect(h.HandleFault(as, Read, 0x1000)).To(Succeed())
		Expect(h.HandleFault(as, Read, 0x2000)).To(Succeed())

		err := h.HandleFault(as, Read, 0x3000)

		Expect(err).To(MatchError(vm.ErrOutOfMemory))
	})
})
