package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke every hook", func() {
		pos := &HookPos{Name: "Test"}
		ctx := HookCtx{Pos: pos, Item: 1}

		h1 := NewMockHook(mockCtrl)
		h2 := NewMockHook(mockCtrl)
		h1.EXPECT().Func(ctx)
		h2.EXPECT().Func(ctx)

		base.AcceptHook(h1)
		base.AcceptHook(h2)
		base.InvokeHook(ctx)

		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(ConsistOf(h1, h2))
	})

	It("should refuse the same hook twice", func() {
		h := NewMockHook(mockCtrl)
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())
	})
})
