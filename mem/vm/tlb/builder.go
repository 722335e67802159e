package tlb

import "github.com/sarchlab/vmkern/mem/vm/tlb/internal"

// A Builder can build translation-cache controllers.
type Builder struct {
	hw  Hardware
	irq InterruptController
}

// MakeBuilder creates a builder. Unless configured otherwise, the controller
// drives a 64-slot SoftTLB and masks interrupts with SoftInterrupts.
func MakeBuilder() Builder {
	return Builder{}
}

// WithHardware sets the translation cache to control.
func (b Builder) WithHardware(hw Hardware) Builder {
	b.hw = hw
	return b
}

// WithInterruptController sets how interrupts are masked while slots are
// written.
func (b Builder) WithInterruptController(irq InterruptController) Builder {
	b.irq = irq
	return b
}

// Build creates a controller.
func (b Builder) Build(name string) *Controller {
	c := &Controller{name: name}

	c.hw = b.hw
	if c.hw == nil {
		c.hw = NewSoftTLB(64)
	}

	c.irq = b.irq
	if c.irq == nil {
		c.irq = &SoftInterrupts{}
	}

	c.victims = internal.NewSet(c.hw.NumSlots())

	return c
}
