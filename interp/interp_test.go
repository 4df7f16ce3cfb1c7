package interp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
)

// counterLibrary registers just enough of the standard-cell library for
// buildCounter's std_reg cell, mirroring cmd/calyxgo's builtinLibrary.
func counterLibrary() *ctx.Library {
	lib := ctx.NewLibrary()
	lib.Register(ctx.PrimitiveSig{
		Name:   "std_reg",
		Params: []string{"WIDTH"},
		Ports: []ctx.PortSig{
			{Name: "in", Direction: "in", WidthParam: "WIDTH"},
			{Name: "write_en", Direction: "in", Width: 1},
			{Name: "reset", Direction: "in", Width: 1},
			{Name: "out", Direction: "out", WidthParam: "WIDTH"},
			{Name: "done", Direction: "out", Width: 1},
		},
		SerializesState: true,
	})
	return lib
}

// buildCounter assembles a "main" component with an 8-bit std_reg
// ticked by a 1-cycle static group, wrapped in a Repeat of n iterations
// — the same shape cmd/calyxgo's demo builds, factored out so multiple
// specs can drive it with different repeat counts.
func buildCounter(n uint64) (*ctx.Context, *ir.Component, *interp.Interpreter) {
	c := ctx.NewBuilder().WithLibrary(counterLibrary()).WithEntrypoint("main").Build()

	sig := &ir.Cell{Name: c.Interner.Intern("this"), Proto: ir.Prototype{Kind: ir.ProtoThis}}
	comp := ir.NewComponent(c.Interner.Intern("main"), sig)
	b := builder.New(c, comp)

	reg, derr := b.AddPrimitive("counter", "std_reg", map[string]uint64{"WIDTH": 8})
	Expect(derr).To(BeNil())
	one := b.AddConstant(1, 8)
	writeEn := b.AddConstant(1, 1)

	tick, derr := b.AddStaticGroup("tick", 1)
	Expect(derr).To(BeNil())

	_, derr = b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("in")), one.Port(c.Interner.Intern("out")), nil)
	Expect(derr).To(BeNil())
	_, derr = b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("write_en")), writeEn.Port(c.Interner.Intern("out")), nil)
	Expect(derr).To(BeNil())

	comp.Control = ir.Repeat(ir.StaticEnable(tick.Name), n)
	c.AddComponent(comp)

	Expect(c.Validate()).To(BeNil())

	it, derr := interp.New(c, comp, interp.DefaultRegistry())
	Expect(derr).To(BeNil())
	return c, comp, it
}

var _ = Describe("Interpreter", func() {
	// A std_reg's `out` reflects its value as of the start of the
	// current cycle's convergence — the write a cycle's group performs
	// only becomes visible starting the following cycle's CombTick —
	// so after n Steps the observed output lags the edge-tick count by
	// one: n Steps have latched the register n times, but the nth
	// convergence sweep still read the (n-1)th latched value.
	It("increments the register, output lagging the edge-tick count by one cycle", func() {
		c, _, it := buildCounter(4)

		ran, derr := it.Run(10)
		Expect(derr).To(BeNil())
		Expect(ran).To(Equal(uint64(4)))
		Expect(it.Done()).To(BeTrue())

		out := it.Get(c.Interner.Intern("counter"), c.Interner.Intern("out"))
		Expect(out.Defined).To(BeTrue())
		Expect(out.Bits).To(Equal(uint64(3)))
	})

	It("stops advancing once Done, further Step calls are no-ops", func() {
		_, _, it := buildCounter(2)

		ran, derr := it.Run(2)
		Expect(derr).To(BeNil())
		Expect(ran).To(Equal(uint64(2)))
		Expect(it.Done()).To(BeTrue())

		derr = it.Step()
		Expect(derr).To(BeNil())
		Expect(it.Cycle()).To(Equal(uint64(2)))
	})

	It("reports intermediate cycle counts correctly mid-run", func() {
		c, _, it := buildCounter(4)

		ran, derr := it.Run(2)
		Expect(derr).To(BeNil())
		Expect(ran).To(Equal(uint64(2)))
		Expect(it.Done()).To(BeFalse())

		out := it.Get(c.Interner.Intern("counter"), c.Interner.Intern("out"))
		Expect(out.Bits).To(Equal(uint64(1)))
	})

	It("round-trips state through Snapshot and Restore", func() {
		c, _, it := buildCounter(100)
		regName := c.Interner.Intern("counter")
		outName := c.Interner.Intern("out")

		_, derr := it.Run(2)
		Expect(derr).To(BeNil())
		snap := it.Snapshot()

		_, derr = it.Run(2)
		Expect(derr).To(BeNil())
		Expect(it.Get(regName, outName).Bits).To(Equal(uint64(3)))

		it.Restore(snap)
		// The restored internal value is not visible via Get until the
		// next convergence sweep re-reads it.
		derr = it.Step()
		Expect(derr).To(BeNil())
		Expect(it.Get(regName, outName).Bits).To(Equal(uint64(2)))
	})
})
