package debug_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/debug"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
)

func regLibrary() *ctx.Library {
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

func buildCounter(n uint64) (*ctx.Context, *ir.Component, *interp.Interpreter) {
	c := ctx.NewBuilder().WithLibrary(regLibrary()).WithEntrypoint("main").Build()
	sig := &ir.Cell{Name: c.Interner.Intern("this"), Proto: ir.Prototype{Kind: ir.ProtoThis}}
	comp := ir.NewComponent(c.Interner.Intern("main"), sig)
	b := builder.New(c, comp)

	reg, _ := b.AddPrimitive("counter", "std_reg", map[string]uint64{"WIDTH": 8})
	one := b.AddConstant(1, 8)
	writeEn := b.AddConstant(1, 1)

	tick, _ := b.AddStaticGroup("tick", 1)
	b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("in")), one.Port(c.Interner.Intern("out")), nil)
	b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("write_en")), writeEn.Port(c.Interner.Intern("out")), nil)

	comp.Control = ir.Repeat(ir.StaticEnable(tick.Name), n)
	c.AddComponent(comp)

	it, _ := interp.New(c, comp, interp.DefaultRegistry())
	return c, comp, it
}

var _ = Describe("Inspector", func() {
	It("reports the active group for each cycle it steps", func() {
		c, comp, it := buildCounter(3)
		insp := debug.NewInspector(c, comp, it)

		res, derr := insp.Step()
		Expect(derr).To(BeNil())
		Expect(res.ActiveGroups).To(ContainElement("tick"))
		Expect(res.Cycle).To(Equal(uint64(0)))
	})

	It("fires a watchpoint when the watched port's value changes", func() {
		c, comp, it := buildCounter(3)
		insp := debug.NewInspector(c, comp, it)
		insp.Watch(c.Interner.Intern("counter"), c.Interner.Intern("out"))

		_, derr := insp.Step()
		Expect(derr).To(BeNil())
		_, derr = insp.Step()
		Expect(derr).To(BeNil())

		res, derr := insp.Step()
		Expect(derr).To(BeNil())
		Expect(res.WatchHit).NotTo(BeEmpty())
		Expect(res.WatchHit[0].Cell).To(Equal("counter"))
		Expect(res.WatchHit[0].Port).To(Equal("out"))
	})

	It("unwatch stops reporting hits for a port", func() {
		c, comp, it := buildCounter(3)
		insp := debug.NewInspector(c, comp, it)
		insp.Watch(c.Interner.Intern("counter"), c.Interner.Intern("out"))
		insp.Unwatch(c.Interner.Intern("counter"), c.Interner.Intern("out"))

		res, derr := insp.Step()
		Expect(derr).To(BeNil())
		Expect(res.WatchHit).To(BeEmpty())
	})

	It("reports a breakpoint hit on the group's control path", func() {
		c, comp, it := buildCounter(3)
		insp := debug.NewInspector(c, comp, it)

		paths := insp.Paths()
		Expect(paths).NotTo(BeEmpty())
		for _, p := range paths {
			insp.Break(p)
		}
		res, derr := insp.Step()
		Expect(derr).To(BeNil())
		Expect(res.BreakHit).NotTo(BeEmpty())
	})

	It("DumpCells and DumpGroups render non-empty tables", func() {
		c, comp, it := buildCounter(3)
		insp := debug.NewInspector(c, comp, it)
		_, _ = insp.Step()

		Expect(insp.DumpCells()).NotTo(BeEmpty())
		Expect(insp.DumpGroups()).NotTo(BeEmpty())
	})
})
