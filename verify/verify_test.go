package verify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/interp/fixtures"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/verify"
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

var _ = Describe("Lint", func() {
	It("reports no issues for a clean component", func() {
		c, comp, _ := buildCounter(2)
		issues := verify.Lint(c, comp)
		Expect(issues).To(BeEmpty())
	})

	It("flags a group defined but never enabled as an error", func() {
		c, comp, _ := buildCounter(2)
		b := builder.New(c, comp)
		_, _ = b.AddStaticGroup("never_used", 1)

		issues := verify.Lint(c, comp)
		hasError := false
		for _, iss := range issues {
			if iss.Severity == verify.Error {
				hasError = true
			}
		}
		Expect(hasError).To(BeTrue())
	})

	It("flags a dynamic group with no done writer as an error", func() {
		c, comp, _ := buildCounter(2)
		b := builder.New(c, comp)
		g, _ := b.AddGroup("broken")
		comp.Control = ir.Seq(comp.Control, ir.Enable(g.Name))

		issues := verify.Lint(c, comp)
		hasError := false
		for _, iss := range issues {
			if iss.Severity == verify.Error {
				hasError = true
			}
		}
		Expect(hasError).To(BeTrue())
	})
})

var _ = Describe("Run", func() {
	It("reports OK when the trace matches the interpreter", func() {
		c, comp, it := buildCounter(3)
		tr := &fixtures.Trace{
			Component: "main",
			Cycles: []fixtures.CycleExpectation{
				{Cycle: 0, Values: map[string]uint64{"counter.out": 0}},
				{Cycle: 1, Values: map[string]uint64{"counter.out": 1}},
			},
		}
		report := verify.Run(c, comp, it, tr)
		Expect(report.OK()).To(BeTrue())
		Expect(report.Mismatches).To(BeEmpty())
	})

	It("reports not-OK when the trace disagrees with the interpreter", func() {
		c, comp, it := buildCounter(3)
		tr := &fixtures.Trace{
			Component: "main",
			Cycles: []fixtures.CycleExpectation{
				{Cycle: 0, Values: map[string]uint64{"counter.out": 99}},
			},
		}
		report := verify.Run(c, comp, it, tr)
		Expect(report.OK()).To(BeFalse())
		Expect(report.Mismatches).To(HaveLen(1))
	})
})
