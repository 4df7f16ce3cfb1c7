package fixtures_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/interp/fixtures"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/valgen"
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

func buildCounter(n uint64) (*ctx.Context, *interp.Interpreter) {
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
	return c, it
}

// trace builds a Trace whose expected counter.out values climb one per
// cycle starting at 0 — the output lag documented on interp_test.go's
// increment spec — using valgen rather than writing out n literals.
func trace(cycles uint64) *fixtures.Trace {
	gen := valgen.MakeIncreasingGen(0)
	t := &fixtures.Trace{Component: "main"}
	for i := uint64(0); i < cycles; i++ {
		t.Cycles = append(t.Cycles, fixtures.CycleExpectation{
			Cycle:  i,
			Values: map[string]uint64{"counter.out": gen()},
		})
	}
	return t
}

var _ = Describe("Trace", func() {
	It("parses a YAML trace", func() {
		data := []byte(`
component: main
cycles:
  - cycle: 0
    values:
      counter.out: 0
  - cycle: 1
    values:
      counter.out: 1
`)
		tr, err := fixtures.Parse(data)
		Expect(err).To(BeNil())
		Expect(tr.Component).To(Equal("main"))
		Expect(tr.Cycles).To(HaveLen(2))
		Expect(tr.Cycles[1].Values["counter.out"]).To(Equal(uint64(1)))
	})

	It("reports no mismatches when the trace matches the interpreter", func() {
		c, it := buildCounter(4)
		mismatches, err := trace(4).Run(it, c.Interner)
		Expect(err).To(BeNil())
		Expect(mismatches).To(BeEmpty())
	})

	It("reports a mismatch when an expectation is wrong", func() {
		c, it := buildCounter(2)
		bad := trace(1)
		bad.Cycles[0].Values["counter.out"] = 99

		mismatches, err := bad.Run(it, c.Interner)
		Expect(err).To(BeNil())
		Expect(mismatches).To(HaveLen(1))
		Expect(mismatches[0].Expected).To(Equal(uint64(99)))
	})
})
