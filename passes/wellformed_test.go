package passes_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
	"github.com/sarchlab/calyxgo/passes"
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

// newComponent assembles a fresh "main" component and builder against a
// Context with regLibrary already registered.
func newComponent(entry string) (*ctx.Context, *ir.Component, *builder.Builder) {
	c := ctx.NewBuilder().WithLibrary(regLibrary()).WithEntrypoint(entry).Build()
	sig := &ir.Cell{Name: c.Interner.Intern("this"), Proto: ir.Prototype{Kind: ir.ProtoThis}}
	comp := ir.NewComponent(c.Interner.Intern(entry), sig)
	b := builder.New(c, comp)
	return c, comp, b
}

var _ = Describe("WellFormed", func() {
	It("accepts a group that writes its own done exactly once", func() {
		c, comp, b := newComponent("main")

		reg, derr := b.AddPrimitive("r", "std_reg", map[string]uint64{"WIDTH": 8})
		Expect(derr).To(BeNil())
		five := b.AddConstant(5, 8)
		one := b.AddConstant(1, 1)

		g, derr := b.AddGroup("run")
		Expect(derr).To(BeNil())
		_, derr = b.BuildGroupAssignment(g, reg.Port(c.Interner.Intern("in")), five.Port(c.Interner.Intern("out")), nil)
		Expect(derr).To(BeNil())
		_, derr = b.BuildGroupAssignment(g, reg.Port(c.Interner.Intern("write_en")), one.Port(c.Interner.Intern("out")), nil)
		Expect(derr).To(BeNil())
		_, derr = b.BuildGroupAssignment(g, g.DonePort, reg.Port(c.Interner.Intern("done")), nil)
		Expect(derr).To(BeNil())

		comp.Control = ir.Enable(g.Name)
		c.AddComponent(comp)

		Expect(passes.WellFormed{}.Run(c, comp, pass.Options{})).To(BeNil())
	})

	It("rejects a dynamic group with no done writer", func() {
		c, comp, b := newComponent("main")

		g, derr := b.AddGroup("run")
		Expect(derr).To(BeNil())
		comp.Control = ir.Enable(g.Name)
		c.AddComponent(comp)

		result := passes.WellFormed{}.Run(c, comp, pass.Options{})
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(diag.KindMalformed))
	})

	It("rejects control that enables an undefined group", func() {
		c, comp, _ := newComponent("main")

		ghost := c.Interner.Intern("ghost")
		comp.Control = ir.Enable(ghost)
		c.AddComponent(comp)

		result := passes.WellFormed{}.Run(c, comp, pass.Options{})
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(diag.KindMalformed))
	})

	It("rejects two guardless continuous assignments driving the same port", func() {
		c, comp, b := newComponent("main")

		reg, derr := b.AddPrimitive("r", "std_reg", map[string]uint64{"WIDTH": 1})
		Expect(derr).To(BeNil())
		one := b.AddConstant(1, 1)
		zero := b.AddConstant(0, 1)

		comp.ContinuousAssignments = append(comp.ContinuousAssignments,
			&ir.Assignment{Dst: reg.Port(c.Interner.Intern("in")), Src: one.Port(c.Interner.Intern("out"))},
			&ir.Assignment{Dst: reg.Port(c.Interner.Intern("in")), Src: zero.Port(c.Interner.Intern("out"))},
		)
		c.AddComponent(comp)

		result := passes.WellFormed{}.Run(c, comp, pass.Options{})
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(diag.KindConflicting))
	})

	It("rejects a group that is defined but never enabled", func() {
		c, comp, b := newComponent("main")

		g, derr := b.AddGroup("run")
		Expect(derr).To(BeNil())
		_, derr = b.BuildGroupAssignment(g, g.DonePort, g.GoPort, nil)
		Expect(derr).To(BeNil())

		other, derr := b.AddGroup("never_enabled")
		Expect(derr).To(BeNil())
		_, derr = b.BuildGroupAssignment(other, other.DonePort, other.GoPort, nil)
		Expect(derr).To(BeNil())

		comp.Control = ir.Enable(g.Name)
		c.AddComponent(comp)

		result := passes.WellFormed{}.Run(c, comp, pass.Options{})
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(diag.KindMalformed))
	})

	It("rejects a reference cell in the entrypoint component", func() {
		c, comp, _ := newComponent("main")
		comp.Cells = append(comp.Cells, &ir.Cell{
			Name:      c.Interner.Intern("refcell"),
			Reference: true,
			Proto:     ir.Prototype{Kind: ir.ProtoPrimitive, LibName: c.Interner.Intern("std_reg")},
		})
		c.AddComponent(comp)

		result := passes.WellFormed{}.Run(c, comp, pass.Options{})
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(diag.KindMalformed))
	})
})
