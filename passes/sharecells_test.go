package passes_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
	"github.com/sarchlab/calyxgo/passes"
)

// buildTwoSequentialRegisters assembles a component with two same-width
// std_reg cells, each written by its own group, the groups sequenced so
// neither register is ever live while the other is — the minimal shape
// ShareCells' interference analysis should merge into one cell.
func buildTwoSequentialRegisters() (*ir.Component, *ir.Cell, *ir.Cell) {
	c, comp, b := newComponent("main")

	r1, _ := b.AddPrimitive("r1", "std_reg", map[string]uint64{"WIDTH": 8})
	r2, _ := b.AddPrimitive("r2", "std_reg", map[string]uint64{"WIDTH": 8})
	one := b.AddConstant(1, 8)
	writeEn := b.AddConstant(1, 1)

	g1, _ := b.AddGroup("g1")
	b.BuildGroupAssignment(g1, r1.Port(c.Interner.Intern("in")), one.Port(c.Interner.Intern("out")), nil)
	b.BuildGroupAssignment(g1, r1.Port(c.Interner.Intern("write_en")), writeEn.Port(c.Interner.Intern("out")), nil)
	b.BuildGroupAssignment(g1, g1.DonePort, r1.Port(c.Interner.Intern("done")), nil)

	g2, _ := b.AddGroup("g2")
	b.BuildGroupAssignment(g2, r2.Port(c.Interner.Intern("in")), one.Port(c.Interner.Intern("out")), nil)
	b.BuildGroupAssignment(g2, r2.Port(c.Interner.Intern("write_en")), writeEn.Port(c.Interner.Intern("out")), nil)
	b.BuildGroupAssignment(g2, g2.DonePort, r2.Port(c.Interner.Intern("done")), nil)

	comp.Control = ir.Seq(ir.Enable(g1.Name), ir.Enable(g2.Name))
	c.AddComponent(comp)
	return comp, r1, r2
}

var _ = Describe("ShareCells", func() {
	It("merges two registers that are never live at the same time", func() {
		comp, r1, r2 := buildTwoSequentialRegisters()
		before := len(comp.Cells)

		derr := passes.ShareCells{}.Run(nil, comp, pass.Options{})
		Expect(derr).To(BeNil())

		Expect(len(comp.Cells)).To(BeNumerically("<", before))
		// One of the two original names must no longer resolve to a
		// distinct cell: it was rewritten onto the other and removed.
		stillBoth := comp.Cell(r1.Name) != nil && comp.Cell(r2.Name) != nil
		Expect(stillBoth).To(BeFalse())
	})

	It("does nothing when the disable option is set", func() {
		comp, _, _ := buildTwoSequentialRegisters()
		before := len(comp.Cells)

		derr := passes.ShareCells{}.Run(nil, comp, pass.Options{"disable": "true"})
		Expect(derr).To(BeNil())

		Expect(len(comp.Cells)).To(Equal(before))
	})
})
