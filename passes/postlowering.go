package passes

import (
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
)

// PostLowering removes groups left over from an earlier pass (most
// often Inline, which can orphan a callee's groups once its control is
// spliced elsewhere) that no control node enables and no other group's
// assignments reference.
type PostLowering struct{}

// Name identifies the pass to the Runner.
func (PostLowering) Name() string { return "post-lowering" }

// Run deletes comp's unreachable groups in place.
func (PostLowering) Run(_ *ctx.Context, comp *ir.Component, _ pass.Options) *diag.Diagnostic {
	referenced := make(map[ident.ID]bool)

	ir.Walk(comp.Control, func(n *ir.Control) bool {
		switch n.Kind {
		case ir.CtrlEnable, ir.CtrlStaticEnable:
			referenced[n.Group] = true
		case ir.CtrlIf, ir.CtrlWhile:
			if n.HasCondCombGroup {
				referenced[n.CondCombGroup] = true
			}
		case ir.CtrlInvoke:
			if n.HasCombGroup {
				referenced[n.CombGroup] = true
			}
		}
		return true
	})

	markPortReferences := func(p *ir.Port) {
		if p != nil && p.Parent.Kind == ir.ParentGroup {
			referenced[p.Parent.Name] = true
		}
	}
	for _, g := range comp.Groups {
		for _, a := range g.Assignments {
			markPortReferences(a.Dst)
			markPortReferences(a.Src)
			for _, p := range a.Guard.Ports() {
				markPortReferences(p)
			}
		}
	}
	for _, a := range comp.ContinuousAssignments {
		markPortReferences(a.Dst)
		markPortReferences(a.Src)
		for _, p := range a.Guard.Ports() {
			markPortReferences(p)
		}
	}

	for _, g := range append([]*ir.Group{}, comp.Groups...) {
		if !referenced[g.Name] {
			comp.RemoveGroup(g.Name)
		}
	}
	return nil
}
