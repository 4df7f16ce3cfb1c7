package passes

import (
	"fmt"

	"github.com/sarchlab/calyxgo/attr"
	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
)

// Inline splices sub-component instances marked @inline (or every
// structural component cell, if the "always" option is set) directly
// into their parent, eliminating the instantiation boundary. Two
// instantiation styles are handled:
//
//   - Structural cells never reached by an Invoke, when the callee is
//     combinational (a stateful callee with no Invoke site is rejected
//     with KindUnsupported): their sub-cells,
//     groups, and continuous assignments are copied into the parent
//     verbatim (renamed to avoid collision), with references to the
//     callee's own signature left pointing at the still-present
//     instance cell, which continues to carry clk/reset and any data
//     ports the parent wires directly.
//   - Cells reached by exactly one Invoke: the callee's control tree
//     is cloned into the Invoke's position, with its signature ports
//     rewritten to the Invoke's bound actual ports (falling back to
//     the instance cell for any signature port the Invoke left
//     unbound, e.g. clk/reset).
//
// A component invoked from more than one site, or both structurally
// and via Invoke, is left uninlined — cloning the instance once per
// call site is not attempted.
type Inline struct{}

// Name identifies the pass to the Runner.
func (Inline) Name() string { return "inline" }

// Run inlines eligible instances of comp in place.
func (Inline) Run(c *ctx.Context, comp *ir.Component, opts pass.Options) *diag.Diagnostic {
	always := opts.Bool("always", false)

	invokeSites := countInvokeSites(comp)

	for _, cell := range append([]*ir.Cell{}, comp.Cells...) {
		if cell.Proto.Kind != ir.ProtoComponent {
			continue
		}
		if !always && !cell.Attrs.Has(attr.Inline) {
			continue
		}
		callee := c.Component(cell.Proto.ComponentName)
		if callee == nil {
			continue
		}

		sites := invokeSites[cell.Name]
		if sites > 1 {
			continue
		}

		if sites == 1 {
			if derr := inlineViaInvoke(c, comp, cell, callee); derr != nil {
				return derr
			}
			continue
		}

		if derr := inlineStructural(c, comp, cell, callee); derr != nil {
			return derr
		}
	}

	return nil
}

func countInvokeSites(comp *ir.Component) map[ident.ID]int {
	out := make(map[ident.ID]int)
	ir.Walk(comp.Control, func(n *ir.Control) bool {
		if n.Kind == ir.CtrlInvoke {
			out[n.Cell]++
		}
		return true
	})
	return out
}

// prefixedName returns an interned name for a callee-local identifier
// scoped under a particular instance, avoiding collisions with the
// parent's own names.
func prefixedName(c *ctx.Context, instance ident.ID, local ident.ID) ident.ID {
	return c.Interner.Intern(fmt.Sprintf("%s$%s", c.Interner.Name(instance), c.Interner.Name(local)))
}

// spliceCallee copies callee's non-signature cells and groups into
// comp, renamed under instance, and returns a Rewriter mapping every
// renamed identifier plus the callee's signature ports (routed to
// fallback, the instance cell whose ports the caller already wires).
func spliceCallee(c *ctx.Context, comp *ir.Component, instance *ir.Cell, callee *ir.Component) *builder.Rewriter {
	rw := builder.NewRewriter()

	for _, cell := range callee.Cells {
		if callee.Signature != nil && cell.Name == callee.Signature.Name {
			continue
		}
		newName := prefixedName(c, instance.Name, cell.Name)
		clone := &ir.Cell{Name: newName, Proto: cell.Proto, Reference: cell.Reference, Attrs: cell.Attrs.Clone()}
		for _, p := range cell.Ports {
			clone.Ports = append(clone.Ports, &ir.Port{
				Name: p.Name, Width: p.Width, Direction: p.Direction,
				Parent: ir.ParentRef{Kind: ir.ParentCell, Name: newName},
				Attrs:  p.Attrs.Clone(),
			})
		}
		comp.AddCell(clone)
		rw.MapCell(cell.Name, newName)
		for _, p := range cell.Ports {
			rw.MapPort(p, clone.Port(p.Name))
		}
	}

	for _, g := range callee.Groups {
		newName := prefixedName(c, instance.Name, g.Name)
		clone := &ir.Group{Name: newName, Kind: g.Kind, Latency: g.Latency, Attrs: g.Attrs.Clone()}
		if g.GoPort != nil {
			clone.GoPort = &ir.Port{Name: g.GoPort.Name, Width: 1, Direction: g.GoPort.Direction,
				Parent: ir.ParentRef{Kind: ir.ParentGroup, Name: newName}}
		}
		if g.DonePort != nil {
			clone.DonePort = &ir.Port{Name: g.DonePort.Name, Width: 1, Direction: g.DonePort.Direction,
				Parent: ir.ParentRef{Kind: ir.ParentGroup, Name: newName}}
		}
		comp.AddGroup(clone)
		rw.MapGroup(g.Name, newName)
		if g.GoPort != nil {
			rw.MapPort(g.GoPort, clone.GoPort)
		}
		if g.DonePort != nil {
			rw.MapPort(g.DonePort, clone.DonePort)
		}
	}

	if callee.Signature != nil {
		for _, p := range callee.Signature.Ports {
			if fallback := instance.Port(p.Name); fallback != nil {
				rw.MapPort(p, fallback)
			}
		}
	}

	for _, g := range callee.Groups {
		ng := comp.Group(rw.RewriteGroupName(g.Name))
		for _, a := range g.Assignments {
			ng.Assignments = append(ng.Assignments, rw.RewriteAssignment(a))
		}
	}
	for _, a := range callee.ContinuousAssignments {
		comp.ContinuousAssignments = append(comp.ContinuousAssignments, rw.RewriteAssignment(a))
	}

	return rw
}

func inlineStructural(c *ctx.Context, comp *ir.Component, cell *ir.Cell, callee *ir.Component) *diag.Diagnostic {
	if !callee.IsComb {
		return diag.Newf(diag.KindUnsupported,
			"cannot structurally inline stateful component %q (cell %q) without an invoke site",
			c.Interner.Name(callee.Name), c.Interner.Name(cell.Name))
	}
	spliceCallee(c, comp, cell, callee)
	return nil
}

func inlineViaInvoke(c *ctx.Context, comp *ir.Component, cell *ir.Cell, callee *ir.Component) *diag.Diagnostic {
	rw := spliceCallee(c, comp, cell, callee)

	if callee.Signature != nil {
		for _, b := range collectInvokeBindings(comp, cell.Name) {
			rw.Ports[ir.CanonicalKey{Parent: callee.Signature.Name, Name: b.formal}] = b.actual
		}
	}

	clonedControl := rw.RewriteControl(callee.Control)
	replaceInvoke(comp, cell.Name, clonedControl)
	return nil
}

type invokeBinding struct {
	formal ident.ID
	actual *ir.Port
}

func collectInvokeBindings(comp *ir.Component, cellName ident.ID) []invokeBinding {
	var out []invokeBinding
	ir.Walk(comp.Control, func(n *ir.Control) bool {
		if n.Kind == ir.CtrlInvoke && n.Cell == cellName {
			for _, b := range n.Inputs {
				out = append(out, invokeBinding{formal: b.Formal, actual: b.Actual})
			}
			for _, b := range n.Outputs {
				out = append(out, invokeBinding{formal: b.Formal, actual: b.Actual})
			}
		}
		return true
	})
	return out
}

func replaceInvoke(comp *ir.Component, cellName ident.ID, replacement *ir.Control) {
	comp.Control = replaceInvokeIn(comp.Control, cellName, replacement)
}

func replaceInvokeIn(n *ir.Control, cellName ident.ID, replacement *ir.Control) *ir.Control {
	if n == nil {
		return nil
	}
	if n.Kind == ir.CtrlInvoke && n.Cell == cellName {
		return replacement
	}
	switch n.Kind {
	case ir.CtrlSeq, ir.CtrlPar:
		for i, ch := range n.Children {
			n.Children[i] = replaceInvokeIn(ch, cellName, replacement)
		}
	case ir.CtrlIf:
		n.Then = replaceInvokeIn(n.Then, cellName, replacement)
		n.Else = replaceInvokeIn(n.Else, cellName, replacement)
	case ir.CtrlWhile, ir.CtrlRepeat:
		n.Body = replaceInvokeIn(n.Body, cellName, replacement)
	}
	return n
}
