package interp

import (
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// timedAssignment pairs an assignment with the within-group cycle
// index it should be evaluated under, giving GuardCycleInterval leaves
// (meaningful only for static groups) something to compare against.
type timedAssignment struct {
	a     *ir.Assignment
	cycle uint64
}

// converge drives one cycle's combinational fixed point: reset every
// non-externally-held port to undefined, then repeatedly evaluate the
// active assignment pool and every primitive's CombTick until a full
// sweep produces no further change. The active pool itself is not
// fixed for the whole cycle: each sweep first calls growActiveSet, so
// a group whose go hole an already-active group's assignment just
// asserted — rather than a control-tree Enable node, the only thing
// computeActiveSet sees — joins the pool before its own assignments
// are evaluated. This is what lets a passes.CompileControl-lowered
// component run at all: every nested group it builds is wired to its
// parent by an ordinary assignment driving GoPort, never by a second
// Enable node. Once a sweep makes no change, every port still
// undefined is set to a defined zero. Two true-guarded assignments
// writing the same destination with different defined values in the
// same sweep is reported as KindConflicting; exceeding the sweep bound
// is reported as KindConvergence.
func (it *Interpreter) converge(as *activeSet) *diag.Diagnostic {
	it.resetForConvergence()
	for name := range as.dynGroups {
		g := it.Comp.Group(name)
		it.values[g.GoPort.Canonical()] = Of(1, 1)
	}

	for sweep := 0; sweep < maxConvergenceSweeps; sweep++ {
		grew := it.growActiveSet(as)
		timed := it.activeAssignments(as)

		writes := make(map[ir.CanonicalKey]Value)
		conflicts := make(map[ir.CanonicalKey]bool)

		for _, ta := range timed {
			if !it.evalGuard(ta.a.Guard, ta.cycle) {
				continue
			}
			src := it.evalPort(ta.a.Src)
			if !src.Defined {
				continue
			}
			key := ta.a.Dst.Canonical()
			if prev, ok := writes[key]; ok {
				if changedFrom(prev, src) {
					conflicts[key] = true
				}
				continue
			}
			writes[key] = src
		}

		for _, inv := range as.invokes {
			it.applyInvoke(inv, writes)
		}

		for key := range conflicts {
			return diag.Newf(diag.KindConflicting,
				"conflicting drivers for port %q.%q",
				it.Ctx.Interner.Name(key.Parent), it.Ctx.Interner.Name(key.Name))
		}

		changed := grew
		for key, v := range writes {
			if changedFrom(it.values[key], v) {
				it.values[key] = v
				changed = true
			}
		}

		if it.tickPrimitives() {
			changed = true
		}

		if !changed {
			for key, v := range it.values {
				if !v.Defined {
					it.values[key] = Zero(v.Width)
				}
			}
			return nil
		}
	}

	return diag.Newf(diag.KindConvergence,
		"component %q did not converge within %d sweeps",
		it.Ctx.Interner.Name(it.Comp.Name), maxConvergenceSweeps)
}

// growActiveSet adds to as every dynamic group not yet active whose
// GoPort currently reads truthy, and reports whether it added any.
// A fully lowered component has no control-tree Enable node for most
// of its groups — passes.CompileControl wires each nested group's go
// purely through an ordinary assignment in its parent's body — so
// this is the only way those groups ever join the sweep's assignment
// pool. Static and comb groups have no go hole (ir.Group's doc:
// GoPort/DonePort are non-nil only for GroupDynamic) and so can only
// become active the way they always have, via the control-tree walk.
func (it *Interpreter) growActiveSet(as *activeSet) bool {
	grew := false
	for _, g := range it.Comp.Groups {
		if g.Kind != ir.GroupDynamic || as.dynGroups[g.Name] {
			continue
		}
		if it.values[g.GoPort.Canonical()].Truthy() {
			as.dynGroups[g.Name] = true
			grew = true
		}
	}
	return grew
}

func (it *Interpreter) activeAssignments(as *activeSet) []timedAssignment {
	var timed []timedAssignment
	for _, g := range it.Comp.Groups {
		switch g.Kind {
		case ir.GroupDynamic:
			if as.dynGroups[g.Name] {
				for _, a := range g.Assignments {
					timed = append(timed, timedAssignment{a, 0})
				}
			}
		case ir.GroupStatic:
			if as.staticGroups[g.Name] {
				cyc := it.groupCycle[g.Name]
				for _, a := range g.Assignments {
					timed = append(timed, timedAssignment{a, cyc})
				}
			}
		case ir.GroupComb:
			if as.combGroups[g.Name] {
				for _, a := range g.Assignments {
					timed = append(timed, timedAssignment{a, 0})
				}
			}
		}
	}
	for _, a := range it.Comp.ContinuousAssignments {
		timed = append(timed, timedAssignment{a, 0})
	}
	return timed
}

// applyInvoke folds an active Invoke node's input/output bindings and
// its cell's go hole into the sweep's pending writes, exactly as if
// they were ordinary guarded assignments with a True guard.
func (it *Interpreter) applyInvoke(inv *ir.Control, writes map[ir.CanonicalKey]Value) {
	cell := it.Comp.Cell(inv.Cell)
	goPort := cell.Port(it.Ctx.Interner.Intern("go"))
	donePort := cell.Port(it.Ctx.Interner.Intern("done"))

	if goPort != nil && !it.values[donePort.Canonical()].Truthy() {
		writes[goPort.Canonical()] = Of(1, 1)
	}
	for _, b := range inv.Inputs {
		if v := it.evalPort(b.Actual); v.Defined {
			writes[cell.Port(b.Formal).Canonical()] = v
		}
	}
	for _, b := range inv.Outputs {
		if v := it.values[cell.Port(b.Formal).Canonical()]; v.Defined {
			writes[b.Actual.Canonical()] = v
		}
	}
}

// resetForConvergence clears every port this component itself drives
// back to undefined at the start of a cycle. The signature's own input
// ports are left untouched: they are held steady by the caller (or, for
// a nested instance, by componentPrimitive.CombTick) until explicitly
// re-Set, not recomputed each cycle.
func (it *Interpreter) resetForConvergence() {
	for _, cell := range it.Comp.Cells {
		for _, p := range cell.Ports {
			it.values[p.Canonical()] = Undef(p.Width)
		}
	}
	for _, p := range it.Comp.Signature.Ports {
		if p.Direction == ir.In {
			continue
		}
		it.values[p.Canonical()] = Undef(p.Width)
	}
	for _, g := range it.Comp.Groups {
		if g.GoPort != nil {
			it.values[g.GoPort.Canonical()] = Undef(g.GoPort.Width)
		}
		if g.DonePort != nil {
			it.values[g.DonePort.Canonical()] = Undef(g.DonePort.Width)
		}
	}
}

// tickPrimitives runs every cell's CombTick once and reports whether
// any of its ports changed value, so the convergence loop knows
// whether another sweep is needed. CombTick may be called many times
// within one cycle and must be idempotent given unchanged inputs.
func (it *Interpreter) tickPrimitives() bool {
	changed := false
	for name, prim := range it.prims {
		cell := it.Comp.Cell(name)
		before := make([]Value, len(cell.Ports))
		for i, p := range cell.Ports {
			before[i] = it.values[p.Canonical()]
		}

		prim.CombTick(cellPortAccess{it: it, cell: name})

		for i, p := range cell.Ports {
			if changedFrom(before[i], it.values[p.Canonical()]) {
				changed = true
			}
		}
	}
	return changed
}

// edgeAdvance latches every primitive's internal state by one cycle.
// Cells are visited in map order, which is not fixed; each EdgeTick
// reads only its own cell's settled port values.
func (it *Interpreter) edgeAdvance() {
	for name, prim := range it.prims {
		prim.EdgeTick(cellPortAccess{it: it, cell: name})
	}
}

// changedFrom reports whether new differs observably from old, for
// convergence/change detection — unlike Value.Equal, two undefined
// values here count as unchanged, so a port that stays undriven across
// sweeps does not itself prevent convergence.
func changedFrom(old, new Value) bool {
	if old.Defined != new.Defined {
		return true
	}
	return old.Defined && old.Bits != new.Bits
}

func (it *Interpreter) evalPort(p *ir.Port) Value {
	if p == nil {
		return Value{}
	}
	return it.values[p.Canonical()]
}

func (it *Interpreter) evalGuard(g *ir.Guard, cycle uint64) bool {
	if g == nil {
		return true
	}
	switch g.Op {
	case ir.GuardTrue:
		return true
	case ir.GuardPort:
		return it.evalPort(g.Leaf).Truthy()
	case ir.GuardConst:
		return g.ConstVal != 0
	case ir.GuardNot:
		return !it.evalGuard(g.Children[0], cycle)
	case ir.GuardAnd:
		for _, c := range g.Children {
			if !it.evalGuard(c, cycle) {
				return false
			}
		}
		return true
	case ir.GuardOr:
		for _, c := range g.Children {
			if it.evalGuard(c, cycle) {
				return true
			}
		}
		return false
	case ir.GuardEq:
		return it.evalPort(g.Left).Equal(it.evalPort(g.Right))
	case ir.GuardNeq:
		l, r := it.evalPort(g.Left), it.evalPort(g.Right)
		return l.Defined && r.Defined && l.Bits != r.Bits
	case ir.GuardLt, ir.GuardLe, ir.GuardGt, ir.GuardGe:
		l, r := it.evalPort(g.Left), it.evalPort(g.Right)
		if !l.Defined || !r.Defined {
			return false
		}
		switch g.Op {
		case ir.GuardLt:
			return l.Bits < r.Bits
		case ir.GuardLe:
			return l.Bits <= r.Bits
		case ir.GuardGt:
			return l.Bits > r.Bits
		default:
			return l.Bits >= r.Bits
		}
	case ir.GuardCycleInterval:
		return cycle >= g.Lo && cycle < g.Hi
	default:
		return false
	}
}

// cellPortAccess adapts one cell's slice of the Interpreter's global
// port-value table to the string-keyed PortAccess a Primitive expects.
type cellPortAccess struct {
	it   *Interpreter
	cell ident.ID
}

func (a cellPortAccess) Get(port string) Value {
	id, ok := a.it.Ctx.Interner.Lookup(port)
	if !ok {
		return Value{}
	}
	return a.it.values[ir.CanonicalKey{Parent: a.cell, Name: id}]
}

func (a cellPortAccess) Set(port string, v Value) {
	id := a.it.Ctx.Interner.Intern(port)
	a.it.values[ir.CanonicalKey{Parent: a.cell, Name: id}] = v
}
