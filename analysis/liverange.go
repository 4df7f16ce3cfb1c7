package analysis

import (
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// CellSet is a set of interned cell names.
type CellSet map[ident.ID]bool

func newCellSet() CellSet { return make(CellSet) }

func (s CellSet) add(id ident.ID) { s[id] = true }

func (s CellSet) union(o CellSet) CellSet {
	out := newCellSet()
	for k := range s {
		out[k] = true
	}
	for k := range o {
		out[k] = true
	}
	return out
}

func (s CellSet) clone() CellSet { return s.union(newCellSet()) }

// LiveSet splits the cells live at a control point by share class:
// stateful cells (registers, memories) and combinational cells are
// tracked separately since sharing candidates are only ever chosen
// within the same class.
type LiveSet struct {
	Stateful CellSet
	Comb     CellSet
}

func newLiveSet() *LiveSet {
	return &LiveSet{Stateful: newCellSet(), Comb: newCellSet()}
}

func (s *LiveSet) union(o *LiveSet) *LiveSet {
	return &LiveSet{Stateful: s.Stateful.union(o.Stateful), Comb: s.Comb.union(o.Comb)}
}

func (s *LiveSet) clone() *LiveSet { return s.union(newLiveSet()) }

// LiveRanges is the result of LiveRange: the live set at every
// numbered control node, plus the set of cells that are always live
// (used in continuous assignments, or reference cells) and therefore
// excluded from sharing candidacy.
type LiveRanges struct {
	ByNodeID   map[int]*LiveSet
	AlwaysLive CellSet
}

// IsAlwaysLive reports whether cell is excluded from sharing
// candidacy.
func (lr *LiveRanges) IsAlwaysLive(cell ident.ID) bool {
	return lr.AlwaysLive[cell]
}

// At returns the live set recorded at a numbered control node, or an
// empty set if the node was never visited (e.g. it postdates the tree
// LiveRange was computed against).
func (lr *LiveRanges) At(nodeID int) *LiveSet {
	if s, ok := lr.ByNodeID[nodeID]; ok {
		return s
	}
	return newLiveSet()
}

// LiveRange computes, for every control node reachable from comp's
// control (which must already be numbered via NumberControl),
// the cells live at that point. Liveness propagates backward through
// Seq and merges across Par arms, If branches, and loop back-edges.
func LiveRange(comp *ir.Component) *LiveRanges {
	lr := &LiveRanges{ByNodeID: make(map[int]*LiveSet), AlwaysLive: alwaysLive(comp)}

	w := &liveWalker{comp: comp, lr: lr}
	w.before(comp.Control, newLiveSet())

	return lr
}

func alwaysLive(comp *ir.Component) CellSet {
	out := newCellSet()
	for _, cell := range comp.Cells {
		if cell.Reference {
			out.add(cell.Name)
		}
	}
	for _, a := range comp.ContinuousAssignments {
		if a.Dst.Parent.Kind == ir.ParentCell {
			out.add(a.Dst.Parent.Name)
		}
		if a.Src.Parent.Kind == ir.ParentCell {
			out.add(a.Src.Parent.Name)
		}
		for _, p := range a.Guard.Ports() {
			if p.Parent.Kind == ir.ParentCell {
				out.add(p.Parent.Name)
			}
		}
	}
	return out
}

type liveWalker struct {
	comp *ir.Component
	lr   *LiveRanges
}

// before computes, and records, the live-in set of n given liveAfter
// (the live-out set supplied by whatever follows n), and returns that
// live-in set to the caller so Seq can thread it backward through
// earlier children.
func (w *liveWalker) before(n *ir.Control, liveAfter *LiveSet) *LiveSet {
	if n == nil {
		return liveAfter
	}

	var result *LiveSet
	switch n.Kind {
	case ir.CtrlEmpty:
		result = liveAfter.clone()

	case ir.CtrlEnable:
		result = w.cellsOfGroup(n.Group).union(liveAfter)

	case ir.CtrlStaticEnable:
		result = w.cellsOfGroup(n.Group).union(liveAfter)

	case ir.CtrlInvoke:
		used := w.cellsOfInvoke(n)
		result = used.union(liveAfter)

	case ir.CtrlSeq:
		cur := liveAfter
		for i := len(n.Children) - 1; i >= 0; i-- {
			cur = w.before(n.Children[i], cur)
		}
		result = cur

	case ir.CtrlPar:
		total := newLiveSet()
		for _, child := range n.Children {
			total = total.union(w.before(child, liveAfter))
		}
		result = total

	case ir.CtrlIf:
		cond := w.cellsOfCond(n.Port, n.CondCombGroup, n.HasCondCombGroup)
		thenLive := w.before(n.Then, liveAfter)
		elseLive := liveAfter
		if n.Else != nil {
			elseLive = w.before(n.Else, liveAfter)
		}
		result = thenLive.union(elseLive).union(cond)

	case ir.CtrlWhile:
		cond := w.cellsOfCond(n.Port, n.CondCombGroup, n.HasCondCombGroup)
		// Two-pass fixed point over the back-edge: the first pass
		// seeds the body's live-in assuming the loop exits; the
		// second folds that live-in back in as the live-out of the
		// body's own previous iteration.
		pass1 := w.before(n.Body, liveAfter).union(liveAfter).union(cond)
		pass2 := w.before(n.Body, pass1).union(liveAfter).union(cond)
		result = pass2

	case ir.CtrlRepeat:
		result = w.before(n.Body, liveAfter)

	default:
		result = liveAfter.clone()
	}

	w.lr.ByNodeID[n.ID] = result
	return result
}

func (w *liveWalker) cellsOfGroup(name ident.ID) *LiveSet {
	out := newLiveSet()
	g := w.comp.Group(name)
	if g == nil {
		return out
	}
	for _, a := range g.Assignments {
		w.addPortCell(out, a.Dst)
		w.addPortCell(out, a.Src)
		for _, p := range a.Guard.Ports() {
			w.addPortCell(out, p)
		}
	}
	return out
}

func (w *liveWalker) cellsOfCond(port *ir.Port, combGroup ident.ID, hasCombGroup bool) *LiveSet {
	out := newLiveSet()
	w.addPortCell(out, port)
	if hasCombGroup {
		out = out.union(w.cellsOfGroup(combGroup))
	}
	return out
}

func (w *liveWalker) cellsOfInvoke(n *ir.Control) *LiveSet {
	out := newLiveSet()
	w.addCell(out, n.Cell)
	for _, b := range n.Inputs {
		w.addPortCell(out, b.Actual)
	}
	for _, b := range n.Outputs {
		w.addPortCell(out, b.Actual)
	}
	if n.HasCombGroup {
		out = out.union(w.cellsOfGroup(n.CombGroup))
	}
	return out
}

func (w *liveWalker) addPortCell(out *LiveSet, p *ir.Port) {
	if p == nil || p.Parent.Kind != ir.ParentCell {
		return
	}
	w.addCell(out, p.Parent.Name)
}

func (w *liveWalker) addCell(out *LiveSet, name ident.ID) {
	cell := w.comp.Cell(name)
	if cell == nil {
		return
	}
	if cell.IsStateful() {
		out.Stateful.add(name)
	} else {
		out.Comb.add(name)
	}
}
