package analysis

import (
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// Def identifies one assignment as a definition site: the control node
// that enables it, and the destination port it writes. Two
// assignments in different groups never share a Def even if they
// write the same port, since the control node distinguishes them.
type Def struct {
	NodeID int
	Port   ir.CanonicalKey
}

// DefSet is a set of Defs reaching a control point.
type DefSet map[Def]bool

func newDefSet() DefSet { return make(DefSet) }

func (s DefSet) union(o DefSet) DefSet {
	out := newDefSet()
	for d := range s {
		out[d] = true
	}
	for d := range o {
		out[d] = true
	}
	return out
}

// kill returns a copy of s with every Def writing any of ports removed.
func (s DefSet) kill(ports map[ir.CanonicalKey]bool) DefSet {
	out := newDefSet()
	for d := range s {
		if !ports[d.Port] {
			out[d] = true
		}
	}
	return out
}

// ReachingDefs is the result of ReachingDefinitions: for every control
// node, the set of definitions that may reach it on entry.
type ReachingDefs struct {
	In map[int]DefSet
}

// At returns the definitions reaching the entry of nodeID, or an empty
// set if the node was never visited.
func (rd *ReachingDefs) At(nodeID int) DefSet {
	if s, ok := rd.In[nodeID]; ok {
		return s
	}
	return newDefSet()
}

// ReachingDefinitions computes, for every control node reachable from
// comp's control (already numbered via NumberControl), the set of
// assignment-sites whose write may still be live when that node
// starts executing. A dynamic group's own assignments are treated as
// a single definition site keyed by the group's Enable node, since all
// of a group's assignments become active and inactive together.
func ReachingDefinitions(comp *ir.Component) *ReachingDefs {
	rd := &ReachingDefs{In: make(map[int]DefSet)}
	w := &reachWalker{comp: comp, rd: rd}
	w.after(comp.Control, newDefSet())
	return rd
}

type reachWalker struct {
	comp *ir.Component
	rd   *ReachingDefs
}

// after computes the out-set of n given in (the definitions reaching
// its entry), recording in as n's In entry, and returns the out-set
// for the caller to thread forward.
func (w *reachWalker) after(n *ir.Control, in DefSet) DefSet {
	if n == nil {
		return in
	}
	w.rd.In[n.ID] = in

	switch n.Kind {
	case ir.CtrlEmpty:
		return in

	case ir.CtrlEnable, ir.CtrlStaticEnable:
		killed := w.portsWrittenByGroup(n.Group)
		out := in.kill(killed)
		for port := range killed {
			out[Def{NodeID: n.ID, Port: port}] = true
		}
		return out

	case ir.CtrlInvoke:
		killed := w.portsWrittenByInvoke(n)
		out := in.kill(killed)
		for port := range killed {
			out[Def{NodeID: n.ID, Port: port}] = true
		}
		return out

	case ir.CtrlSeq:
		cur := in
		for _, child := range n.Children {
			cur = w.after(child, cur)
		}
		return cur

	case ir.CtrlPar:
		total := newDefSet()
		for _, child := range n.Children {
			total = total.union(w.after(child, in))
		}
		return total

	case ir.CtrlIf:
		thenOut := w.after(n.Then, in)
		elseOut := in
		if n.Else != nil {
			elseOut = w.after(n.Else, in)
		}
		return thenOut.union(elseOut)

	case ir.CtrlWhile:
		pass1 := w.after(n.Body, in).union(in)
		pass2 := w.after(n.Body, pass1).union(in)
		return pass2

	case ir.CtrlRepeat:
		return w.after(n.Body, in)

	default:
		return in
	}
}

func (w *reachWalker) portsWrittenByGroup(name ident.ID) map[ir.CanonicalKey]bool {
	out := make(map[ir.CanonicalKey]bool)
	g := w.comp.Group(name)
	if g == nil {
		return out
	}
	for _, a := range g.Assignments {
		out[a.Dst.Canonical()] = true
	}
	return out
}

func (w *reachWalker) portsWrittenByInvoke(n *ir.Control) map[ir.CanonicalKey]bool {
	out := make(map[ir.CanonicalKey]bool)
	for _, b := range n.Outputs {
		out[b.Actual.Canonical()] = true
	}
	return out
}
