package analysis

import (
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// ScheduleConflictGraph records which pairs of cells are ever active
// on overlapping cycles inside a static schedule, by cell name. Cell
// sharing must never assign the same physical cell instance to two
// nodes connected by an edge here.
type ScheduleConflictGraph struct {
	Edges map[ident.ID]map[ident.ID]bool
}

func newConflictGraph() *ScheduleConflictGraph {
	return &ScheduleConflictGraph{Edges: make(map[ident.ID]map[ident.ID]bool)}
}

func (g *ScheduleConflictGraph) add(a, b ident.ID) {
	if a == b {
		return
	}
	if g.Edges[a] == nil {
		g.Edges[a] = make(map[ident.ID]bool)
	}
	if g.Edges[b] == nil {
		g.Edges[b] = make(map[ident.ID]bool)
	}
	g.Edges[a][b] = true
	g.Edges[b][a] = true
}

// Conflicts reports whether a and b were ever found active on
// overlapping cycles.
func (g *ScheduleConflictGraph) Conflicts(a, b ident.ID) bool {
	return g.Edges[a][b]
}

// interval is a half-open cycle range [Lo, Hi) during which a cell is
// active within a static schedule.
type interval struct {
	cell   ident.ID
	lo, hi uint64
}

func overlaps(a, b interval) bool {
	return a.lo < b.hi && b.lo < a.hi
}

// StaticParTiming computes the ScheduleConflictGraph for a Par node
// whose children are all statically timed (every child's subtree
// consists only of static groups/enables/par/seq/repeat with known
// latency), offsetting each arm's cell-active intervals against the
// arm's own start-at-0 origin. latencyOf supplies the already-inferred
// static latency of a named group.
func StaticParTiming(comp *ir.Component, par *ir.Control, latencyOf func(ident.ID) (uint64, bool)) *ScheduleConflictGraph {
	g := newConflictGraph()
	if par == nil || par.Kind != ir.CtrlPar {
		return g
	}

	var allIntervals []interval
	for _, arm := range par.Children {
		allIntervals = append(allIntervals, intervalsOf(comp, arm, 0, latencyOf)...)
	}

	for i := 0; i < len(allIntervals); i++ {
		for j := i + 1; j < len(allIntervals); j++ {
			if overlaps(allIntervals[i], allIntervals[j]) {
				g.add(allIntervals[i].cell, allIntervals[j].cell)
			}
		}
	}
	return g
}

// intervalsOf walks a statically-timed subtree and returns the
// per-cell active intervals it contains, each offset by start (the
// cycle at which this subtree begins relative to its enclosing Par).
func intervalsOf(comp *ir.Component, n *ir.Control, start uint64, latencyOf func(ident.ID) (uint64, bool)) []interval {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case ir.CtrlStaticEnable:
		lat, ok := latencyOf(n.Group)
		if !ok {
			return nil
		}
		return cellIntervals(comp, n.Group, start, start+lat)

	case ir.CtrlSeq:
		var out []interval
		cur := start
		for _, child := range n.Children {
			out = append(out, intervalsOf(comp, child, cur, latencyOf)...)
			cur += staticDuration(child, latencyOf)
		}
		return out

	case ir.CtrlPar:
		var out []interval
		for _, child := range n.Children {
			out = append(out, intervalsOf(comp, child, start, latencyOf)...)
		}
		return out

	case ir.CtrlRepeat:
		var out []interval
		bodyDur := staticDuration(n.Body, latencyOf)
		for i := uint64(0); i < n.NumRepeats; i++ {
			out = append(out, intervalsOf(comp, n.Body, start+i*bodyDur, latencyOf)...)
		}
		return out

	default:
		return nil
	}
}

// staticDuration returns the statically-known cycle count of n, 0 if
// unknown (well-formedness rejects dynamic/unknown-latency constructs
// inside a static Par arm before this analysis is ever invoked).
func staticDuration(n *ir.Control, latencyOf func(ident.ID) (uint64, bool)) uint64 {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case ir.CtrlStaticEnable:
		lat, _ := latencyOf(n.Group)
		return lat
	case ir.CtrlSeq:
		var total uint64
		for _, c := range n.Children {
			total += staticDuration(c, latencyOf)
		}
		return total
	case ir.CtrlPar:
		var max uint64
		for _, c := range n.Children {
			if d := staticDuration(c, latencyOf); d > max {
				max = d
			}
		}
		return max
	case ir.CtrlRepeat:
		return n.NumRepeats * staticDuration(n.Body, latencyOf)
	default:
		return 0
	}
}

func cellIntervals(comp *ir.Component, groupName ident.ID, lo, hi uint64) []interval {
	g := comp.Group(groupName)
	if g == nil {
		return nil
	}
	seen := make(map[ident.ID]bool)
	var out []interval
	for _, a := range g.Assignments {
		for _, p := range []*ir.Port{a.Dst, a.Src} {
			if p.Parent.Kind != ir.ParentCell {
				continue
			}
			if seen[p.Parent.Name] {
				continue
			}
			seen[p.Parent.Name] = true
			out = append(out, interval{cell: p.Parent.Name, lo: lo, hi: hi})
		}
	}
	return out
}
