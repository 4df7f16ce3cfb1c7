package analysis

import "github.com/sarchlab/calyxgo/ir"

// Dominators is the result of DominatorMap: for every control node, the
// set of node ids that dominate it (every control path from the root
// to that node passes through each of them), including the node
// itself. Because the control tree has no cycles at the control-flow
// level visible to this analysis (While's body dominates itself across
// iterations trivially, since there is exactly one body subtree),
// domination reduces to ancestry in the tree plus the ordering Seq
// imposes among siblings.
type Dominators struct {
	Dom map[int]map[int]bool
}

// Of returns the set of node ids dominating nodeID, or nil if the node
// was never visited.
func (d *Dominators) Of(nodeID int) map[int]bool {
	return d.Dom[nodeID]
}

// StrictlyDominates reports whether a strictly dominates b (a
// dominates b and a != b).
func (d *Dominators) StrictlyDominates(a, b int) bool {
	if a == b {
		return false
	}
	return d.Dom[b][a]
}

// DominatorMap computes the dominator set of every control node
// reachable from comp's control (already numbered via NumberControl).
func DominatorMap(root *ir.Control) *Dominators {
	dm := &Dominators{Dom: make(map[int]map[int]bool)}
	w := &domWalker{dm: dm}
	w.visit(root, nil)
	return dm
}

type domWalker struct {
	dm *Dominators
}

// visit records node's dominator set as ancestors ∪ {node.ID} and
// recurses into children, extending ancestors with node.ID. Seq
// children additionally dominate every later sibling (a later
// statement in sequence cannot run without the earlier one having
// run), so Seq threads a growing ancestor set through its children
// rather than handing each the same set.
func (w *domWalker) visit(n *ir.Control, ancestors []int) {
	if n == nil {
		return
	}

	mine := make(map[int]bool, len(ancestors)+1)
	for _, a := range ancestors {
		mine[a] = true
	}
	mine[n.ID] = true
	w.dm.Dom[n.ID] = mine

	extended := append(append([]int{}, ancestors...), n.ID)

	switch n.Kind {
	case ir.CtrlSeq:
		chain := extended
		for _, child := range n.Children {
			w.visit(child, chain)
			chain = append(chain, child.ID)
		}

	case ir.CtrlPar:
		for _, child := range n.Children {
			w.visit(child, extended)
		}

	case ir.CtrlIf:
		w.visit(n.Then, extended)
		w.visit(n.Else, extended)

	case ir.CtrlWhile, ir.CtrlRepeat:
		w.visit(n.Body, extended)
	}
}
