// Package analysis implements read-only queries over a Component:
// control numbering, live-range, reaching definitions, dominators,
// static-par timing, and static-latency inference. Apart from
// NumberControl, which writes ids into the control nodes it visits,
// none of these mutate the Component they are given; they return a value computed
// from its current state, safe to call between passes or to recompute
// after a Rewriter edits the tree.
package analysis

import "github.com/sarchlab/calyxgo/ir"

// NumberControl assigns a unique integer to every control node reached
// from root, in deterministic pre-order. If nodes get both a "begin"
// id (Control.ID) and an "end" id (Control.EndID) that models the
// post-branch merge point; every other node's EndID is left at -1.
// Returns the number of ids allocated (one past the highest used).
func NumberControl(root *ir.Control) int {
	n := &numberer{}
	n.visit(root)
	return n.next
}

type numberer struct {
	next int
}

func (n *numberer) visit(c *ir.Control) {
	if c == nil {
		return
	}
	c.ID = n.next
	n.next++

	switch c.Kind {
	case ir.CtrlSeq, ir.CtrlPar:
		for _, child := range c.Children {
			n.visit(child)
		}
		c.EndID = -1
	case ir.CtrlIf:
		n.visit(c.Then)
		n.visit(c.Else)
		c.EndID = n.next
		n.next++
	case ir.CtrlWhile, ir.CtrlRepeat:
		n.visit(c.Body)
		c.EndID = -1
	default:
		c.EndID = -1
	}
}
