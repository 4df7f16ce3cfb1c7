package analysis

import (
	"github.com/sarchlab/calyxgo/attr"
	"github.com/sarchlab/calyxgo/ir"
)

// InferStaticLatency computes the fixed cycle count of n if every
// construct it contains has one, returning (latency, true); returns
// (0, false) the moment it encounters a dynamic Enable, an If whose
// branches aren't both statically timed, a While, or any other construct
// without a closed-form cycle count. Static latency is additive across
// Seq, the max across Par arms and If branches, and multiplicative
// across Repeat.
// Results are not cached; callers that need repeated queries should
// memoize by node id themselves.
func InferStaticLatency(comp *ir.Component, n *ir.Control) (uint64, bool) {
	if n == nil {
		return 0, true
	}

	switch n.Kind {
	case ir.CtrlEmpty:
		return 0, true

	case ir.CtrlStaticEnable:
		g := comp.Group(n.Group)
		if g == nil {
			return 0, false
		}
		return g.Latency, true

	case ir.CtrlEnable:
		g := comp.Group(n.Group)
		if g != nil {
			if lat, ok := g.Attrs.Get(attr.Static); ok {
				return lat, true
			}
		}
		return 0, false

	case ir.CtrlInvoke:
		cell := comp.Cell(n.Cell)
		if cell == nil {
			return 0, false
		}
		if cell.Proto.Kind == ir.ProtoPrimitive && cell.Proto.Latency != nil {
			return *cell.Proto.Latency, true
		}
		return 0, false

	case ir.CtrlSeq:
		var total uint64
		for _, child := range n.Children {
			lat, ok := InferStaticLatency(comp, child)
			if !ok {
				return 0, false
			}
			total += lat
		}
		return total, true

	case ir.CtrlPar:
		var max uint64
		for _, child := range n.Children {
			lat, ok := InferStaticLatency(comp, child)
			if !ok {
				return 0, false
			}
			if lat > max {
				max = lat
			}
		}
		return max, true

	case ir.CtrlIf:
		thenLat, ok := InferStaticLatency(comp, n.Then)
		if !ok {
			return 0, false
		}
		var elseLat uint64
		if n.Else != nil {
			elseLat, ok = InferStaticLatency(comp, n.Else)
			if !ok {
				return 0, false
			}
		}
		if elseLat > thenLat {
			return elseLat, true
		}
		return thenLat, true

	case ir.CtrlWhile:
		return 0, false

	case ir.CtrlRepeat:
		bodyLat, ok := InferStaticLatency(comp, n.Body)
		if !ok {
			return 0, false
		}
		return n.NumRepeats * bodyLat, true

	default:
		return 0, false
	}
}
