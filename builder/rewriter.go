package builder

import (
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// Rewriter combines a cell-renaming map, a port-renaming map, and a
// group-renaming map. It is the only construct that edits port
// references in place: any port whose canonical name matches is
// substituted; any cell parent whose name matches is substituted;
// holes route through the group map. Rewrites must be applied after
// all target cells/groups have been added, never interleaved with
// construction.
type Rewriter struct {
	Cells  map[ident.ID]ident.ID
	Groups map[ident.ID]ident.ID
	Ports  map[ir.CanonicalKey]*ir.Port
}

// NewRewriter returns an empty Rewriter ready to have its maps
// populated.
func NewRewriter() *Rewriter {
	return &Rewriter{
		Cells:  make(map[ident.ID]ident.ID),
		Groups: make(map[ident.ID]ident.ID),
		Ports:  make(map[ir.CanonicalKey]*ir.Port),
	}
}

// MapCell records that references to oldName should become newName.
func (r *Rewriter) MapCell(oldName, newName ident.ID) { r.Cells[oldName] = newName }

// MapGroup records that references to oldName should become newName.
func (r *Rewriter) MapGroup(oldName, newName ident.ID) { r.Groups[oldName] = newName }

// MapPort records that references to the old port should become
// newPort. old is any *ir.Port sharing the canonical identity being
// retired; newPort is the live replacement.
func (r *Rewriter) MapPort(old *ir.Port, newPort *ir.Port) {
	r.Ports[old.Canonical()] = newPort
}

// RewritePort returns the live replacement for p, or p unchanged if no
// mapping applies.
func (r *Rewriter) RewritePort(p *ir.Port) *ir.Port {
	if p == nil {
		return nil
	}
	if repl, ok := r.Ports[p.Canonical()]; ok {
		return repl
	}
	return p
}

// RewriteCellName returns the replacement for a cell name, or the name
// unchanged if no mapping applies.
func (r *Rewriter) RewriteCellName(id ident.ID) ident.ID {
	if nn, ok := r.Cells[id]; ok {
		return nn
	}
	return id
}

// RewriteGroupName returns the replacement for a group name, or the
// name unchanged if no mapping applies.
func (r *Rewriter) RewriteGroupName(id ident.ID) ident.ID {
	if nn, ok := r.Groups[id]; ok {
		return nn
	}
	return id
}

// RewriteGuard returns a guard tree with every port leaf substituted
// per the port map, sharing structure with g wherever nothing changed.
func (r *Rewriter) RewriteGuard(g *ir.Guard) *ir.Guard {
	if g == nil {
		return nil
	}
	switch g.Op {
	case ir.GuardPort:
		np := r.RewritePort(g.Leaf)
		if np == g.Leaf {
			return g
		}
		ng := *g
		ng.Leaf = np
		return &ng

	case ir.GuardNot:
		nc := r.RewriteGuard(g.Children[0])
		if nc == g.Children[0] {
			return g
		}
		return &ir.Guard{Op: g.Op, Children: []*ir.Guard{nc}}

	case ir.GuardAnd, ir.GuardOr:
		changed := false
		newChildren := make([]*ir.Guard, len(g.Children))
		for i, c := range g.Children {
			nc := r.RewriteGuard(c)
			newChildren[i] = nc
			if nc != c {
				changed = true
			}
		}
		if !changed {
			return g
		}
		ng := *g
		ng.Children = newChildren
		return &ng

	case ir.GuardEq, ir.GuardNeq, ir.GuardLt, ir.GuardLe, ir.GuardGt, ir.GuardGe:
		nl := r.RewritePort(g.Left)
		nr := r.RewritePort(g.Right)
		if nl == g.Left && nr == g.Right {
			return g
		}
		ng := *g
		ng.Left, ng.Right = nl, nr
		return &ng

	default:
		return g
	}
}

// RewriteAssignment returns a copy of a with every port reference and
// its guard rewritten, or a itself if nothing changed.
func (r *Rewriter) RewriteAssignment(a *ir.Assignment) *ir.Assignment {
	newDst := r.RewritePort(a.Dst)
	newSrc := r.RewritePort(a.Src)
	newGuard := r.RewriteGuard(a.Guard)
	if newDst == a.Dst && newSrc == a.Src && newGuard == a.Guard {
		return a
	}
	out := *a
	out.Dst, out.Src, out.Guard = newDst, newSrc, newGuard
	return &out
}

func (r *Rewriter) rewriteBindings(bs []ir.PortBinding) []ir.PortBinding {
	out := make([]ir.PortBinding, len(bs))
	for i, b := range bs {
		out[i] = ir.PortBinding{Formal: b.Formal, Actual: r.RewritePort(b.Actual)}
	}
	return out
}

// RewriteControl returns a control tree with every cell/group/port
// reference rewritten, cloning only the nodes on the path to a change.
func (r *Rewriter) RewriteControl(c *ir.Control) *ir.Control {
	if c == nil {
		return nil
	}

	switch c.Kind {
	case ir.CtrlEmpty:
		return c

	case ir.CtrlEnable, ir.CtrlStaticEnable:
		out := *c
		out.Group = r.RewriteGroupName(c.Group)
		return &out

	case ir.CtrlInvoke:
		out := *c
		out.Cell = r.RewriteCellName(c.Cell)
		out.Inputs = r.rewriteBindings(c.Inputs)
		out.Outputs = r.rewriteBindings(c.Outputs)
		if c.HasCombGroup {
			out.CombGroup = r.RewriteGroupName(c.CombGroup)
		}
		return &out

	case ir.CtrlSeq, ir.CtrlPar:
		out := *c
		out.Children = make([]*ir.Control, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = r.RewriteControl(ch)
		}
		return &out

	case ir.CtrlIf:
		out := *c
		out.Port = r.RewritePort(c.Port)
		if c.HasCondCombGroup {
			out.CondCombGroup = r.RewriteGroupName(c.CondCombGroup)
		}
		out.Then = r.RewriteControl(c.Then)
		out.Else = r.RewriteControl(c.Else)
		return &out

	case ir.CtrlWhile:
		out := *c
		out.Port = r.RewritePort(c.Port)
		if c.HasCondCombGroup {
			out.CondCombGroup = r.RewriteGroupName(c.CondCombGroup)
		}
		out.Body = r.RewriteControl(c.Body)
		return &out

	case ir.CtrlRepeat:
		out := *c
		out.Body = r.RewriteControl(c.Body)
		return &out

	default:
		return c
	}
}

// RewriteComponent applies r to every assignment (group-local and
// continuous) and to the control tree of comp in place.
func (r *Rewriter) RewriteComponent(comp *ir.Component) {
	comp.ForEachAssignment(func(a *ir.Assignment) *ir.Assignment {
		return r.RewriteAssignment(a)
	})
	comp.Control = r.RewriteControl(comp.Control)
}
