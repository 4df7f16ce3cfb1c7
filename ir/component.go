package ir

import "github.com/sarchlab/calyxgo/ident"

// Component holds a name, a signature, its cells and groups, continuous
// assignments, a control tree, an attribute set, and whether it is
// purely combinational.
type Component struct {
	Name      ident.ID
	Signature *Cell // the synthetic "this" cell; its ports are the interface.

	Cells  []*Cell
	Groups []*Group

	ContinuousAssignments []*Assignment

	Control *Control
	Attrs   Attrs
	IsComb  bool

	cellIndex  map[ident.ID]*Cell
	groupIndex map[ident.ID]*Group
}

// NewComponent creates an empty component with the given name and
// signature cell. The signature cell's prototype must be ProtoThis.
func NewComponent(name ident.ID, signature *Cell) *Component {
	return &Component{
		Name:       name,
		Signature:  signature,
		Control:    Empty(),
		cellIndex:  make(map[ident.ID]*Cell),
		groupIndex: make(map[ident.ID]*Group),
	}
}

// Cell looks up a cell by name, including the signature cell under its
// reserved name "this".
func (c *Component) Cell(name ident.ID) *Cell {
	if c.Signature != nil && c.Signature.Name == name {
		return c.Signature
	}
	return c.cellIndex[name]
}

// Group looks up a group by name.
func (c *Component) Group(name ident.ID) *Group {
	return c.groupIndex[name]
}

// AddCell registers a freshly constructed cell, indexing it by name.
// This is a low-level mutator; builder.Builder is the sanctioned
// caller for mutating a Component after parsing.
func (c *Component) AddCell(cell *Cell) {
	c.cellIndex[cell.Name] = cell
	c.Cells = append(c.Cells, cell)
}

// RemoveCell retires a cell. Callers must ensure, per the ownership
// invariant, that every assignment referring to it has already been
// rewritten or deleted — AddCell/RemoveCell do not themselves check
// this, the Rewriter does.
func (c *Component) RemoveCell(name ident.ID) {
	delete(c.cellIndex, name)
	for i, cell := range c.Cells {
		if cell.Name == name {
			c.Cells = append(c.Cells[:i], c.Cells[i+1:]...)
			return
		}
	}
}

// AddGroup registers a freshly constructed group.
func (c *Component) AddGroup(g *Group) {
	c.groupIndex[g.Name] = g
	c.Groups = append(c.Groups, g)
}

// RemoveGroup retires a group.
func (c *Component) RemoveGroup(name ident.ID) {
	delete(c.groupIndex, name)
	for i, g := range c.Groups {
		if g.Name == name {
			c.Groups = append(c.Groups[:i], c.Groups[i+1:]...)
			return
		}
	}
}

// DynamicGroups returns the component's dynamic groups, in declaration
// order.
func (c *Component) DynamicGroups() []*Group {
	return c.groupsOfKind(GroupDynamic)
}

// StaticGroups returns the component's static groups, in declaration
// order.
func (c *Component) StaticGroups() []*Group {
	return c.groupsOfKind(GroupStatic)
}

// CombGroups returns the component's combinational groups, in
// declaration order.
func (c *Component) CombGroups() []*Group {
	return c.groupsOfKind(GroupComb)
}

func (c *Component) groupsOfKind(k GroupKind) []*Group {
	var out []*Group
	for _, g := range c.Groups {
		if g.Kind == k {
			out = append(out, g)
		}
	}
	return out
}

// ResolvePort resolves a Port's weak ParentRef back to the owning
// Cell or Group's port list, returning the live *Port for that
// (parent, name) pair — which, after a rewrite, may differ from the
// *Port the caller started with. Returns nil if the parent is gone.
func (c *Component) ResolvePort(ref ParentRef, portName ident.ID) *Port {
	switch ref.Kind {
	case ParentCell:
		if cell := c.Cell(ref.Name); cell != nil {
			return cell.Port(portName)
		}
	case ParentGroup:
		if g := c.Group(ref.Name); g != nil {
			if g.GoPort != nil && g.GoPort.Name == portName {
				return g.GoPort
			}
			if g.DonePort != nil && g.DonePort.Name == portName {
				return g.DonePort
			}
		}
	}
	return nil
}

// ForEachAssignment visits every assignment — group-local (in
// declaration order, groups in declaration order) then continuous —
// exactly once. fn may return a replacement Assignment
// (typically the same pointer with its Dst/Src swapped by a Rewriter);
// returning nil leaves the assignment unchanged.
func (c *Component) ForEachAssignment(fn func(*Assignment) *Assignment) {
	for _, g := range c.Groups {
		for i, a := range g.Assignments {
			if repl := fn(a); repl != nil {
				g.Assignments[i] = repl
			}
		}
	}
	for i, a := range c.ContinuousAssignments {
		if repl := fn(a); repl != nil {
			c.ContinuousAssignments[i] = repl
		}
	}
}

// AllAssignments returns every assignment in the component (group-local
// then continuous), as a flat read-only slice.
func (c *Component) AllAssignments() []*Assignment {
	var out []*Assignment
	for _, g := range c.Groups {
		out = append(out, g.Assignments...)
	}
	out = append(out, c.ContinuousAssignments...)
	return out
}
