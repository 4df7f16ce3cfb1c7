// Package builder implements the sole sanctioned way to mutate a
// Component after parsing: structured insertion of cells, groups,
// assignments, and wires, plus the Rewriter used by every pass that
// replaces cells or groups.
package builder

import (
	"fmt"

	"github.com/sarchlab/calyxgo/attr"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// Builder inserts cells, groups, and assignments into one Component,
// resolving primitive/component instantiations against a Context's
// library and interner.
type Builder struct {
	Ctx  *ctx.Context
	Comp *ir.Component
}

// New creates a Builder targeting comp, resolving names against c.
func New(c *ctx.Context, comp *ir.Component) *Builder {
	return &Builder{Ctx: c, Comp: comp}
}

func (b *Builder) intern(name string) ident.ID {
	return b.Ctx.Interner.Intern(name)
}

func (b *Builder) nameTaken(name string) bool {
	id, ok := b.Ctx.Interner.Lookup(name)
	if !ok {
		return false
	}
	return b.Comp.Cell(id) != nil || b.Comp.Group(id) != nil
}

// AddPrimitive looks up libName in the Context's library and
// instantiates a fresh cell named name, with port widths evaluated
// against params.
func (b *Builder) AddPrimitive(name, libName string, params map[string]uint64) (*ir.Cell, *diag.Diagnostic) {
	if ident.IsReserved(name) {
		return nil, diag.Newf(diag.KindMalformed, "cell name %q is reserved", name)
	}
	if b.nameTaken(name) {
		return nil, diag.Newf(diag.KindMalformed, "name %q is already in use in component %q",
			name, b.Ctx.Interner.Name(b.Comp.Name))
	}

	sig, ok := b.Ctx.Library.Lookup(libName)
	if !ok {
		return nil, diag.Newf(diag.KindMalformed, "unknown primitive %q", libName)
	}

	for _, want := range sig.Params {
		if _, ok := params[want]; !ok {
			return nil, diag.Newf(diag.KindMalformed,
				"primitive %q requires parameter %q", libName, want)
		}
	}

	cellID := b.intern(name)
	cell := &ir.Cell{
		Name: cellID,
		Proto: ir.Prototype{
			Kind:    ir.ProtoPrimitive,
			LibName: b.intern(libName),
			Params:  params,
			IsComb:  sig.IsComb,
			Latency: sig.Latency,
		},
	}

	for _, portSig := range sig.Ports {
		width, err := ctx.ResolveWidth(portSig, params)
		if err != nil {
			return nil, diag.Newf(diag.KindMalformed,
				"primitive %q port %q: %v", libName, portSig.Name, err)
		}
		cell.Ports = append(cell.Ports, &ir.Port{
			Name:      b.intern(portSig.Name),
			Width:     width,
			Direction: parseDirection(portSig.Direction),
			Parent:    ir.ParentRef{Kind: ir.ParentCell, Name: cellID},
		})
	}

	b.Comp.AddCell(cell)
	return cell, nil
}

// AddComponent instantiates a sibling component by name, copying its
// signature's ports onto the new cell.
func (b *Builder) AddComponent(name, compName string) (*ir.Cell, *diag.Diagnostic) {
	if ident.IsReserved(name) {
		return nil, diag.Newf(diag.KindMalformed, "cell name %q is reserved", name)
	}
	if b.nameTaken(name) {
		return nil, diag.Newf(diag.KindMalformed, "name %q is already in use", name)
	}

	compID, ok := b.Ctx.Interner.Lookup(compName)
	if !ok {
		return nil, diag.Newf(diag.KindMalformed, "unknown component %q", compName)
	}
	target := b.Ctx.Component(compID)
	if target == nil {
		return nil, diag.Newf(diag.KindMalformed, "unknown component %q", compName)
	}

	cellID := b.intern(name)
	cell := &ir.Cell{
		Name: cellID,
		Proto: ir.Prototype{
			Kind:          ir.ProtoComponent,
			ComponentName: compID,
		},
	}
	for _, p := range target.Signature.Ports {
		cell.Ports = append(cell.Ports, &ir.Port{
			Name:      p.Name,
			Width:     p.Width,
			Direction: invertSignatureDirection(p.Direction),
			Parent:    ir.ParentRef{Kind: ir.ParentCell, Name: cellID},
		})
	}

	b.Comp.AddCell(cell)
	return cell, nil
}

// invertSignatureDirection maps a signature port's direction to the
// direction it presents on the instantiated cell. A signature Input is
// still written from outside the component once instantiated, so the
// direction a caller sees is identical to the one declared on the
// signature; no flip occurs. Kept as a named step, rather than
// inlined, because component inlining needs the identical mapping when
// splicing a callee's signature onto pass-through wires.
func invertSignatureDirection(d ir.Direction) ir.Direction {
	return d
}

// AddConstant returns (deduplicating) a zero-input cell whose single
// Output port carries the literal value, width bits wide.
func (b *Builder) AddConstant(value, width uint64) *ir.Cell {
	name := fmt.Sprintf("__const_%d_%d", value, width)
	if id, ok := b.Ctx.Interner.Lookup(name); ok {
		if existing := b.Comp.Cell(id); existing != nil {
			return existing
		}
	}

	cellID := b.intern(name)
	cell := &ir.Cell{
		Name: cellID,
		Proto: ir.Prototype{
			Kind:  ir.ProtoConstant,
			Value: value,
			Width: width,
		},
	}
	cell.Ports = []*ir.Port{{
		Name:      b.intern("out"),
		Width:     width,
		Direction: ir.Out,
		Parent:    ir.ParentRef{Kind: ir.ParentCell, Name: cellID},
	}}

	b.Comp.AddCell(cell)
	return cell
}

// AddGroup creates a dynamic group with go (Output) and done (Input)
// holes.
func (b *Builder) AddGroup(name string) (*ir.Group, *diag.Diagnostic) {
	if b.nameTaken(name) {
		return nil, diag.Newf(diag.KindMalformed, "name %q is already in use", name)
	}
	groupID := b.intern(name)
	g := &ir.Group{
		Name: groupID,
		Kind: ir.GroupDynamic,
		GoPort: &ir.Port{
			Name: b.intern("go"), Width: 1, Direction: ir.Out,
			Parent: ir.ParentRef{Kind: ir.ParentGroup, Name: groupID},
		},
		DonePort: &ir.Port{
			Name: b.intern("done"), Width: 1, Direction: ir.In,
			Parent: ir.ParentRef{Kind: ir.ParentGroup, Name: groupID},
		},
	}
	b.Comp.AddGroup(g)
	return g, nil
}

// AddStaticGroup creates a static group with the given fixed latency.
// A latency of 0 is rejected: a static group with no cycles to run in
// is malformed rather than a degenerate one-cycle group.
func (b *Builder) AddStaticGroup(name string, latency uint64) (*ir.Group, *diag.Diagnostic) {
	if latency == 0 {
		return nil, diag.New(diag.KindMalformed, "static group latency must be at least 1")
	}
	if b.nameTaken(name) {
		return nil, diag.Newf(diag.KindMalformed, "name %q is already in use", name)
	}
	groupID := b.intern(name)
	g := &ir.Group{Name: groupID, Kind: ir.GroupStatic, Latency: latency}
	b.Comp.AddGroup(g)
	return g, nil
}

// AddCombGroup creates a combinational group: no holes, no done.
func (b *Builder) AddCombGroup(name string) (*ir.Group, *diag.Diagnostic) {
	if b.nameTaken(name) {
		return nil, diag.Newf(diag.KindMalformed, "name %q is already in use", name)
	}
	groupID := b.intern(name)
	g := &ir.Group{Name: groupID, Kind: ir.GroupComb}
	b.Comp.AddGroup(g)
	return g, nil
}

// BuildAssignment asserts dst/src direction compatibility and appends a
// continuous assignment to the component. owner is nil: this
// assignment lives outside any single group, so hole ports are checked
// against their externally-visible (inverted) direction.
func (b *Builder) BuildAssignment(dst, src *ir.Port, guard *ir.Guard) (*ir.Assignment, *diag.Diagnostic) {
	a, diagErr := b.assign(nil, dst, src, guard)
	if diagErr != nil {
		return nil, diagErr
	}
	b.Comp.ContinuousAssignments = append(b.Comp.ContinuousAssignments, a)
	return a, nil
}

// BuildGroupAssignment is BuildAssignment for an assignment that is a
// member of group g: hole ports belonging to g itself are checked
// against their internally-stored direction (the group's own logic
// drives its done hole and reads its go hole), while holes belonging
// to any other group are still checked against the inverted,
// externally-visible direction.
func (b *Builder) BuildGroupAssignment(g *ir.Group, dst, src *ir.Port, guard *ir.Guard) (*ir.Assignment, *diag.Diagnostic) {
	a, diagErr := b.assign(g, dst, src, guard)
	if diagErr != nil {
		return nil, diagErr
	}
	a.Static = g.Kind == ir.GroupStatic
	g.Assignments = append(g.Assignments, a)
	return a, nil
}

func (b *Builder) assign(owner *ir.Group, dst, src *ir.Port, guard *ir.Guard) (*ir.Assignment, *diag.Diagnostic) {
	if guard == nil {
		guard = ir.True()
	}

	if !canWrite(effectiveDirection(dst, owner)) {
		return nil, diag.Newf(diag.KindMalformed,
			"assignment destination %s is not writable", portDebugName(b, dst))
	}
	if !canRead(effectiveDirection(src, owner)) {
		return nil, diag.Newf(diag.KindMalformed,
			"assignment source %s is not readable", portDebugName(b, src))
	}

	return &ir.Assignment{Dst: dst, Src: src, Guard: guard, Attrs: attr.Set{}}, nil
}

func portDebugName(b *Builder, p *ir.Port) string {
	return fmt.Sprintf("%s.%s", b.Ctx.Interner.Name(p.Parent.Name), b.Ctx.Interner.Name(p.Name))
}

// effectiveDirection returns the direction a port must present for the
// write/read check, accounting for the hole-inversion rule: a group
// hole driven by an assignment that is NOT a member of its own group
// (owner == nil or owner.Name != p.Parent.Name) is checked against the
// inverse of its stored Direction, since from outside a group the
// hole's role is reversed from its role inside the group's own body.
func effectiveDirection(p *ir.Port, owner *ir.Group) ir.Direction {
	if p.Parent.Kind != ir.ParentGroup {
		return p.Direction
	}
	if owner != nil && p.Parent.Name == owner.Name {
		return p.Direction
	}
	return invert(p.Direction)
}

func invert(d ir.Direction) ir.Direction {
	switch d {
	case ir.In:
		return ir.Out
	case ir.Out:
		return ir.In
	default:
		return d
	}
}

func canWrite(d ir.Direction) bool { return d == ir.In || d == ir.InOut }
func canRead(d ir.Direction) bool  { return d == ir.Out || d == ir.InOut }

func parseDirection(s string) ir.Direction {
	switch s {
	case "in":
		return ir.In
	case "out":
		return ir.Out
	case "inout":
		return ir.InOut
	default:
		return ir.In
	}
}
