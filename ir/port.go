package ir

import "github.com/sarchlab/calyxgo/ident"

// Direction is a port's signal direction, from the outside view: writes
// target Inputs, reads source Outputs. Group holes invert this (a
// group's "go" is driven from outside, so it behaves like an Output
// from the group's own assignments' point of view but like an Input to
// callers — see Group.GoPort/DonePort).
type Direction int

const (
	// In is a port written by the outside world.
	In Direction = iota
	// Out is a port read by the outside world.
	Out
	// InOut is a bidirectional port (used by a handful of primitives,
	// e.g. tri-state bus wires); direction compatibility checks treat
	// it as satisfying either role.
	InOut
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	default:
		return "unknown"
	}
}

// ParentKind identifies whether a Port's weak back-reference points at
// a Cell or a Group.
type ParentKind int

const (
	// ParentNone marks a port with no resolvable parent yet (used
	// transiently while the builder assembles a fresh cell/group).
	ParentNone ParentKind = iota
	ParentCell
	ParentGroup
)

// ParentRef is a Port's weak, non-owning back-reference to its parent
// Cell or Group, resolved by name through the owning Component. It
// exists only for lookup; Ports do not keep their parent alive.
type ParentRef struct {
	Kind ParentKind
	Name ident.ID
}

// Port is a directional wire endpoint belonging to a Cell or Group.
type Port struct {
	Name      ident.ID
	Width     uint64
	Direction Direction
	Parent    ParentRef
	Attrs     Attrs
}

// CanonicalKey identifies a Port uniquely by (parent name, port name),
// independent of pointer identity — two distinct *Port values that
// share a CanonicalKey are considered equal.
type CanonicalKey struct {
	Parent ident.ID
	Name   ident.ID
}

// Canonical returns p's canonical key.
func (p *Port) Canonical() CanonicalKey {
	return CanonicalKey{Parent: p.Parent.Name, Name: p.Name}
}

// Equal reports whether p and other refer to the same (parent, name)
// pair, regardless of pointer identity.
func (p *Port) Equal(other *Port) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Canonical() == other.Canonical()
}

// readableAsSource reports whether p may appear as an assignment's src
// or a guard leaf from the outside view (the builder inverts this for
// group holes via effectiveDirection).
func (d Direction) readableAsSource() bool {
	return d == Out || d == InOut
}

func (d Direction) writableAsDest() bool {
	return d == In || d == InOut
}
