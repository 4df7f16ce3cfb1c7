package ir

import "github.com/sarchlab/calyxgo/ident"

// GroupKind tags a Group's flavor.
type GroupKind int

const (
	// GroupDynamic has go/done holes; completion is signaled by
	// writing its done hole.
	GroupDynamic GroupKind = iota
	// GroupStatic has an explicit fixed latency and no done hole.
	GroupStatic
	// GroupComb has neither hole; it is asserted whenever its
	// containing control position is active.
	GroupComb
)

// Group is a named collection of assignments realizing a multi-cycle
// (or, for GroupComb, single-cycle combinational) behavior.
type Group struct {
	Name        ident.ID
	Kind        GroupKind
	Assignments []*Assignment
	Attrs       Attrs

	// GoPort/DonePort are the group's holes, non-nil only for
	// GroupDynamic. The done hole is an Input from the group's own
	// assignments' point of view (it is written by one of them) and go
	// is an Output (it is read, driving cells inside the group); seen
	// from outside the group both directions invert, since the group
	// is driven and read rather than driving and reading.
	GoPort, DonePort *Port

	// Latency is the declared cycle count, meaningful only for
	// GroupStatic.
	Latency uint64
}

// DoneWriters returns every assignment in g that writes g's done hole.
// A well-formed dynamic group has exactly one.
func (g *Group) DoneWriters() []*Assignment {
	if g.DonePort == nil {
		return nil
	}
	var out []*Assignment
	for _, a := range g.Assignments {
		if a.Dst.Equal(g.DonePort) {
			out = append(out, a)
		}
	}
	return out
}
