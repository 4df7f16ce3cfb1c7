package interp

import (
	"fmt"

	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/interp/race"
	"github.com/sarchlab/calyxgo/ir"
)

// checkRaces consults it.Race, if set, over every group the control
// walk found active this cycle: it ticks each distinct thread's clock
// once, then checks every stateful-port access each thread's active
// groups perform against the detector, reporting the first race found
// as a KindClockRace diagnostic. A no-op when it.Race is nil, so a
// caller that never enables race detection pays no cost for it.
func (it *Interpreter) checkRaces(as *activeSet) *diag.Diagnostic {
	if it.Race == nil {
		return nil
	}

	threads := make(map[race.ThreadID]bool)
	for _, t := range as.threadOf {
		threads[t] = true
	}
	for t := range threads {
		it.Race.Tick(t)
	}

	for name := range as.dynGroups {
		if derr := it.checkGroupRaces(it.Comp.Group(name), as.threadOf[name]); derr != nil {
			return derr
		}
	}
	for name := range as.staticGroups {
		if derr := it.checkGroupRaces(it.Comp.Group(name), as.threadOf[name]); derr != nil {
			return derr
		}
	}
	return nil
}

// checkGroupRaces checks every stateful-port access g's assignments
// perform, attributed to thread. A group outside any Par branch
// (thread == "") is never raced: there is nothing else it could race
// against.
func (it *Interpreter) checkGroupRaces(g *ir.Group, thread race.ThreadID) *diag.Diagnostic {
	if g == nil || thread == "" {
		return nil
	}
	for _, a := range g.Assignments {
		if it.isStateful(a.Dst) {
			if r := it.Race.RecordWrite(thread, a.Dst.Canonical()); r != nil {
				return diag.New(diag.KindClockRace, it.describeRace(r))
			}
		}
		if it.isStateful(a.Src) {
			if r := it.Race.RecordRead(thread, a.Src.Canonical()); r != nil {
				return diag.New(diag.KindClockRace, it.describeRace(r))
			}
		}
	}
	return nil
}

// describeRace renders r using the component's interner, since
// race.Race itself only carries raw ir.CanonicalKey/ThreadID values and
// has no name table to render them against.
func (it *Interpreter) describeRace(r *race.Race) string {
	cellName := it.Ctx.Interner.Name(r.Location.Parent)
	portName := it.Ctx.Interner.Name(r.Location.Name)
	return fmt.Sprintf("%s on %s.%s (thread %q)", r.Kind, cellName, portName, r.Thread)
}

// isStateful reports whether p belongs to a cell whose primitive
// persists state across cycles (a Register, a memory, a nested
// component) rather than a purely combinational one or a group hole.
func (it *Interpreter) isStateful(p *ir.Port) bool {
	if p.Parent.Kind != ir.ParentCell {
		return false
	}
	prim, ok := it.prims[p.Parent.Name]
	return ok && prim.SerializesState()
}
