package passes

import (
	"github.com/sarchlab/calyxgo/analysis"
	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
)

// ShareCells merges stateful cells that are never live at the same
// time and share the same prototype, reducing hardware area. It
// builds an interference graph from LiveRange (an edge between any
// two stateful cells ever live together, or ever of different
// prototypes), then greedily colors it: the first color is a
// representative cell, every other cell assigned that color is
// rewritten onto the representative and removed.
type ShareCells struct{}

// Name identifies the pass to the Runner.
func (ShareCells) Name() string { return "cell-share" }

// Run rewrites comp's stateful cell population in place.
func (ShareCells) Run(_ *ctx.Context, comp *ir.Component, opts pass.Options) *diag.Diagnostic {
	if opts.Bool("disable", false) {
		return nil
	}

	analysis.NumberControl(comp.Control)
	lr := analysis.LiveRange(comp)

	candidates := stateShareCandidates(comp, lr)
	if len(candidates) == 0 {
		return nil
	}

	graph := buildInterference(comp, lr, candidates)
	coloring := colorGraph(candidates, graph)

	rw := builder.NewRewriter()
	toRemove := make(map[ident.ID]bool)
	for member, rep := range coloring {
		if member == rep {
			continue
		}
		rw.MapCell(member, rep)
		memberCell := comp.Cell(member)
		repCell := comp.Cell(rep)
		if memberCell == nil || repCell == nil {
			continue
		}
		for _, p := range memberCell.Ports {
			if rp := repCell.Port(p.Name); rp != nil {
				rw.MapPort(p, rp)
			}
		}
		toRemove[member] = true
	}

	rw.RewriteComponent(comp)
	for name := range toRemove {
		comp.RemoveCell(name)
	}
	return nil
}

// stateShareCandidates returns the stateful cells eligible for
// sharing: not reference cells, and not always-live (a cell wired
// directly to a continuous assignment is active every cycle and has
// nothing to share with).
func stateShareCandidates(comp *ir.Component, lr *analysis.LiveRanges) []ident.ID {
	var out []ident.ID
	for _, cell := range comp.Cells {
		if !cell.IsStateful() || cell.Reference {
			continue
		}
		if lr.IsAlwaysLive(cell.Name) {
			continue
		}
		out = append(out, cell.Name)
	}
	return out
}

func buildInterference(comp *ir.Component, lr *analysis.LiveRanges, candidates []ident.ID) map[ident.ID]map[ident.ID]bool {
	in := make(map[ident.ID]bool, len(candidates))
	for _, c := range candidates {
		in[c] = true
	}

	graph := make(map[ident.ID]map[ident.ID]bool, len(candidates))
	for _, c := range candidates {
		graph[c] = make(map[ident.ID]bool)
	}
	addEdge := func(a, b ident.ID) {
		if a == b {
			return
		}
		graph[a][b] = true
		graph[b][a] = true
	}

	for _, set := range lr.ByNodeID {
		var live []ident.ID
		for name := range set.Stateful {
			if in[name] {
				live = append(live, name)
			}
		}
		for i := 0; i < len(live); i++ {
			for j := i + 1; j < len(live); j++ {
				addEdge(live[i], live[j])
			}
		}
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if !samePrototype(comp.Cell(candidates[i]), comp.Cell(candidates[j])) {
				addEdge(candidates[i], candidates[j])
			}
		}
	}

	return graph
}

func samePrototype(a, b *ir.Cell) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Proto.Kind != b.Proto.Kind {
		return false
	}
	switch a.Proto.Kind {
	case ir.ProtoPrimitive:
		if a.Proto.LibName != b.Proto.LibName {
			return false
		}
		if len(a.Proto.Params) != len(b.Proto.Params) {
			return false
		}
		for k, v := range a.Proto.Params {
			if b.Proto.Params[k] != v {
				return false
			}
		}
		return true
	case ir.ProtoComponent:
		return a.Proto.ComponentName == b.Proto.ComponentName
	default:
		return false
	}
}

// colorGraph assigns each candidate cell a representative cell name
// via greedy coloring: visiting candidates in a fixed order, each
// gets the first already-used color whose holder does not conflict,
// or becomes its own new color.
func colorGraph(candidates []ident.ID, graph map[ident.ID]map[ident.ID]bool) map[ident.ID]ident.ID {
	coloring := make(map[ident.ID]ident.ID)
	var representatives []ident.ID

	for _, cand := range candidates {
		assigned := false
		for _, rep := range representatives {
			if graph[cand][rep] {
				continue
			}
			conflict := false
			for member, color := range coloring {
				if color == rep && graph[cand][member] {
					conflict = true
					break
				}
			}
			if !conflict {
				coloring[cand] = rep
				assigned = true
				break
			}
		}
		if !assigned {
			coloring[cand] = cand
			representatives = append(representatives, cand)
		}
	}

	return coloring
}
