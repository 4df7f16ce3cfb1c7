// Package debug provides an observation and breakpoint surface over a
// running interp.Interpreter: active-group listing, cell/primitive
// state dumps, a control-node-to-path map for breakpoint resolution,
// and breakpoint/watchpoint registers consulted at cycle boundaries —
// the inspection counterpart to a running simulation, not a second
// execution engine.
package debug

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/calyxgo/analysis"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
)

// HookPosCycleConverged fires once per cycle, right after combinational
// convergence completes and before the edge advance.
var HookPosCycleConverged = &sim.HookPos{Name: "Cycle Converged"}

// HookPosCycleAdvanced fires once per cycle, after the edge advance and
// control-frame update have both run.
var HookPosCycleAdvanced = &sim.HookPos{Name: "Cycle Advanced"}

// HookPosGroupActive fires once per cycle for every group the control
// walk found current, between HookPosCycleConverged's two phases.
var HookPosGroupActive = &sim.HookPos{Name: "Group Active"}

// Inspector wraps a running *interp.Interpreter with the observation
// surface a debugger needs, mirroring the teacher's core.Port observer
// pattern (embedding *sim.HookableBase and calling InvokeHook at a
// fixed set of well-known positions) for the same "notify whoever is
// watching, without the interpreter itself knowing about debuggers"
// purpose.
type Inspector struct {
	*sim.HookableBase

	c    *ctx.Context
	comp *ir.Component
	it   *interp.Interpreter

	paths  map[*ir.Control]string
	byPath map[string]*ir.Control

	breakpoints map[string]bool
	watchpoints map[ir.CanonicalKey]bool
}

// NewInspector builds an Inspector over it, numbering comp's control
// tree with analysis.NumberControl and indexing it into human-readable
// paths up front.
func NewInspector(c *ctx.Context, comp *ir.Component, it *interp.Interpreter) *Inspector {
	insp := &Inspector{
		HookableBase: sim.NewHookableBase(),
		c:            c,
		comp:         comp,
		it:           it,
		paths:        make(map[*ir.Control]string),
		byPath:       make(map[string]*ir.Control),
		breakpoints:  make(map[string]bool),
		watchpoints:  make(map[ir.CanonicalKey]bool),
	}
	analysis.NumberControl(comp.Control)
	insp.indexPaths(comp.Control, "")
	return insp
}

// Break registers path (as listed by Paths) as a breakpoint: Step
// reports BreakHit when a group enabled at that path is active. Only
// Enable and StaticEnable paths can hit; a group enabled at several
// places is reported at the first of them in pre-order.
func (insp *Inspector) Break(path string) { insp.breakpoints[path] = true }

// Unbreak removes a previously registered breakpoint.
func (insp *Inspector) Unbreak(path string) { delete(insp.breakpoints, path) }

// Watch registers a "cell.port"-style name as a watchpoint; Step
// reports WatchHit entries for every watched port whose value changed
// this cycle.
func (insp *Inspector) Watch(cellName, portName ident.ID) {
	insp.watchpoints[ir.CanonicalKey{Parent: cellName, Name: portName}] = true
}

// Unwatch removes a previously registered watchpoint.
func (insp *Inspector) Unwatch(cellName, portName ident.ID) {
	delete(insp.watchpoints, ir.CanonicalKey{Parent: cellName, Name: portName})
}

// StepResult reports what happened during one Inspector-driven cycle.
type StepResult struct {
	Cycle        uint64
	ActiveGroups []string
	BreakHit     []string
	WatchHit     []WatchHit
}

// WatchHit is one watchpoint's value at the cycle it fired.
type WatchHit struct {
	Cell, Port string
	Value      interp.Value
}

// Step drives the wrapped Interpreter through exactly one cycle,
// firing HookPosGroupActive for each active group between the
// convergence and edge-advance phases (HookPosCycleConverged and
// HookPosCycleAdvanced respectively), and reports any breakpoints or
// watchpoints that fired.
func (insp *Inspector) Step() (StepResult, *diag.Diagnostic) {
	res := StepResult{Cycle: insp.it.Cycle()}

	before := insp.watchSnapshot()

	activeIDs, derr := insp.it.StepConverge()
	if derr != nil {
		return res, derr
	}
	insp.InvokeHook(sim.HookCtx{Domain: insp, Pos: HookPosCycleConverged, Item: activeIDs})

	for _, g := range activeIDs {
		name := insp.c.Interner.Name(g)
		res.ActiveGroups = append(res.ActiveGroups, name)
		insp.InvokeHook(sim.HookCtx{Domain: insp, Pos: HookPosGroupActive, Item: name})
		if path, ok := insp.pathForGroup(g); ok && insp.breakpoints[path] {
			res.BreakHit = append(res.BreakHit, path)
		}
	}

	insp.it.StepFinish()
	insp.InvokeHook(sim.HookCtx{Domain: insp, Pos: HookPosCycleAdvanced, Item: insp.it.Cycle()})

	res.WatchHit = insp.watchDiff(before)
	return res, nil
}

func (insp *Inspector) watchSnapshot() map[ir.CanonicalKey]interp.Value {
	snap := make(map[ir.CanonicalKey]interp.Value, len(insp.watchpoints))
	for key := range insp.watchpoints {
		snap[key] = insp.it.Get(key.Parent, key.Name)
	}
	return snap
}

func (insp *Inspector) watchDiff(before map[ir.CanonicalKey]interp.Value) []WatchHit {
	var hits []WatchHit
	for key := range insp.watchpoints {
		now := insp.it.Get(key.Parent, key.Name)
		prev := before[key]
		if prev.Defined != now.Defined || prev.Bits != now.Bits {
			hits = append(hits, WatchHit{
				Cell:  insp.c.Interner.Name(key.Parent),
				Port:  insp.c.Interner.Name(key.Name),
				Value: now,
			})
		}
	}
	return hits
}

// pathForGroup finds a leaf control node enabling group and returns its
// path; ResolvePath's inverse for hook/breakpoint reporting, which
// speaks in group names rather than raw *ir.Control pointers.
func (insp *Inspector) pathForGroup(group ident.ID) (string, bool) {
	var found string
	var ok bool
	ir.Walk(insp.comp.Control, func(n *ir.Control) bool {
		if (n.Kind == ir.CtrlEnable || n.Kind == ir.CtrlStaticEnable) && n.Group == group {
			found, ok = insp.paths[n], true
			return false
		}
		return true
	})
	return found, ok
}

func (insp *Inspector) indexPaths(n *ir.Control, path string) {
	if n == nil {
		return
	}
	insp.paths[n] = path
	insp.byPath[path] = n

	switch n.Kind {
	case ir.CtrlSeq:
		for i, c := range n.Children {
			insp.indexPaths(c, fmt.Sprintf("%s/seq.%d", path, i))
		}
	case ir.CtrlPar:
		for i, c := range n.Children {
			insp.indexPaths(c, fmt.Sprintf("%s/par.%d", path, i))
		}
	case ir.CtrlIf:
		insp.indexPaths(n.Then, path+"/if.then")
		if n.Else != nil {
			insp.indexPaths(n.Else, path+"/if.else")
		}
	case ir.CtrlWhile:
		insp.indexPaths(n.Body, path+"/while.body")
	case ir.CtrlRepeat:
		insp.indexPaths(n.Body, path+"/repeat.body")
	}
}

// ResolvePath resolves a human-readable control path (as produced
// internally and surfaced by Paths) back to its control node, reporting
// ok == false for an unknown path — the breakpoint-setting half of the
// id-to-path map §4.6 describes, matching
// interp/src/debugger/debugging_context/context.rs's path resolution.
func (insp *Inspector) ResolvePath(path string) (*ir.Control, bool) {
	n, ok := insp.byPath[path]
	return n, ok
}

// Paths returns every control node's path, keyed by the node's ID
// (assigned by the numbering analysis, which NewInspector runs).
func (insp *Inspector) Paths() map[int]string {
	out := make(map[int]string, len(insp.paths))
	for n, p := range insp.paths {
		out[n.ID] = p
	}
	return out
}
