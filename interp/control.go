package interp

import (
	"fmt"

	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp/race"
	"github.com/sarchlab/calyxgo/ir"
)

// activeSet is the set of groups and invokes the control walk found
// current for one cycle, computed before convergence so the cycle's
// assignment pool is known up front.
type activeSet struct {
	dynGroups    map[ident.ID]bool
	staticGroups map[ident.ID]bool
	combGroups   map[ident.ID]bool
	invokes      []*ir.Control

	// threadOf tags every active group/comb-group with the race
	// thread it runs under: "" for anything not inside a Par branch,
	// else a path identifying which branch. Only populated when an
	// Interpreter's Race detector is non-nil; convergence consults it
	// to attribute reads/writes to the right thread.
	threadOf map[ident.ID]race.ThreadID
}

// nodeFrame is the persistent, per-control-node walk state that
// survives across cycles: which Seq child is current, which Par
// children have finished, an If's chosen branch, a While's running
// flag, a Repeat's iteration count.
type nodeFrame struct {
	seqIndex int
	parDone  []bool

	ifBranchChosen bool
	ifThen         bool

	running bool

	repeatCount uint64
}

func (it *Interpreter) frame(n *ir.Control) *nodeFrame {
	f, ok := it.frames[n]
	if !ok {
		f = &nodeFrame{}
		it.frames[n] = f
	}
	return f
}

func (it *Interpreter) computeActiveSet() *activeSet {
	as := &activeSet{
		dynGroups:    make(map[ident.ID]bool),
		staticGroups: make(map[ident.ID]bool),
		combGroups:   make(map[ident.ID]bool),
		threadOf:     make(map[ident.ID]race.ThreadID),
	}
	it.walkActiveThread(it.Comp.Control, as, "")
	return as
}

// walkActiveThread marks every group and invoke current as of this
// cycle, given the persisted frame state left by the previous cycle's
// advanceNode, tagged with the race.ThreadID of whichever Par branch
// n is nested under ("" outside any Par) via as.threadOf. It never
// mutates frame state itself — only advanceNode, run after
// convergence, does that — so the two stay in lockstep: the branch
// chosen for an If/While is exactly the choice advanceNode made when
// the condition last settled.
func (it *Interpreter) walkActiveThread(n *ir.Control, as *activeSet, thread race.ThreadID) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ir.CtrlEmpty:
		// Instantaneously done; nothing to activate.

	case ir.CtrlEnable:
		as.dynGroups[n.Group] = true
		as.threadOf[n.Group] = thread

	case ir.CtrlStaticEnable:
		as.staticGroups[n.Group] = true
		as.threadOf[n.Group] = thread

	case ir.CtrlInvoke:
		as.invokes = append(as.invokes, n)
		if n.HasCombGroup {
			as.combGroups[n.CombGroup] = true
			as.threadOf[n.CombGroup] = thread
		}

	case ir.CtrlSeq:
		f := it.frame(n)
		if f.seqIndex < len(n.Children) {
			it.walkActiveThread(n.Children[f.seqIndex], as, thread)
		}

	case ir.CtrlPar:
		f := it.frame(n)
		if f.parDone == nil {
			f.parDone = make([]bool, len(n.Children))
		}
		for i, c := range n.Children {
			if !f.parDone[i] {
				branch := race.ThreadID(fmt.Sprintf("%s/%p.%d", thread, n, i))
				it.walkActiveThread(c, as, branch)
			}
		}

	case ir.CtrlIf:
		if n.HasCondCombGroup {
			as.combGroups[n.CondCombGroup] = true
			as.threadOf[n.CondCombGroup] = thread
		}
		f := it.frame(n)
		if !f.ifBranchChosen {
			break // still sampling the condition this cycle
		}
		if f.ifThen {
			it.walkActiveThread(n.Then, as, thread)
		} else {
			it.walkActiveThread(n.Else, as, thread)
		}

	case ir.CtrlWhile:
		if n.HasCondCombGroup {
			as.combGroups[n.CondCombGroup] = true
			as.threadOf[n.CondCombGroup] = thread
		}
		f := it.frame(n)
		if f.running {
			it.walkActiveThread(n.Body, as, thread)
		}

	case ir.CtrlRepeat:
		f := it.frame(n)
		if f.repeatCount < n.NumRepeats {
			it.walkActiveThread(n.Body, as, thread)
		}
	}
}

// advanceNode runs after convergence, using freshly settled port
// values to update persisted frame state and report whether n has
// finished as of this cycle.
func (it *Interpreter) advanceNode(n *ir.Control) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case ir.CtrlEmpty:
		return true

	case ir.CtrlEnable:
		g := it.Comp.Group(n.Group)
		return it.values[g.DonePort.Canonical()].Truthy()

	case ir.CtrlStaticEnable:
		g := it.Comp.Group(n.Group)
		cyc := it.groupCycle[n.Group] + 1
		done := cyc >= g.Latency
		if done {
			cyc = 0
		}
		it.groupCycle[n.Group] = cyc
		return done

	case ir.CtrlInvoke:
		cell := it.Comp.Cell(n.Cell)
		donePort := cell.Port(it.Ctx.Interner.Intern("done"))
		return it.values[donePort.Canonical()].Truthy()

	case ir.CtrlSeq:
		f := it.frame(n)
		if f.seqIndex >= len(n.Children) {
			f.seqIndex = 0
			return true
		}
		if it.advanceNode(n.Children[f.seqIndex]) {
			f.seqIndex++
		}
		if f.seqIndex >= len(n.Children) {
			f.seqIndex = 0
			return true
		}
		return false

	case ir.CtrlPar:
		f := it.frame(n)
		if f.parDone == nil {
			f.parDone = make([]bool, len(n.Children))
		}
		all := true
		for i, c := range n.Children {
			if f.parDone[i] {
				continue
			}
			if it.advanceNode(c) {
				f.parDone[i] = true
			} else {
				all = false
			}
		}
		if all {
			f.parDone = nil
		}
		return all

	case ir.CtrlIf:
		f := it.frame(n)
		if !f.ifBranchChosen {
			cond := it.evalPort(n.Port)
			f.ifThen = cond.Truthy()
			if !f.ifThen && n.Else == nil {
				return true
			}
			f.ifBranchChosen = true
			return false
		}
		branch := n.Else
		if f.ifThen {
			branch = n.Then
		}
		if it.advanceNode(branch) {
			f.ifBranchChosen = false
			return true
		}
		return false

	case ir.CtrlWhile:
		f := it.frame(n)
		if !f.running {
			cond := it.evalPort(n.Port)
			if cond.Truthy() {
				f.running = true
			}
			return !cond.Truthy()
		}
		if it.advanceNode(n.Body) {
			f.running = false
		}
		return false

	case ir.CtrlRepeat:
		f := it.frame(n)
		if f.repeatCount >= n.NumRepeats {
			f.repeatCount = 0
			return true
		}
		if it.advanceNode(n.Body) {
			f.repeatCount++
		}
		if f.repeatCount >= n.NumRepeats {
			f.repeatCount = 0
			return true
		}
		return false
	}
	return true
}
