package passes

import (
	"fmt"

	"github.com/sarchlab/calyxgo/attr"
	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
)

// CompileControl lowers an arbitrary control program into a single
// enabled group driven by an explicit state register, so the
// interpreter never needs a general control-stack walker once this
// pass has run — only the two-phase cycle model over one flat group.
//
// Every compound node (Seq, Par, If, While, Repeat) compiles to its
// own dedicated group with a private state register, recursively: a
// Seq becomes a state-per-child counter advancing on each child's
// done; a Par becomes a single state that holds every child's go
// asserted and waits for every child's done; an If becomes a
// condition read followed by a branch to one child's go; a While
// loops a body state back on itself while its condition holds; a
// Repeat is a counter that runs its one body group N times. This keeps
// every subtree's FSM local to that subtree rather than sharing one
// register across the whole component, which also gives Par's
// branches independent local state without needing to interleave
// their counters.
type CompileControl struct{}

// Name identifies the pass to the Runner.
func (CompileControl) Name() string { return "compile-control" }

// Run replaces comp.Control with a single Enable of a newly built
// top-level group.
func (CompileControl) Run(c *ctx.Context, comp *ir.Component, opts pass.Options) *diag.Diagnostic {
	if comp.Control == nil || comp.Control.Kind == ir.CtrlEmpty {
		return nil
	}
	if comp.Control.Kind == ir.CtrlEnable {
		return nil
	}

	b := builder.New(c, comp)
	lw := &lowerer{c: c, comp: comp, b: b, oneState: opts.Bool("one-state", false)}

	top, derr := lw.lower(comp.Control)
	if derr != nil {
		return derr
	}
	comp.Control = ir.Enable(top)
	return nil
}

type lowerer struct {
	c        *ctx.Context
	comp     *ir.Component
	b        *builder.Builder
	oneState bool
	counter  int
}

func (lw *lowerer) freshName(prefix string) string {
	lw.counter++
	return fmt.Sprintf("%s%d", prefix, lw.counter)
}

// lower returns the name of a dynamic group implementing n's
// semantics in full (its go starts it, its done signals completion).
// An Enable node needs no wrapper: its own group already has that
// contract.
func (lw *lowerer) lower(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	switch n.Kind {
	case ir.CtrlEmpty:
		return lw.lowerEmpty()
	case ir.CtrlEnable:
		return n.Group, nil
	case ir.CtrlStaticEnable:
		return lw.lowerStaticEnable(n)
	case ir.CtrlInvoke:
		return lw.lowerInvoke(n)
	case ir.CtrlSeq:
		return lw.lowerSeq(n)
	case ir.CtrlPar:
		return lw.lowerPar(n)
	case ir.CtrlIf:
		return lw.lowerIf(n)
	case ir.CtrlWhile:
		return lw.lowerWhile(n)
	case ir.CtrlRepeat:
		return lw.lowerRepeat(n)
	default:
		return ident.ID{}, diag.Newf(diag.KindUnsupported, "cannot lower control node of kind %s", n.Kind)
	}
}

// addRegister instantiates a state/counter register of the given
// width from the primitive library entry "std_reg", the register
// every lowered FSM state machine is built from.
func (lw *lowerer) addRegister(name string, width uint64) (*ir.Cell, *diag.Diagnostic) {
	return lw.b.AddPrimitive(name, "std_reg", map[string]uint64{"WIDTH": width})
}

func widthFor(states uint64) uint64 {
	w := uint64(1)
	for (uint64(1) << w) < states {
		w++
	}
	return w
}

// lowerEmpty returns a group that completes the cycle it starts.
func (lw *lowerer) lowerEmpty() (ident.ID, *diag.Diagnostic) {
	g, derr := lw.b.AddGroup(lw.freshName("empty_"))
	if derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, g.GoPort, nil); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}

// lowerStaticEnable wraps a static group in a counter that asserts the
// static group's members active (via its own go, reused as an
// activation signal) for Latency cycles, then signals done.
func (lw *lowerer) lowerStaticEnable(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	static := lw.comp.Group(n.Group)
	if static == nil {
		return ident.ID{}, diag.Newf(diag.KindMalformed, "enable of undefined static group %q", lw.c.Interner.Name(n.Group))
	}

	g, derr := lw.b.AddGroup(lw.freshName("static_wrap_"))
	if derr != nil {
		return ident.ID{}, derr
	}
	reg, derr := lw.addRegister(lw.freshName("static_cnt_"), widthFor(static.Latency+1))
	if derr != nil {
		return ident.ID{}, derr
	}

	regOut := reg.Port(lw.c.Interner.Intern("out"))
	regIn := reg.Port(lw.c.Interner.Intern("in"))
	writeEn := reg.Port(lw.c.Interner.Intern("write_en"))

	last := lw.b.AddConstant(static.Latency, widthFor(static.Latency+1))
	zero := lw.b.AddConstant(0, widthFor(static.Latency+1))

	atEnd := ir.Compare(ir.GuardEq, regOut, last.Port(lw.c.Interner.Intern("out")))

	if _, derr := lw.b.BuildGroupAssignment(g, writeEn, lw.b.AddConstant(1, 1).Port(lw.c.Interner.Intern("out")), g.GoPort); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, regIn, zero.Port(lw.c.Interner.Intern("out")), atEnd); derr != nil {
		return ident.ID{}, derr
	}
	for i := uint64(0); i < static.Latency; i++ {
		next := lw.b.AddConstant(i+1, widthFor(static.Latency+1)).Port(lw.c.Interner.Intern("out"))
		if _, derr := lw.b.BuildGroupAssignment(g, regIn, next, lw.stateCompare(regOut, i, widthFor(static.Latency+1))); derr != nil {
			return ident.ID{}, derr
		}
	}
	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, g.GoPort, atEnd); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}

// lowerInvoke wraps a primitive/component invocation: data ports are
// wired for the duration of the call, go is asserted, and the wrapper
// waits on the target's own done handshake (a primitive with a fixed
// Latency completes unconditionally after that many cycles instead).
func (lw *lowerer) lowerInvoke(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	cell := lw.comp.Cell(n.Cell)
	if cell == nil {
		return ident.ID{}, diag.Newf(diag.KindMalformed, "invoke of undefined cell %q", lw.c.Interner.Name(n.Cell))
	}

	g, derr := lw.b.AddGroup(lw.freshName("invoke_"))
	if derr != nil {
		return ident.ID{}, derr
	}

	for _, binding := range n.Inputs {
		dst := cell.Port(binding.Formal)
		if dst == nil {
			return ident.ID{}, diag.Newf(diag.KindMalformed, "invoke binds unknown input %q on %q",
				lw.c.Interner.Name(binding.Formal), lw.c.Interner.Name(n.Cell))
		}
		if _, derr := lw.b.BuildGroupAssignment(g, dst, binding.Actual, g.GoPort); derr != nil {
			return ident.ID{}, derr
		}
	}
	for _, binding := range n.Outputs {
		src := cell.Port(binding.Formal)
		if src == nil {
			return ident.ID{}, diag.Newf(diag.KindMalformed, "invoke binds unknown output %q on %q",
				lw.c.Interner.Name(binding.Formal), lw.c.Interner.Name(n.Cell))
		}
		if _, derr := lw.b.BuildGroupAssignment(g, binding.Actual, src, g.GoPort); derr != nil {
			return ident.ID{}, derr
		}
	}

	goName := lw.c.Interner.Intern("go")
	doneName := lw.c.Interner.Intern("done")
	if cell.Proto.Kind == ir.ProtoPrimitive && cell.Proto.Latency != nil {
		reg, derr := lw.addRegister(lw.freshName("invoke_cnt_"), widthFor(*cell.Proto.Latency+1))
		if derr != nil {
			return ident.ID{}, derr
		}
		width := widthFor(*cell.Proto.Latency + 1)
		atEnd := ir.Compare(ir.GuardEq, reg.Port(lw.c.Interner.Intern("out")),
			lw.b.AddConstant(*cell.Proto.Latency, width).Port(lw.c.Interner.Intern("out")))
		if _, derr := lw.b.BuildGroupAssignment(g, reg.Port(lw.c.Interner.Intern("write_en")), lw.b.AddConstant(1, 1).Port(lw.c.Interner.Intern("out")), g.GoPort); derr != nil {
			return ident.ID{}, derr
		}
		if _, derr := lw.b.BuildGroupAssignment(g, reg.Port(lw.c.Interner.Intern("in")), lw.b.AddConstant(0, width).Port(lw.c.Interner.Intern("out")), atEnd); derr != nil {
			return ident.ID{}, derr
		}
		for i := uint64(0); i < *cell.Proto.Latency; i++ {
			next := lw.b.AddConstant(i+1, width).Port(lw.c.Interner.Intern("out"))
			if _, derr := lw.b.BuildGroupAssignment(g, reg.Port(lw.c.Interner.Intern("in")), next, lw.stateCompare(reg.Port(lw.c.Interner.Intern("out")), i, width)); derr != nil {
				return ident.ID{}, derr
			}
		}
		if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, g.GoPort, atEnd); derr != nil {
			return ident.ID{}, derr
		}
		return g.Name, nil
	}

	cellGo := cell.Port(goName)
	cellDone := cell.Port(doneName)
	if cellGo != nil {
		if _, derr := lw.b.BuildGroupAssignment(g, cellGo, g.GoPort, nil); derr != nil {
			return ident.ID{}, derr
		}
	}
	if cellDone != nil {
		if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, cellDone, nil); derr != nil {
			return ident.ID{}, derr
		}
	} else {
		if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, g.GoPort, nil); derr != nil {
			return ident.ID{}, derr
		}
	}
	return g.Name, nil
}

func trueConst(b *builder.Builder) *ir.Port {
	c := b.AddConstant(1, 1)
	return c.Port(c.Ports[0].Name)
}

// stateCompare builds the guard "reg.out == value" for a register of
// the given width.
func (lw *lowerer) stateCompare(regOut *ir.Port, value, width uint64) *ir.Guard {
	return ir.Compare(ir.GuardEq, regOut, lw.b.AddConstant(value, width).Port(lw.c.Interner.Intern("out")))
}

func (lw *lowerer) regPorts(reg *ir.Cell) (out, in, writeEn *ir.Port) {
	return reg.Port(lw.c.Interner.Intern("out")),
		reg.Port(lw.c.Interner.Intern("in")),
		reg.Port(lw.c.Interner.Intern("write_en"))
}

// lowerSeq chains children through an explicit state register: state
// i asserts child i's go; the register advances to i+1 on child i's
// done; the final state's done fires the wrapper's own done.
func (lw *lowerer) lowerSeq(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	childGroups := make([]ident.ID, len(n.Children))
	for i, child := range n.Children {
		cg, derr := lw.lower(child)
		if derr != nil {
			return ident.ID{}, derr
		}
		childGroups[i] = cg
	}

	g, derr := lw.b.AddGroup(lw.freshName("seq_"))
	if derr != nil {
		return ident.ID{}, derr
	}
	numStates := uint64(len(childGroups))
	width := widthFor(numStates + 1)
	reg, derr := lw.addRegister(lw.freshName("seq_state_"), width)
	if derr != nil {
		return ident.ID{}, derr
	}
	regOut, regIn, writeEn := lw.regPorts(reg)

	for i, childName := range childGroups {
		child := lw.comp.Group(childName)
		if child == nil {
			return ident.ID{}, diag.Newf(diag.KindMalformed, "seq step references undefined group")
		}
		atState := ir.And(ir.PortGuard(g.GoPort), lw.stateCompare(regOut, uint64(i), width))

		if _, derr := lw.b.BuildGroupAssignment(g, child.GoPort, trueConst(lw.b), atState); derr != nil {
			return ident.ID{}, derr
		}

		advance := ir.And(atState, ir.PortGuard(child.DonePort))
		if _, derr := lw.b.BuildGroupAssignment(g, writeEn, trueConst(lw.b), advance); derr != nil {
			return ident.ID{}, derr
		}
		nextVal := uint64(i + 1)
		if uint64(i) == numStates-1 {
			nextVal = 0
		}
		if _, derr := lw.b.BuildGroupAssignment(g, regIn, lw.b.AddConstant(nextVal, width).Port(lw.c.Interner.Intern("out")), advance); derr != nil {
			return ident.ID{}, derr
		}
		if uint64(i) == numStates-1 {
			if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, trueConst(lw.b), advance); derr != nil {
				return ident.ID{}, derr
			}
		}
	}

	return g.Name, nil
}

// lowerPar wraps every child in its own group (recursively, so a
// compound child gets its own local FSM), then holds all of their go
// signals high simultaneously and waits for every one of their done
// signals before raising its own.
func (lw *lowerer) lowerPar(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	childGroups := make([]ident.ID, len(n.Children))
	for i, child := range n.Children {
		cg, derr := lw.lower(child)
		if derr != nil {
			return ident.ID{}, derr
		}
		childGroups[i] = cg
	}

	g, derr := lw.b.AddGroup(lw.freshName("par_"))
	if derr != nil {
		return ident.ID{}, derr
	}

	allDone := ir.True()
	for _, childName := range childGroups {
		child := lw.comp.Group(childName)
		if child == nil {
			return ident.ID{}, diag.Newf(diag.KindMalformed, "par arm references undefined group")
		}
		if _, derr := lw.b.BuildGroupAssignment(g, child.GoPort, g.GoPort, nil); derr != nil {
			return ident.ID{}, derr
		}
		allDone = ir.And(allDone, ir.PortGuard(child.DonePort))
	}
	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, trueConst(lw.b), allDone); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}

// lowerIf reads the branch condition (evaluating its combinational
// group, if any, for the duration of the wrapper's own go) and routes
// go to whichever branch's group applies; done follows whichever
// branch actually ran.
func (lw *lowerer) lowerIf(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	thenName, derr := lw.lower(n.Then)
	if derr != nil {
		return ident.ID{}, derr
	}
	var elseName ident.ID
	hasElse := n.Else != nil
	if hasElse {
		elseName, derr = lw.lower(n.Else)
		if derr != nil {
			return ident.ID{}, derr
		}
	}

	g, derr := lw.b.AddGroup(lw.freshName("if_"))
	if derr != nil {
		return ident.ID{}, derr
	}

	if n.HasCondCombGroup {
		cg := lw.comp.Group(n.CondCombGroup)
		if cg != nil {
			for _, a := range cg.Assignments {
				if _, derr := lw.b.BuildGroupAssignment(g, a.Dst, a.Src, ir.And(a.Guard, ir.PortGuard(g.GoPort))); derr != nil {
					return ident.ID{}, derr
				}
			}
		}
	}

	cond := ir.PortGuard(n.Port)
	thenGroup := lw.comp.Group(thenName)
	if _, derr := lw.b.BuildGroupAssignment(g, thenGroup.GoPort, g.GoPort, cond); derr != nil {
		return ident.ID{}, derr
	}
	doneExpr := ir.And(cond, ir.PortGuard(thenGroup.DonePort))

	if hasElse {
		elseGroup := lw.comp.Group(elseName)
		if _, derr := lw.b.BuildGroupAssignment(g, elseGroup.GoPort, g.GoPort, ir.Not(cond)); derr != nil {
			return ident.ID{}, derr
		}
		doneExpr = ir.Or(doneExpr, ir.And(ir.Not(cond), ir.PortGuard(elseGroup.DonePort)))
	} else {
		doneExpr = ir.Or(doneExpr, ir.Not(cond))
	}

	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, trueConst(lw.b), doneExpr); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}

// lowerWhile drives the body group repeatedly while the condition
// holds: an internal 1-bit "running" register distinguishes the
// re-check state (condition read combinationally, body not active)
// from the running state (body's go asserted), so the body is not
// re-triggered on the same cycle it reports done.
func (lw *lowerer) lowerWhile(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	bodyName, derr := lw.lower(n.Body)
	if derr != nil {
		return ident.ID{}, derr
	}
	body := lw.comp.Group(bodyName)

	g, derr := lw.b.AddGroup(lw.freshName("while_"))
	if derr != nil {
		return ident.ID{}, derr
	}
	reg, derr := lw.addRegister(lw.freshName("while_running_"), 1)
	if derr != nil {
		return ident.ID{}, derr
	}
	regOut, regIn, writeEn := lw.regPorts(reg)
	running := ir.PortGuard(regOut)

	if n.HasCondCombGroup {
		cg := lw.comp.Group(n.CondCombGroup)
		if cg != nil {
			for _, a := range cg.Assignments {
				if _, derr := lw.b.BuildGroupAssignment(g, a.Dst, a.Src, ir.And(ir.Not(running), ir.PortGuard(g.GoPort))); derr != nil {
					return ident.ID{}, derr
				}
			}
		}
	}

	cond := ir.PortGuard(n.Port)
	checking := ir.And(ir.PortGuard(g.GoPort), ir.Not(running))
	start := ir.And(checking, cond)

	if _, derr := lw.b.BuildGroupAssignment(g, body.GoPort, trueConst(lw.b), ir.Or(start, running)); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, writeEn, trueConst(lw.b), ir.Or(start, ir.And(running, ir.PortGuard(body.DonePort)))); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, regIn, trueConst(lw.b), start); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, regIn, lw.b.AddConstant(0, 1).Port(lw.c.Interner.Intern("out")),
		ir.And(running, ir.PortGuard(body.DonePort))); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, trueConst(lw.b), ir.And(checking, ir.Not(cond))); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}

// lowerRepeat drives the body group NumRepeats times via a counter
// register, advancing once per body done.
func (lw *lowerer) lowerRepeat(n *ir.Control) (ident.ID, *diag.Diagnostic) {
	bodyName, derr := lw.lower(n.Body)
	if derr != nil {
		return ident.ID{}, derr
	}
	body := lw.comp.Group(bodyName)

	g, derr := lw.b.AddGroup(lw.freshName("repeat_"))
	if derr != nil {
		return ident.ID{}, derr
	}
	width := widthFor(n.NumRepeats + 1)
	reg, derr := lw.addRegister(lw.freshName("repeat_cnt_"), width)
	if derr != nil {
		return ident.ID{}, derr
	}
	regOut, regIn, writeEn := lw.regPorts(reg)

	atEnd := lw.stateCompare(regOut, n.NumRepeats, width)
	running := ir.And(ir.PortGuard(g.GoPort), ir.Not(atEnd))

	if _, derr := lw.b.BuildGroupAssignment(g, body.GoPort, trueConst(lw.b), running); derr != nil {
		return ident.ID{}, derr
	}
	advance := ir.And(running, ir.PortGuard(body.DonePort))
	if _, derr := lw.b.BuildGroupAssignment(g, writeEn, trueConst(lw.b), advance); derr != nil {
		return ident.ID{}, derr
	}

	for i := uint64(0); i < n.NumRepeats; i++ {
		atState := ir.And(advance, lw.stateCompare(regOut, i, width))
		if _, derr := lw.b.BuildGroupAssignment(g, regIn, lw.b.AddConstant(i+1, width).Port(lw.c.Interner.Intern("out")), atState); derr != nil {
			return ident.ID{}, derr
		}
	}

	if _, derr := lw.b.BuildGroupAssignment(g, g.DonePort, trueConst(lw.b), atEnd); derr != nil {
		return ident.ID{}, derr
	}
	if _, derr := lw.b.BuildGroupAssignment(g, regIn, lw.b.AddConstant(0, width).Port(lw.c.Interner.Intern("out")), atEnd); derr != nil {
		return ident.ID{}, derr
	}
	return g.Name, nil
}
