package interp

import (
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp/race"
	"github.com/sarchlab/calyxgo/ir"
)

// maxConvergenceSweeps bounds the combinational fixed-point loop; a
// cycle that has not settled after this many sweeps is reported as a
// non-convergent cycle rather than looping forever.
const maxConvergenceSweeps = 1000

// Interpreter executes one component's control program and primitive
// population, cycle by cycle. A sub-component cell is itself an
// Interpreter wrapped in componentPrimitive, so nested instantiation
// composes without a separate code path: the wrapper's CombTick runs
// the child to its own convergence, and EdgeTick advances the child's
// state and control by one cycle, exactly mirroring any other
// Primitive's contract.
//
// Condition sampling for the general (un-lowered) control walker's If
// and While nodes costs one cycle: the guarding port (or comb group)
// is driven combinationally the cycle the node becomes current, and
// the branch/body it selects only becomes active starting the
// following cycle. passes.CompileControl's lowering differs here: its
// If and While wrappers read the condition combinationally and assert
// the selected branch's go in the same cycle.
type Interpreter struct {
	Ctx      *ctx.Context
	Comp     *ir.Component
	Registry *Registry

	// Race, if set by the caller before the first Step, enables the
	// optional vector-clock race detector over every Par-branch thread
	// the control walk finds: a race surfaces as a KindClockRace
	// diagnostic from StepConverge. Left nil, no race bookkeeping
	// happens at all.
	Race *race.Detector

	prims  map[ident.ID]Primitive
	values map[ir.CanonicalKey]Value

	frames     map[*ir.Control]*nodeFrame
	groupCycle map[ident.ID]uint64

	cycle uint64
	done  bool

	// pendingActive carries the active set computed by StepConverge
	// over to StepFinish (for a nested Interpreter, from the wrapping
	// componentPrimitive's CombTick to its EdgeTick).
	pendingActive *activeSet
}

// New builds an Interpreter for comp, instantiating a Primitive for
// every primitive and sub-component cell via registry. Reference cells
// are left without a backing Primitive — the caller is responsible for
// driving their ports directly (e.g. via Set), matching the data
// model's "reference cells are supplied by the invoker" contract.
func New(c *ctx.Context, comp *ir.Component, registry *Registry) (*Interpreter, *diag.Diagnostic) {
	it := &Interpreter{
		Ctx:        c,
		Comp:       comp,
		Registry:   registry,
		prims:      make(map[ident.ID]Primitive),
		values:     make(map[ir.CanonicalKey]Value),
		frames:     make(map[*ir.Control]*nodeFrame),
		groupCycle: make(map[ident.ID]uint64),
	}

	for _, cell := range comp.Cells {
		if cell.Reference {
			continue
		}
		switch cell.Proto.Kind {
		case ir.ProtoPrimitive:
			prim, ok := registry.Build(c.Interner.Name(cell.Proto.LibName), cell.Proto.Params)
			if !ok {
				return nil, diag.Newf(diag.KindUnsupported,
					"no interpreter primitive registered for library entry %q (cell %q)",
					c.Interner.Name(cell.Proto.LibName), c.Interner.Name(cell.Name))
			}
			it.prims[cell.Name] = prim
		case ir.ProtoConstant:
			it.prims[cell.Name] = NewConstant(cell.Proto.Value, cell.Proto.Width)
		case ir.ProtoComponent:
			callee := c.Component(cell.Proto.ComponentName)
			if callee == nil {
				return nil, diag.Newf(diag.KindMalformed, "cell %q instantiates unknown component %q",
					c.Interner.Name(cell.Name), c.Interner.Name(cell.Proto.ComponentName))
			}
			child, derr := New(c, callee, registry)
			if derr != nil {
				return nil, derr
			}
			it.prims[cell.Name] = &componentPrimitive{child: child}
		}
	}

	for _, cell := range comp.Cells {
		for _, p := range cell.Ports {
			it.values[p.Canonical()] = Undef(p.Width)
		}
	}
	for _, p := range comp.Signature.Ports {
		it.values[p.Canonical()] = Undef(p.Width)
	}
	for _, g := range comp.Groups {
		if g.GoPort != nil {
			it.values[g.GoPort.Canonical()] = Undef(g.GoPort.Width)
		}
		if g.DonePort != nil {
			it.values[g.DonePort.Canonical()] = Undef(g.DonePort.Width)
		}
	}

	return it, nil
}

// Done reports whether the component's control program has signaled
// completion (for a component with Empty control, true after the first
// Step).
func (it *Interpreter) Done() bool { return it.done }

// Cycle returns the number of cycles executed so far.
func (it *Interpreter) Cycle() uint64 { return it.cycle }

// Get returns the current value of a cell or signature port by name,
// for external inspection or driving of un-owned (reference) inputs.
func (it *Interpreter) Get(cellName, portName ident.ID) Value {
	return it.values[ir.CanonicalKey{Parent: cellName, Name: portName}]
}

// Set drives a port's value directly, bypassing assignment evaluation
// — used by a caller to supply the entry component's external inputs
// (and a parent Interpreter's componentPrimitive to supply a callee's
// signature inputs) before each Step.
func (it *Interpreter) Set(cellName, portName ident.ID, v Value) {
	it.values[ir.CanonicalKey{Parent: cellName, Name: portName}] = v
}

// Step runs exactly one clock cycle: combinational convergence over
// whatever groups and invokes the control walk finds active, then an
// edge advance that latches every primitive's state and moves the
// control frame forward.
func (it *Interpreter) Step() *diag.Diagnostic {
	if _, derr := it.StepConverge(); derr != nil {
		return derr
	}
	it.StepFinish()
	return nil
}

// StepConverge runs only the combinational-convergence phase of one
// cycle and returns the names of the groups the control walk found
// active, leaving the edge advance and control-frame update for a
// paired StepFinish call. Split out so a caller observing cycle
// boundaries (the debug package's hook firing) can act between the two
// phases; ordinary callers should just use Step.
func (it *Interpreter) StepConverge() ([]ident.ID, *diag.Diagnostic) {
	if it.done {
		return nil, nil
	}

	active := it.computeActiveSet()
	if derr := it.converge(active); derr != nil {
		return nil, derr.WithCycle(it.Ctx.Interner.Name(it.Comp.Name), it.cycle)
	}
	if derr := it.checkRaces(active); derr != nil {
		return nil, derr.WithCycle(it.Ctx.Interner.Name(it.Comp.Name), it.cycle)
	}
	it.pendingActive = active

	var names []ident.ID
	for name := range active.dynGroups {
		names = append(names, name)
	}
	for name := range active.staticGroups {
		names = append(names, name)
	}
	return names, nil
}

// StepFinish completes the cycle StepConverge began: latches every
// primitive's state, advances the control frame, and increments the
// cycle counter. A no-op if StepConverge was never called or the
// interpreter is already done.
func (it *Interpreter) StepFinish() {
	if it.done || it.pendingActive == nil {
		return
	}

	it.edgeAdvance()
	if it.advanceNode(it.Comp.Control) {
		it.done = true
	}
	it.pendingActive = nil
	it.cycle++
}

// Run steps the interpreter until Done or maxCycles is reached,
// whichever comes first, returning the number of cycles actually run.
func (it *Interpreter) Run(maxCycles uint64) (uint64, *diag.Diagnostic) {
	var n uint64
	for n = 0; n < maxCycles && !it.done; n++ {
		if derr := it.Step(); derr != nil {
			return n, derr
		}
	}
	return n, nil
}

// componentPrimitive adapts a nested Interpreter to the Primitive
// contract: CombTick threads the parent's current input values into
// the child's signature ports and runs the child to its own
// convergence; EdgeTick advances the child by one full cycle.
type componentPrimitive struct {
	child *Interpreter
}

func (cp *componentPrimitive) CombTick(p PortAccess) {
	sig := cp.child.Comp.Signature
	for _, sp := range sig.Ports {
		if sp.Direction != ir.In {
			continue
		}
		name := cp.child.Ctx.Interner.Name(sp.Name)
		cp.child.Set(sig.Name, sp.Name, p.Get(name))
	}

	_, _ = cp.child.StepConverge()

	for _, sp := range sig.Ports {
		if sp.Direction != ir.Out {
			continue
		}
		name := cp.child.Ctx.Interner.Name(sp.Name)
		p.Set(name, cp.child.Get(sig.Name, sp.Name))
	}
}

func (cp *componentPrimitive) EdgeTick(PortAccess) {
	cp.child.StepFinish()
}

func (cp *componentPrimitive) SerializesState() bool { return true }
func (cp *componentPrimitive) SaveState() []byte      { return cp.child.Snapshot() }
func (cp *componentPrimitive) LoadState(b []byte)     { cp.child.Restore(b) }
