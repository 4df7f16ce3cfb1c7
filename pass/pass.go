// Package pass defines the visitor contract every compiler pass
// implements, a Run function that drives one visitor over a control
// tree, dispatching by node kind and letting the visitor rewrite the
// tree as it walks, and a Runner that applies a pipeline of passes to
// every component of a Context.
package pass

import (
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ir"
)

// Action is what a visitor hook asks the Runner to do next.
type Action int

const (
	// Continue descends into the node's children as usual.
	Continue Action = iota
	// Stop skips the node's children (the hook already handled them,
	// or they should be left alone).
	Stop
	// Change replaces the node with Replacement and does not descend
	// into the original node's children; the Runner re-visits
	// Replacement's own children on the next step if the pass is
	// re-run, but does not recurse into it within the same visit.
	Change
)

// Result is returned by a visitor hook: the Action to take and, for
// Change, the replacement subtree.
type Result struct {
	Action      Action
	Replacement *ir.Control
}

func ok() Result      { return Result{Action: Continue} }
func stop() Result    { return Result{Action: Stop} }
func change(c *ir.Control) Result { return Result{Action: Change, Replacement: c} }

// Visitor is the set of hooks a Pass may implement. Every method has a
// default no-op (Continue) via the embedded BaseVisitor, so a Pass
// need only override the node kinds it cares about.
type Visitor interface {
	VisitEnable(c *ir.Control) (Result, *diag.Diagnostic)
	VisitStaticEnable(c *ir.Control) (Result, *diag.Diagnostic)
	VisitInvoke(c *ir.Control) (Result, *diag.Diagnostic)
	VisitSeq(c *ir.Control) (Result, *diag.Diagnostic)
	VisitPar(c *ir.Control) (Result, *diag.Diagnostic)
	VisitIf(c *ir.Control) (Result, *diag.Diagnostic)
	VisitWhile(c *ir.Control) (Result, *diag.Diagnostic)
	VisitRepeat(c *ir.Control) (Result, *diag.Diagnostic)
	VisitEmpty(c *ir.Control) (Result, *diag.Diagnostic)
}

// BaseVisitor implements Visitor with every hook returning Continue,
// so a Pass embeds it and overrides only what it needs.
type BaseVisitor struct{}

func (BaseVisitor) VisitEnable(*ir.Control) (Result, *diag.Diagnostic)       { return ok(), nil }
func (BaseVisitor) VisitStaticEnable(*ir.Control) (Result, *diag.Diagnostic) { return ok(), nil }
func (BaseVisitor) VisitInvoke(*ir.Control) (Result, *diag.Diagnostic)       { return ok(), nil }
func (BaseVisitor) VisitSeq(*ir.Control) (Result, *diag.Diagnostic)          { return ok(), nil }
func (BaseVisitor) VisitPar(*ir.Control) (Result, *diag.Diagnostic)          { return ok(), nil }
func (BaseVisitor) VisitIf(*ir.Control) (Result, *diag.Diagnostic)          { return ok(), nil }
func (BaseVisitor) VisitWhile(*ir.Control) (Result, *diag.Diagnostic)        { return ok(), nil }
func (BaseVisitor) VisitRepeat(*ir.Control) (Result, *diag.Diagnostic)       { return ok(), nil }
func (BaseVisitor) VisitEmpty(*ir.Control) (Result, *diag.Diagnostic)        { return ok(), nil }

// Pass is one named compiler pass, given a chance to run once per
// component in a Context. Options carries pass-specific flags parsed
// from whatever drives the pipeline (a CLI, a pipeline spec file).
type Pass interface {
	Name() string
	Run(c *ctx.Context, comp *ir.Component, opts Options) *diag.Diagnostic
}

// Options is a parsed set of pass-specific flags, keyed by flag name.
// Passes that take no options ignore it.
type Options map[string]string

// Bool returns the boolean value of a flag, defaulting to def if
// absent or unparseable.
func (o Options) Bool(name string, def bool) bool {
	switch o[name] {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// String returns the string value of a flag, defaulting to def if
// absent.
func (o Options) String(name, def string) string {
	if v, ok := o[name]; ok {
		return v
	}
	return def
}

// Run drives v over every control node reachable from root, in
// pre-order, applying Change/Stop immediately so later hooks see the
// rewritten tree. Returns the (possibly replaced) root, or a
// diagnostic from the first hook that failed.
func Run(root *ir.Control, v Visitor) (*ir.Control, *diag.Diagnostic) {
	return visit(root, v)
}

func visit(n *ir.Control, v Visitor) (*ir.Control, *diag.Diagnostic) {
	if n == nil {
		return nil, nil
	}

	res, derr := dispatch(n, v)
	if derr != nil {
		return nil, derr
	}

	switch res.Action {
	case Change:
		return res.Replacement, nil
	case Stop:
		return n, nil
	}

	switch n.Kind {
	case ir.CtrlSeq, ir.CtrlPar:
		for i, child := range n.Children {
			nc, derr := visit(child, v)
			if derr != nil {
				return nil, derr
			}
			n.Children[i] = nc
		}
	case ir.CtrlIf:
		then, derr := visit(n.Then, v)
		if derr != nil {
			return nil, derr
		}
		n.Then = then
		if n.Else != nil {
			els, derr := visit(n.Else, v)
			if derr != nil {
				return nil, derr
			}
			n.Else = els
		}
	case ir.CtrlWhile, ir.CtrlRepeat:
		body, derr := visit(n.Body, v)
		if derr != nil {
			return nil, derr
		}
		n.Body = body
	}

	return n, nil
}

func dispatch(n *ir.Control, v Visitor) (Result, *diag.Diagnostic) {
	switch n.Kind {
	case ir.CtrlEmpty:
		return v.VisitEmpty(n)
	case ir.CtrlEnable:
		return v.VisitEnable(n)
	case ir.CtrlStaticEnable:
		return v.VisitStaticEnable(n)
	case ir.CtrlInvoke:
		return v.VisitInvoke(n)
	case ir.CtrlSeq:
		return v.VisitSeq(n)
	case ir.CtrlPar:
		return v.VisitPar(n)
	case ir.CtrlIf:
		return v.VisitIf(n)
	case ir.CtrlWhile:
		return v.VisitWhile(n)
	case ir.CtrlRepeat:
		return v.VisitRepeat(n)
	default:
		return ok(), nil
	}
}

// Runner drives a fixed pipeline of Passes over every component of a
// Context, in declaration order, stopping at the first diagnostic.
type Runner struct {
	Passes []Pass
	Opts   map[string]Options
}

// NewRunner builds a Runner with no passes registered.
func NewRunner() *Runner {
	return &Runner{Opts: make(map[string]Options)}
}

// Add appends a pass to the pipeline.
func (r *Runner) Add(p Pass) *Runner {
	r.Passes = append(r.Passes, p)
	return r
}

// WithOptions attaches parsed Options to a named pass.
func (r *Runner) WithOptions(passName string, opts Options) *Runner {
	r.Opts[passName] = opts
	return r
}

// RunAll runs every registered pass, in order, over every component of
// c, in the Context's map iteration order made deterministic by
// sorting through the interner's creation order.
func (r *Runner) RunAll(c *ctx.Context) *diag.Diagnostic {
	comps := orderedComponents(c)
	for _, p := range r.Passes {
		opts := r.Opts[p.Name()]
		for _, comp := range comps {
			diag.Trace("running pass", "pass", p.Name(), "component", c.Interner.Name(comp.Name))
			if derr := p.Run(c, comp, opts); derr != nil {
				return derr.WithPass(p.Name())
			}
		}
	}
	return nil
}

func orderedComponents(c *ctx.Context) []*ir.Component {
	out := make([]*ir.Component, 0, len(c.Components))
	for _, comp := range c.Components {
		out = append(out, comp)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && c.Interner.Less(out[j].Name, out[j-1].Name); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
