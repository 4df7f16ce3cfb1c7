// Package verify runs the static and dynamic checks an external tool
// (or cmd/calyxgo) would run before trusting a component: well-formedness
// plus a few structural lint rules, and, optionally, an interpreter run
// compared against a golden fixtures.Trace. It plays the role the
// original verify package played for a CGRA program (lint, then
// functional simulation, then a combined report) against this repo's
// own component/group/control model instead.
package verify

import (
	"fmt"

	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/interp/fixtures"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
	"github.com/sarchlab/calyxgo/passes"
)

// Severity distinguishes a hard failure from an advisory finding.
type Severity int

const (
	// Error is a structural defect passes.WellFormed would also reject.
	Error Severity = iota
	// Warning is advisory: the component is legal but suspicious.
	Warning
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Issue is one lint finding.
type Issue struct {
	Severity   Severity
	Message    string
	Diagnostic *diag.Diagnostic // nil for warnings with no backing diagnostic
}

// Lint runs passes.WellFormed plus the structural warnings below
// against comp and returns every issue found, most severe first.
// Unlike passes.WellFormed.Run (which stops at the first defect),
// Lint keeps going so a caller sees the whole picture in one pass.
// An unused group is not among the warnings below: passes.WellFormed
// itself now rejects one as an Error, so it already surfaces via the
// check above without a second, weaker finding alongside it.
func Lint(c *ctx.Context, comp *ir.Component) []Issue {
	var issues []Issue

	if d := (passes.WellFormed{}).Run(c, comp, pass.Options{}); d != nil {
		issues = append(issues, Issue{Severity: Error, Message: d.Error(), Diagnostic: d})
	}

	for _, name := range unusedCells(comp) {
		issues = append(issues, Issue{
			Severity: Warning,
			Message:  fmt.Sprintf("cell %q is not read by any assignment or enabled group", c.Interner.Name(name)),
		})
	}

	return issues
}

// unusedCells returns the name of every cell no group assignment, no
// continuous assignment, and no Invoke node ever reads from or writes
// to.
func unusedCells(comp *ir.Component) []ident.ID {
	referenced := make(map[ident.ID]bool)
	mark := func(p *ir.Port) {
		if p != nil && p.Parent.Kind == ir.ParentCell {
			referenced[p.Parent.Name] = true
		}
	}
	var markGuard func(g *ir.Guard)
	markGuard = func(g *ir.Guard) {
		if g == nil {
			return
		}
		mark(g.Leaf)
		mark(g.Left)
		mark(g.Right)
		for _, c := range g.Children {
			markGuard(c)
		}
	}

	comp.ForEachAssignment(func(a *ir.Assignment) *ir.Assignment {
		mark(a.Dst)
		mark(a.Src)
		markGuard(a.Guard)
		return nil
	})
	ir.Walk(comp.Control, func(n *ir.Control) bool {
		if n.Kind == ir.CtrlInvoke {
			referenced[n.Cell] = true
		}
		return true
	})

	var unused []ident.ID
	for _, cell := range comp.Cells {
		if cell.Proto.Kind == ir.ProtoThis {
			continue
		}
		if !referenced[cell.Name] {
			unused = append(unused, cell.Name)
		}
	}
	return unused
}

// Report bundles lint findings with an optional golden-trace run,
// ready to print with Write.
type Report struct {
	Component  string
	Issues     []Issue
	Mismatches []fixtures.Mismatch
	RunErr     *diag.Diagnostic
}

// Run lints comp and, if trace is non-nil, steps it through trace as
// well, recording any mismatch or run error in the returned Report.
func Run(c *ctx.Context, comp *ir.Component, it *interp.Interpreter, trace *fixtures.Trace) *Report {
	r := &Report{Component: c.Interner.Name(comp.Name), Issues: Lint(c, comp)}

	if trace != nil {
		mismatches, err := trace.Run(it, c.Interner)
		r.Mismatches = mismatches
		if err != nil {
			r.RunErr = diag.New(diag.KindConvergence, err.Error())
		}
	}

	return r
}

// OK reports whether the component passed every check: no Error-level
// issues, no trace mismatches, no run error.
func (r *Report) OK() bool {
	if r.RunErr != nil || len(r.Mismatches) > 0 {
		return false
	}
	for _, iss := range r.Issues {
		if iss.Severity == Error {
			return false
		}
	}
	return true
}
