// Package diag defines the closed set of error kinds the core reports
// and the Diagnostic value that carries them, with enough context —
// component, cell, cycle, offending assignment, source position, pass
// name — to produce an actionable message.
//
// Every fallible operation in builder, passes, and interp returns
// *Diagnostic (or nil) instead of panicking; panics are reserved for
// genuine programmer errors (a nil pointer where an invariant
// guarantees non-nil), not malformed input.
package diag

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the closed set of error kinds a Diagnostic may carry.
type Kind int

const (
	KindParse Kind = iota
	KindMalformed
	KindPassAssumption
	KindUnsupported
	KindUndefined
	KindConflicting
	KindConvergence
	KindClockRace
)

var kindNames = map[Kind]string{
	KindParse:          "parse error",
	KindMalformed:      "malformed structure",
	KindPassAssumption: "pass assumption violation",
	KindUnsupported:    "unsupported construct",
	KindUndefined:      "undefined read/write",
	KindConflicting:    "conflicting assignment",
	KindConvergence:    "convergence failure",
	KindClockRace:      "clock race",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown error"
}

var titleCaser = cases.Title(language.English)

// Title renders k the way a user-facing diagnostic header would, e.g.
// "Malformed Structure".
func (k Kind) Title() string {
	return titleCaser.String(k.String())
}

// Span is a source position, populated when the diagnostic originates
// from parsed text; zero value means "no span available" (e.g. a
// diagnostic raised purely at interpretation time).
type Span struct {
	File        string
	Line, Col   int
	HasPosition bool
}

// Diagnostic is the structured error value every fallible core
// operation returns.
type Diagnostic struct {
	Kind Kind
	Msg  string

	Span Span

	// Pass names the pass that raised the diagnostic, set whenever
	// Kind is KindPassAssumption.
	Pass string

	// Component, Cell, Cycle, Assignment give the interpreter's
	// execution context when the diagnostic was raised during
	// simulation rather than compilation.
	Component  string
	Cell       string
	Cycle      uint64
	HasCycle   bool
	Assignment string

	// Wrapped, if set, is an underlying error this diagnostic reports
	// on behalf of (e.g. a YAML parse error).
	Wrapped error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.Title())
	b.WriteString(": ")
	b.WriteString(d.Msg)

	if d.Pass != "" {
		fmt.Fprintf(&b, " (pass %q)", d.Pass)
	}
	if d.Component != "" {
		fmt.Fprintf(&b, " in component %q", d.Component)
	}
	if d.Cell != "" {
		fmt.Fprintf(&b, ", cell %q", d.Cell)
	}
	if d.HasCycle {
		fmt.Fprintf(&b, ", cycle %d", d.Cycle)
	}
	if d.Assignment != "" {
		fmt.Fprintf(&b, ", assignment %s", d.Assignment)
	}
	if d.Span.HasPosition {
		fmt.Fprintf(&b, " at %s:%d:%d", d.Span.File, d.Span.Line, d.Span.Col)
	}
	if d.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", d.Wrapped)
	}

	return b.String()
}

// Unwrap exposes the wrapped error, if any, to errors.Is/As.
func (d *Diagnostic) Unwrap() error { return d.Wrapped }

// New creates a Diagnostic with a plain message.
func New(kind Kind, msg string) *Diagnostic {
	return &Diagnostic{Kind: kind, Msg: msg}
}

// Newf creates a Diagnostic with a formatted message.
func Newf(kind Kind, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithPass returns a copy of d with Pass set.
func (d *Diagnostic) WithPass(pass string) *Diagnostic {
	c := *d
	c.Pass = pass
	return &c
}

// WithSpan returns a copy of d with Span set.
func (d *Diagnostic) WithSpan(file string, line, col int) *Diagnostic {
	c := *d
	c.Span = Span{File: file, Line: line, Col: col, HasPosition: true}
	return &c
}

// WithCycle returns a copy of d with interpreter execution context set.
func (d *Diagnostic) WithCycle(component string, cycle uint64) *Diagnostic {
	c := *d
	c.Component = component
	c.Cycle = cycle
	c.HasCycle = true
	return &c
}
