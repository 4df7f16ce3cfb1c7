// Command calyxgo is a minimal driver over the compiler and
// interpreter: it assembles a small built-in demo program through the
// builder API (there being no sanctioned textual front end — the
// Builder is the only way to construct a Component), runs the
// standard pass pipeline against it, then simulates the result for a
// fixed number of cycles, printing cell/group state the way the
// teacher's samples print tile state after api.Driver.Run.
package main

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/sarchlab/calyxgo/builder"
	"github.com/sarchlab/calyxgo/ctx"
	"github.com/sarchlab/calyxgo/debug"
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
	"github.com/sarchlab/calyxgo/pass"
	"github.com/sarchlab/calyxgo/passes"
	"github.com/tebeka/atexit"
)

func main() {
	libPath := flag.String("lib", "", "primitive library YAML (optional; a built-in signature table is used if empty)")
	cycles := flag.Uint64("cycles", 8, "number of cycles to simulate")
	lower := flag.Bool("lower", false, "run compile-control to lower the control program to FSM-driven groups before interpreting")
	dump := flag.Bool("dump", true, "dump cell and group state after the run")
	flag.Parse()

	atexit.Register(func() {
		diag.Trace("calyxgo exiting")
	})

	if err := run(*libPath, *cycles, *lower, *dump); err != nil {
		slog.Error("run failed", "error", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func run(libPath string, cycles uint64, lower, dump bool) *diag.Diagnostic {
	lib := builtinLibrary()
	if libPath != "" {
		loaded, err := ctx.LoadLibraryYAML(libPath)
		if err != nil {
			return diag.Newf(diag.KindUnsupported, "loading library %s: %v", libPath, err)
		}
		lib = loaded
	}

	c := ctx.NewBuilder().WithLibrary(lib).WithEntrypoint("main").Build()
	comp, derr := buildDemoComponent(c)
	if derr != nil {
		return derr
	}
	c.AddComponent(comp)

	if derr := c.Validate(); derr != nil {
		return derr
	}

	if derr := runPasses(c, lower); derr != nil {
		return derr
	}

	it, derr := interp.New(c, comp, interp.DefaultRegistry())
	if derr != nil {
		return derr
	}

	insp := debug.NewInspector(c, comp, it)

	ran, derr := it.Run(cycles)
	if derr != nil {
		return derr
	}
	diag.Trace("simulation finished", "cycles", ran, "done", it.Done())

	if dump {
		fmt.Println(insp.DumpCells())
		fmt.Println(insp.DumpGroups())
	}
	return nil
}

// runPasses drives the well-formedness check, cell sharing, and
// (optionally) control-program lowering over every component of c, in
// that order: validate first, share storage, lower last.
func runPasses(c *ctx.Context, lower bool) *diag.Diagnostic {
	runner := pass.NewRunner().
		Add(passes.WellFormed{}).
		Add(passes.ShareCells{})

	if lower {
		runner.Add(passes.CompileControl{}).Add(passes.PostLowering{})
	}

	return runner.RunAll(c)
}

// builtinLibrary provides the handful of standard-cell signatures the
// demo program and DefaultRegistry both know about, used whenever the
// caller does not point -lib at a YAML file of their own.
func builtinLibrary() *ctx.Library {
	lib := ctx.NewLibrary()
	lib.Register(ctx.PrimitiveSig{
		Name:   "std_reg",
		Params: []string{"WIDTH"},
		Ports: []ctx.PortSig{
			{Name: "in", Direction: "in", WidthParam: "WIDTH"},
			{Name: "write_en", Direction: "in", Width: 1},
			{Name: "reset", Direction: "in", Width: 1},
			{Name: "out", Direction: "out", WidthParam: "WIDTH"},
			{Name: "done", Direction: "out", Width: 1},
		},
		SerializesState: true,
	})
	lib.Register(ctx.PrimitiveSig{
		Name:   "std_const",
		Params: []string{"WIDTH", "VALUE"},
		Ports: []ctx.PortSig{
			{Name: "out", Direction: "out", WidthParam: "WIDTH"},
		},
		IsComb: true,
	})
	return lib
}

// buildDemoComponent assembles a "main" component with a counter
// register that is written once per tick group, ticked a fixed number
// of times by a Repeat control node — small enough to read in full,
// but enough to exercise a static group, a Repeat loop, and register
// state across Snapshot/Restore.
func buildDemoComponent(c *ctx.Context) (*ir.Component, *diag.Diagnostic) {
	sig := &ir.Cell{
		Name:  c.Interner.Intern("this"),
		Proto: ir.Prototype{Kind: ir.ProtoThis},
	}
	comp := ir.NewComponent(c.Interner.Intern("main"), sig)

	b := builder.New(c, comp)

	reg, derr := b.AddPrimitive("counter", "std_reg", map[string]uint64{"WIDTH": 8})
	if derr != nil {
		return nil, derr
	}
	one := b.AddConstant(1, 8)

	tick, derr := b.AddStaticGroup("tick", 1)
	if derr != nil {
		return nil, derr
	}

	if _, derr := b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("in")), one.Port(c.Interner.Intern("out")), nil); derr != nil {
		return nil, derr
	}
	writeEn := b.AddConstant(1, 1)
	if _, derr := b.BuildGroupAssignment(tick, reg.Port(c.Interner.Intern("write_en")), writeEn.Port(c.Interner.Intern("out")), nil); derr != nil {
		return nil, derr
	}

	comp.Control = ir.Repeat(ir.StaticEnable(tick.Name), 4)
	return comp, nil
}
