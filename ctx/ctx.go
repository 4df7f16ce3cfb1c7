// Package ctx implements the Context: the set of components under
// compilation, the primitive library, and the entry-point component
// name. Context construction follows a functional-options Builder
// idiom, chaining With* calls before a final Build.
package ctx

import (
	"github.com/sarchlab/calyxgo/diag"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

// Context holds every component being compiled together, the
// standard-cell library they instantiate primitives from, and which
// component is the design's entry point.
type Context struct {
	Interner   *ident.Interner
	Components map[ident.ID]*ir.Component
	Library    *Library
	Entrypoint ident.ID
}

// Component looks up a component by name.
func (c *Context) Component(name ident.ID) *ir.Component {
	return c.Components[name]
}

// EntrypointComponent returns the entry-point component, or nil if
// none has been set.
func (c *Context) EntrypointComponent() *ir.Component {
	return c.Components[c.Entrypoint]
}

// AddComponent registers comp under its own name.
func (c *Context) AddComponent(comp *ir.Component) {
	c.Components[comp.Name] = comp
}

// Validate checks the one Context-level invariant not owned by any
// single pass: the entry point must exist and may not use reference
// cells.
func (c *Context) Validate() *diag.Diagnostic {
	entry := c.EntrypointComponent()
	if entry == nil {
		return diag.Newf(diag.KindMalformed, "entrypoint %q is not a known component",
			c.Interner.Name(c.Entrypoint))
	}
	for _, cell := range entry.Cells {
		if cell.Reference {
			return diag.Newf(diag.KindMalformed,
				"entrypoint component %q may not use reference cells (cell %q)",
				c.Interner.Name(entry.Name), c.Interner.Name(cell.Name))
		}
	}
	return nil
}

// Builder assembles a Context via chained With* calls.
type Builder struct {
	interner   *ident.Interner
	library    *Library
	entrypoint string
}

// NewBuilder creates a Builder with a fresh Interner and empty
// Library.
func NewBuilder() Builder {
	return Builder{
		interner: ident.New(),
		library:  NewLibrary(),
	}
}

// WithInterner overrides the Interner shared across the build (useful
// when composing a Context out of components already parsed against an
// existing Interner).
func (b Builder) WithInterner(in *ident.Interner) Builder {
	b.interner = in
	return b
}

// WithLibrary sets the primitive library.
func (b Builder) WithLibrary(lib *Library) Builder {
	b.library = lib
	return b
}

// WithEntrypoint names the entry-point component.
func (b Builder) WithEntrypoint(name string) Builder {
	b.entrypoint = name
	return b
}

// Build produces a Context with no components yet registered; call
// AddComponent afterward (or use the ir/builder package to construct
// components directly against the result's Interner).
func (b Builder) Build() *Context {
	if b.interner == nil {
		b.interner = ident.New()
	}
	if b.library == nil {
		b.library = NewLibrary()
	}
	c := &Context{
		Interner:   b.interner,
		Components: make(map[ident.ID]*ir.Component),
		Library:    b.library,
	}
	if b.entrypoint != "" {
		c.Entrypoint = b.interner.Intern(b.entrypoint)
	}
	return c
}
