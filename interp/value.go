// Package interp implements the cycle-accurate interpreter: combinational
// convergence within a cycle, edge-triggered state advance between
// cycles, and a control-stack walker that drives either an arbitrary
// (unlowered) control tree or the single flat group passes.CompileControl
// produces.
package interp

// Value is a fixed-width bit-vector that additionally tracks whether it
// has been driven yet this cycle. A port read before any active
// assignment has written it this sweep is Defined == false; by the end
// of combinational convergence every port not actually driven settles
// to a defined zero.
type Value struct {
	Bits    uint64
	Width   uint64
	Defined bool
}

// Undef returns the zero value for a width-bit port before convergence
// has touched it.
func Undef(width uint64) Value {
	return Value{Width: width}
}

// Zero returns a defined zero of the given width, the value an
// undriven port settles to once convergence completes.
func Zero(width uint64) Value {
	return Value{Width: width, Defined: true}
}

// Of returns a defined value, masked to width.
func Of(bits, width uint64) Value {
	return Value{Bits: mask(bits, width), Width: width, Defined: true}
}

func mask(v, width uint64) uint64 {
	if width >= 64 {
		return v
	}
	return v & ((uint64(1) << width) - 1)
}

// Truthy reports whether v, read as a single-bit (or wider) guard
// condition, is a defined nonzero value.
func (v Value) Truthy() bool {
	return v.Defined && v.Bits != 0
}

// Equal reports whether v and other carry the same defined bits,
// treating two undefined values of the same width as unequal (an
// undefined read is never "the same" as any other value, defined or
// not — it has no observable value yet).
func (v Value) Equal(other Value) bool {
	if !v.Defined || !other.Defined {
		return false
	}
	return v.Bits == other.Bits
}
