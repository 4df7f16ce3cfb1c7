// Package ir implements the hardware-description intermediate
// representation: components, cells, ports, guarded assignments,
// groups, and control trees, together with the ownership and sharing
// invariants between them.
//
// A Component exclusively owns its Cells and Groups (held as slices of
// pointers, indexed by interned name for O(1) lookup); Ports are
// exclusively owned by their parent Cell or Group; Assignments and
// Guards hold ordinary Go pointers to Ports, which in a
// garbage-collected language is exactly the shared, counted reference
// such a link needs — the last holder of a *Port keeps it alive, with
// no refcounting code required. Back-references from Port to its
// parent are the one place that must stay weak: they are a (kind,
// name) pair resolved through the owning Component's index, never a
// pointer, so retiring a parent and rewriting its referents never
// leaves a dangling pointer behind.
package ir

import "github.com/sarchlab/calyxgo/attr"

// Attrs is the attribute set attached to every IR node.
type Attrs = attr.Set
