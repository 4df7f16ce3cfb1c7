// Package ident provides interned identifiers shared by every IR node.
//
// An ID's equality is index equality and its ordering is the order in
// which the name was first seen by the Interner, giving every
// identifier a stable total order independent of hashing.
package ident

import (
	"sync"

	"github.com/rs/xid"
)

// ID is an interned symbol. The zero value is not a valid ID; use
// Interner.Intern to obtain one.
type ID struct {
	idx int
}

// IsValid reports whether id was produced by an Interner.
func (id ID) IsValid() bool {
	return id.idx > 0
}

type entry struct {
	name string
	xid  xid.ID
}

// Interner is a symbol table safe for concurrent use. Create one with
// New; the zero value is not usable (its name map is nil).
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]ID
	entries []entry // entries[0] is a sentinel; real ids start at 1
}

// New creates a fresh, empty Interner.
func New() *Interner {
	in := &Interner{
		byName:  make(map[string]ID),
		entries: make([]entry, 1),
	}
	return in
}

// Intern returns the ID for name, minting a fresh one (stamped with the
// current xid, which is monotonically sortable) the first time name is
// seen.
func (in *Interner) Intern(name string) ID {
	in.mu.RLock()
	if id, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	if id, ok := in.byName[name]; ok {
		return id
	}

	id := ID{idx: len(in.entries)}
	in.entries = append(in.entries, entry{name: name, xid: xid.New()})
	in.byName[name] = id

	return id
}

// Name returns the interned string for id. Panics if id was not
// produced by this Interner.
func (in *Interner) Name(id ID) string {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if id.idx <= 0 || id.idx >= len(in.entries) {
		panic("ident: id not owned by this interner")
	}

	return in.entries[id.idx].name
}

// Less orders two IDs by first-seen time (the xid stamped at Intern
// time), giving a stable ordering independent of map iteration order.
func (in *Interner) Less(a, b ID) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return in.entries[a.idx].xid.Compare(in.entries[b.idx].xid) < 0
}

// Lookup returns the ID for name without interning it, and reports
// whether it was found.
func (in *Interner) Lookup(name string) (ID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	id, ok := in.byName[name]
	return id, ok
}

// Reserved is the closed set of names no component may bind to a cell
// or group: they collide with the signature's own "this" cell and its
// go/done/clk/reset ports.
var Reserved = map[string]bool{
	"this":  true,
	"go":    true,
	"done":  true,
	"clk":   true,
	"reset": true,
}

// IsReserved reports whether name is a reserved identifier.
func IsReserved(name string) bool {
	return Reserved[name]
}
