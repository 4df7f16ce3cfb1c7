package interp

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/sarchlab/calyxgo/ir"
)

// Snapshot serializes every stateful cell's internal state into a
// single byte vector: memory-backed primitives first, then registers,
// then everything else (pipelines, nested components), each group
// ordered by the Context's Interner — the order cell names were first
// seen — so two runs built from the same source produce byte-identical
// snapshots regardless of map iteration order.
func (it *Interpreter) Snapshot() []byte {
	cells := it.serializableCells()

	var buf bytes.Buffer
	var lenBuf [binary.MaxVarintLen64]byte
	for _, c := range cells {
		data := it.prims[c.Name].SaveState()
		n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
		buf.Write(lenBuf[:n])
		buf.Write(data)
	}
	return buf.Bytes()
}

// Restore reloads state previously produced by Snapshot. The caller
// must restore into an Interpreter built from the same Component (same
// cells, same order) Snapshot was taken from.
func (it *Interpreter) Restore(data []byte) {
	cells := it.serializableCells()

	r := bytes.NewReader(data)
	for _, c := range cells {
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return
		}
		it.prims[c.Name].LoadState(chunk)
	}
}

func (it *Interpreter) serializableCells() []*ir.Cell {
	var cells []*ir.Cell
	for _, c := range it.Comp.Cells {
		if prim, ok := it.prims[c.Name]; ok && prim.SerializesState() {
			cells = append(cells, c)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		ci, cj := it.prims[cells[i].Name], it.prims[cells[j].Name]
		pi, pj := statePriority(ci), statePriority(cj)
		if pi != pj {
			return pi < pj
		}
		return it.Ctx.Interner.Less(cells[i].Name, cells[j].Name)
	})
	return cells
}

// statePriority orders memories before registers before everything
// else (pipelines, nested component instances), matching the
// persisted-state layout's "memory before registers" convention.
func statePriority(p Primitive) int {
	switch p.(type) {
	case *CombMemory, *SeqMemory:
		return 0
	case *Register:
		return 1
	default:
		return 2
	}
}
