package analysis_test

import (
	"testing"

	"github.com/sarchlab/calyxgo/analysis"
	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/ir"
)

func TestNumberControlAssignsUniqueIDs(t *testing.T) {
	in := ident.New()
	root := ir.Seq(
		ir.Enable(in.Intern("a")),
		ir.Enable(in.Intern("b")),
	)

	n := analysis.NumberControl(root)

	seen := make(map[int]bool)
	ir.Walk(root, func(c *ir.Control) bool {
		if seen[c.ID] {
			t.Fatalf("ID %d assigned to more than one node", c.ID)
		}
		seen[c.ID] = true
		return true
	})
	if n != len(seen) {
		t.Fatalf("NumberControl returned %d, but %d distinct IDs were assigned", n, len(seen))
	}
}

func TestNumberControlIfGetsEndID(t *testing.T) {
	in := ident.New()
	cond := in.Intern("cond")
	root := ir.If(&ir.Port{}, ir.Enable(in.Intern("then")), ir.Enable(in.Intern("else")))
	_ = cond

	analysis.NumberControl(root)

	if root.EndID < 0 {
		t.Fatalf("If node's EndID = %d, want a non-negative merge-point id", root.EndID)
	}
	if root.EndID == root.ID {
		t.Fatal("If node's EndID must differ from its begin ID")
	}
}

func TestNumberControlSeqHasNoEndID(t *testing.T) {
	in := ident.New()
	root := ir.Seq(ir.Enable(in.Intern("a")))

	analysis.NumberControl(root)

	if root.EndID != -1 {
		t.Fatalf("Seq node's EndID = %d, want -1 (Seq has no merge point)", root.EndID)
	}
}
