package debug

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/calyxgo/interp"
	"github.com/sarchlab/calyxgo/ir"
)

// DumpCells renders every cell's current port values as an aligned
// table, the same shape a CGRA debugger would use to print tile state.
func (insp *Inspector) DumpCells() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Cell", "Port", "Direction", "Value"})

	for _, cell := range insp.comp.Cells {
		for _, p := range cell.Ports {
			v := insp.it.Get(cell.Name, p.Name)
			t.AppendRow(table.Row{
				insp.c.Interner.Name(cell.Name),
				insp.c.Interner.Name(p.Name),
				p.Direction.String(),
				formatValue(v),
			})
		}
	}
	return t.Render()
}

// DumpGroups renders every group's go/done holes and kind.
func (insp *Inspector) DumpGroups() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Group", "Kind", "Go", "Done"})

	for _, g := range insp.comp.Groups {
		goVal, doneVal := "—", "—"
		if g.GoPort != nil {
			goVal = formatValue(insp.it.Get(g.Name, g.GoPort.Name))
		}
		if g.DonePort != nil {
			doneVal = formatValue(insp.it.Get(g.Name, g.DonePort.Name))
		}
		t.AppendRow(table.Row{insp.c.Interner.Name(g.Name), groupKindName(g.Kind), goVal, doneVal})
	}
	return t.Render()
}

func groupKindName(k ir.GroupKind) string {
	switch k {
	case ir.GroupDynamic:
		return "dynamic"
	case ir.GroupStatic:
		return "static"
	case ir.GroupComb:
		return "comb"
	default:
		return "unknown"
	}
}

func formatValue(v interp.Value) string {
	if !v.Defined {
		return "x"
	}
	return fmt.Sprintf("%d", v.Bits)
}
