package ir

import "github.com/sarchlab/calyxgo/ident"

// ProtoKind tags the sum type of Cell prototypes.
type ProtoKind int

const (
	// ProtoPrimitive instantiates a standard-cell-library primitive.
	ProtoPrimitive ProtoKind = iota
	// ProtoComponent instantiates a sibling component.
	ProtoComponent
	// ProtoThis is the enclosing component's own signature cell.
	ProtoThis
	// ProtoConstant is a typed integer constant.
	ProtoConstant
)

// Prototype is the tagged union backing Cell.Proto. Only the fields
// relevant to Kind are meaningful.
type Prototype struct {
	Kind ProtoKind

	// ProtoPrimitive
	LibName ident.ID
	Params  map[string]uint64
	IsComb  bool
	// Latency is the primitive's fixed latency in cycles, if declared
	// by its library entry; nil means dynamic (go/done handshake).
	Latency *uint64

	// ProtoComponent
	ComponentName ident.ID

	// ProtoConstant
	Value uint64
	Width uint64
}

// Cell is an instance of a primitive or sub-component.
type Cell struct {
	Name  ident.ID
	Proto Prototype
	Ports []*Port
	Attrs Attrs
	// Reference marks a cell whose storage is owned by the caller and
	// passed in at invocation time, rather than by this component.
	Reference bool
}

// Port looks up one of c's ports by interned name, returning nil if
// absent.
func (c *Cell) Port(name ident.ID) *Port {
	for _, p := range c.Ports {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PortNames returns the interned names of all of c's ports, in
// declaration order.
func (c *Cell) PortNames() []ident.ID {
	names := make([]ident.ID, len(c.Ports))
	for i, p := range c.Ports {
		names[i] = p.Name
	}
	return names
}

// IsStateful reports whether the cell is a non-combinational primitive
// or sub-component instance — the share-class the live-range analysis
// and cell-sharing pass call "stateful" as opposed to "combinational."
func (c *Cell) IsStateful() bool {
	switch c.Proto.Kind {
	case ProtoPrimitive:
		return !c.Proto.IsComb
	case ProtoComponent:
		return true
	default:
		return false
	}
}
