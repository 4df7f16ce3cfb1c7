package ir

import "github.com/sarchlab/calyxgo/ident"

// ControlKind tags the sum type of control-tree nodes.
type ControlKind int

const (
	CtrlEmpty ControlKind = iota
	CtrlEnable
	CtrlStaticEnable
	CtrlInvoke
	CtrlSeq
	CtrlPar
	CtrlIf
	CtrlWhile
	CtrlRepeat
)

func (k ControlKind) String() string {
	switch k {
	case CtrlEmpty:
		return "empty"
	case CtrlEnable:
		return "enable"
	case CtrlStaticEnable:
		return "static_enable"
	case CtrlInvoke:
		return "invoke"
	case CtrlSeq:
		return "seq"
	case CtrlPar:
		return "par"
	case CtrlIf:
		return "if"
	case CtrlWhile:
		return "while"
	case CtrlRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// PortBinding pairs a cell's formal port name with the external Port
// supplying (for inputs) or receiving (for outputs) its value, as used
// by Invoke.
type PortBinding struct {
	Formal ident.ID
	Actual *Port
}

// Control is one node of the control tree. Dispatch is on Kind;
// fields unrelated to Kind are zero. Each node may carry a stable
// node-id (ID, -1 until the numbering analysis assigns one) and, for
// CtrlIf, a second id (EndID) modeling the post-branch merge point.
type Control struct {
	Kind  ControlKind
	ID    int
	EndID int
	Attrs Attrs

	// CtrlEnable / CtrlStaticEnable
	Group ident.ID

	// CtrlInvoke
	Cell          ident.ID
	Inputs        []PortBinding
	Outputs       []PortBinding
	CombGroup     ident.ID
	HasCombGroup  bool

	// CtrlSeq / CtrlPar
	Children []*Control

	// CtrlIf / CtrlWhile
	Port             *Port
	CondCombGroup    ident.ID
	HasCondCombGroup bool
	Then             *Control // CtrlIf
	Else             *Control // CtrlIf, nil if no else branch
	Body             *Control // CtrlWhile / CtrlRepeat

	// CtrlRepeat
	NumRepeats uint64
}

// Empty returns the Empty control node.
func Empty() *Control { return &Control{Kind: CtrlEmpty, ID: -1, EndID: -1} }

// Enable returns an Enable node for the named dynamic group.
func Enable(group ident.ID) *Control {
	return &Control{Kind: CtrlEnable, ID: -1, EndID: -1, Group: group}
}

// StaticEnable returns a StaticEnable node for the named static group.
func StaticEnable(group ident.ID) *Control {
	return &Control{Kind: CtrlStaticEnable, ID: -1, EndID: -1, Group: group}
}

// Seq returns a Seq node running children in order.
func Seq(children ...*Control) *Control {
	return &Control{Kind: CtrlSeq, ID: -1, EndID: -1, Children: children}
}

// Par returns a Par node running children concurrently.
func Par(children ...*Control) *Control {
	return &Control{Kind: CtrlPar, ID: -1, EndID: -1, Children: children}
}

// If returns an If node.
func If(port *Port, then, els *Control) *Control {
	return &Control{Kind: CtrlIf, ID: -1, EndID: -1, Port: port, Then: then, Else: els}
}

// While returns a While node.
func While(port *Port, body *Control) *Control {
	return &Control{Kind: CtrlWhile, ID: -1, EndID: -1, Port: port, Body: body}
}

// Repeat returns a Repeat node looping body num times.
func Repeat(body *Control, num uint64) *Control {
	return &Control{Kind: CtrlRepeat, ID: -1, EndID: -1, Body: body, NumRepeats: num}
}

// Walk visits n and every descendant in a deterministic pre-order,
// calling visit on each node. Stops early if visit returns false.
func Walk(n *Control, visit func(*Control) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	switch n.Kind {
	case CtrlSeq, CtrlPar:
		for _, c := range n.Children {
			Walk(c, visit)
		}
	case CtrlIf:
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case CtrlWhile, CtrlRepeat:
		Walk(n.Body, visit)
	}
}
