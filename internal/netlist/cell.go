// Package netlist models an immutable gate-level netlist graph and
// indexes it for constant-time structural queries (cells by kind,
// fan-in/fan-out, output-driver lookup). It is the target graph type
// searched by internal/subgraph and the needle graph loaded by
// pkg/pattern/netlistpat.
//
// Loading and elaborating a netlist from an HDL source is explicitly out
// of scope here (spec non-goal); the graph is produced by an external
// Driver (driver.go) and treated as frozen once built.
package netlist

import "fmt"

// CellKind is the closed enum of gate/IO primitive kinds a cell may have.
// Name/Debug cells carry no structural information and are excluded from
// the index entirely (§4.A).
type CellKind int

const (
	And CellKind = iota
	Or
	Xor
	Not
	Buf
	Mux
	Adc
	Dff
	Sdffe
	Eq
	ULt
	SLt
	Mul
	Aig
	Input
	Output
	Name
)

func (k CellKind) String() string {
	switch k {
	case And:
		return "And"
	case Or:
		return "Or"
	case Xor:
		return "Xor"
	case Not:
		return "Not"
	case Buf:
		return "Buf"
	case Mux:
		return "Mux"
	case Adc:
		return "Adc"
	case Dff:
		return "Dff"
	case Sdffe:
		return "Sdffe"
	case Eq:
		return "Eq"
	case ULt:
		return "ULt"
	case SLt:
		return "SLt"
	case Mul:
		return "Mul"
	case Aig:
		return "Aig"
	case Input:
		return "Input"
	case Output:
		return "Output"
	case Name:
		return "Name"
	default:
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
}

// Commutative reports whether the two-operand positions of a cell of this
// kind must both be tried during input alignment (§4.B). Mux and Adc have
// a distinguished operand (sel, cin) and are never commutative.
func (k CellKind) Commutative() bool {
	switch k {
	case And, Or, Xor, Eq, Aig, Mul:
		return true
	default:
		return false
	}
}

// Trit is a three-valued logic constant: 0, 1 or X (don't care/unknown).
type Trit int8

const (
	Trit0 Trit = iota
	Trit1
	TritX
)

func (t Trit) String() string {
	switch t {
	case Trit0:
		return "0"
	case Trit1:
		return "1"
	default:
		return "x"
	}
}

// PhysicalCellId is a stable identifier for a cell, valid for the lifetime
// of the loaded design. It survives re-indexing; GraphNodeIdx does not.
type PhysicalCellId uint64

// GraphNodeIdx is a search-local, zero-based node index assigned by Index
// in cell order. It is only meaningful relative to one Index.
type GraphNodeIdx int

// Direction is a port's signal direction.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	default:
		return "?"
	}
}

// PortDecl declares one named port of a module-shaped pattern.
type PortDecl struct {
	Name      string
	Direction Direction
}

// CellInput is one aligned input slot of a cell: either a bit sourced from
// another cell's output, or a fixed logical constant.
type CellInput struct {
	IsConst bool
	Const   Trit

	// Source identifies the driving cell when !IsConst. Prior to indexing
	// this is a PhysicalCellId (raw netlists are built before any
	// GraphNodeIdx exists); Index translates it during Build.
	Source PhysicalCellId
	Bit    int

	// Operand groups this entry with the other bits of the same named
	// operand (e.g. "a"=0, "b"=1 for a two-input gate; "sel"=0, "a"=1,
	// "b"=2 for Mux; "a"=0, "b"=1, "cin"=2 for Adc). Commutative-kind
	// matching swaps whole operand groups; match-length policy (§4.B)
	// compares bit sequences within one operand group.
	Operand int
}

// ConstInput builds a constant CellInput for operand 0.
func ConstInput(t Trit) CellInput { return CellInput{IsConst: true, Const: t} }

// CellRefInput builds a cell-sourced CellInput for operand 0, reading the
// given bit of src.
func CellRefInput(src PhysicalCellId, bit int) CellInput {
	return CellInput{IsConst: false, Source: src, Bit: bit}
}

// Op sets the operand group of an already-built CellInput (chainable).
func (in CellInput) Op(operand int) CellInput {
	in.Operand = operand
	return in
}

// RawCell is one cell of an as-loaded netlist, prior to indexing. Inputs
// reference other cells by their stable PhysicalCellId.
type RawCell struct {
	ID     PhysicalCellId
	Kind   CellKind
	Inputs []CellInput

	// InputName/OutputName carry the module port name for Input/Output
	// cells (primary ports); empty for internal gates.
	InputName  string
	OutputName string

	SourceLoc *SourceLocation
}

// SourceLocation is optional provenance metadata surfaced by reporting
// (component H); never required for search correctness.
type SourceLocation struct {
	File string
	Line int
}

// RawNetlist is the frozen, externally-produced graph handed to Index.Build.
// It is exactly the output the spec's "netlist loader" external
// collaborator is responsible for producing (see driver.go); this module
// never constructs one from an HDL source itself.
type RawNetlist struct {
	Cells []RawCell
}

// Cell is the indexed view of a RawCell: its kind, its aligned input
// vector (now resolved to GraphNodeIdx where possible), and its stable id.
type Cell struct {
	ID         PhysicalCellId
	Kind       CellKind
	Inputs     []ResolvedInput
	InputName  string
	OutputName string
	SourceLoc  *SourceLocation
}

// ResolvedInput is a CellInput with its source translated to a
// GraphNodeIdx valid within one Index (or marked constant/dangling).
type ResolvedInput struct {
	IsConst bool
	Const   Trit

	// Resolved is true when Source could be translated to a node within
	// the same Index (the normal case). If false the input named a
	// PhysicalCellId outside this netlist (dangling reference) and the
	// matcher treats it as never-compatible.
	Resolved bool
	Source   GraphNodeIdx
	Bit      int
	Operand  int
}
