package netlist

import "fmt"

// Wire is a named signal reference appearing in a match row: either a bit
// on a cell's output, a primary port, or a fixed constant. Wire mirrors
// the shape of the teacher's Term interface (String/Equal) so wires can be
// compared and rendered the same uniform way logic terms are.
type Wire interface {
	fmt.Stringer
	Equal(other Wire) bool
	isWire()
}

// CellWire references bit `Bit` of the output of cell `Cell`.
type CellWire struct {
	Cell PhysicalCellId
	Bit  int
}

func (w CellWire) String() string      { return fmt.Sprintf("cell_%d[%d]", uint64(w.Cell), w.Bit) }
func (w CellWire) isWire()             {}
func (w CellWire) Equal(o Wire) bool {
	other, ok := o.(CellWire)
	return ok && other.Cell == w.Cell && other.Bit == w.Bit
}

// PortWire references a primary port of the enclosing module by name.
type PortWire struct {
	Name      string
	Direction Direction
}

func (w PortWire) String() string { return fmt.Sprintf("port_%s", w.Name) }
func (w PortWire) isWire()        {}
func (w PortWire) Equal(o Wire) bool {
	other, ok := o.(PortWire)
	return ok && other.Name == w.Name
}

// ConstWire is a fixed logical constant (0/1/x).
type ConstWire struct {
	Value Trit
}

func (w ConstWire) String() string { return fmt.Sprintf("const_%s", w.Value) }
func (w ConstWire) isWire()        {}
func (w ConstWire) Equal(o Wire) bool {
	other, ok := o.(ConstWire)
	return ok && other.Value == w.Value
}
