package fixture

import "github.com/gitrdm/svql/internal/netlist"

// Builder assembles a netlist.RawNetlist incrementally with small,
// sequential, human-readable PhysicalCellIds (1, 2, 3, ...), which makes
// hand-written scenario tests (S1-S6 in spec.md §8) easy to read and
// assert against. Production-shaped fixtures that must not collide across
// independently built sub-netlists should prefer NextID instead.
type Builder struct {
	next  uint64
	cells []netlist.RawCell
}

// NewBuilder creates an empty netlist builder.
func NewBuilder() *Builder {
	return &Builder{next: 1}
}

func (b *Builder) alloc() netlist.PhysicalCellId {
	id := netlist.PhysicalCellId(b.next)
	b.next++
	return id
}

// Gate appends a cell of the given kind with the given inputs and returns
// its id for use as a source in later Gate/Output calls. Each input whose
// Operand is 0 is renumbered to its argument position (input[i].Operand
// = i), giving every input its own single-bit operand group, which is the
// right shape for every scalar gate kind used in this module's scenarios
// (And/Or/Xor/Not/Buf/Mux/Adc/Dff/...). An input already given a nonzero
// operand with .Op keeps it; an explicit .Op(0) is renumbered like any
// other operand-0 input.
func (b *Builder) Gate(kind netlist.CellKind, inputs ...netlist.CellInput) netlist.PhysicalCellId {
	id := b.alloc()
	numbered := make([]netlist.CellInput, len(inputs))
	for i, in := range inputs {
		if in.Operand == 0 {
			in = in.Op(i)
		}
		numbered[i] = in
	}
	b.cells = append(b.cells, netlist.RawCell{ID: id, Kind: kind, Inputs: numbered})
	return id
}

// Input appends a primary input cell named name and returns its id; other
// cells reference it as a zero-bit source the same way they would any
// gate.
func (b *Builder) Input(name string) netlist.PhysicalCellId {
	id := b.alloc()
	b.cells = append(b.cells, netlist.RawCell{ID: id, Kind: netlist.Input, InputName: name})
	return id
}

// Output appends a primary output cell named name driven by src/bit.
func (b *Builder) Output(name string, src netlist.PhysicalCellId, bit int) netlist.PhysicalCellId {
	id := b.alloc()
	b.cells = append(b.cells, netlist.RawCell{
		ID:         id,
		Kind:       netlist.Output,
		OutputName: name,
		Inputs:     []netlist.CellInput{netlist.CellRefInput(src, bit)},
	})
	return id
}

// Build finalizes the accumulated cells into a RawNetlist.
func (b *Builder) Build() netlist.RawNetlist {
	return netlist.RawNetlist{Cells: append([]netlist.RawCell(nil), b.cells...)}
}

// Src is a convenience for building a single-bit cell-sourced CellInput.
func Src(id netlist.PhysicalCellId) netlist.CellInput {
	return netlist.CellRefInput(id, 0)
}

// SrcBit is a convenience for building a cell-sourced CellInput at a
// specific bit.
func SrcBit(id netlist.PhysicalCellId, bit int) netlist.CellInput {
	return netlist.CellRefInput(id, bit)
}

// Const is a convenience for building a constant CellInput.
func Const(t netlist.Trit) netlist.CellInput {
	return netlist.ConstInput(t)
}
