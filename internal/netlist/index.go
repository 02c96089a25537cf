package netlist

import "fmt"

// Index is the queryable index over a frozen RawNetlist: cells by kind,
// fan-in/fan-out lookups, and physical-id/node-index translation, all
// built in a single linear pass over the cell and edge counts (§4.A).
//
// Index is immutable after Build and safe for concurrent readers; it is
// shared by reference-count across everything that searches the same
// design within one process (see DesignContainer).
type Index struct {
	cells []Cell // in RawNetlist order; informational (Name) cells excluded

	byKind map[CellKind][]GraphNodeIdx

	physToNode map[PhysicalCellId]GraphNodeIdx
	nodeToPhys []PhysicalCellId

	fanin  [][]GraphNodeIdx // deduplicated, built eagerly
	fanout [][]GraphNodeIdx
}

// Build indexes a RawNetlist in O(cells + edges) time.
func Build(raw RawNetlist) *Index {
	idx := &Index{
		byKind:     make(map[CellKind][]GraphNodeIdx),
		physToNode: make(map[PhysicalCellId]GraphNodeIdx),
	}

	for _, rc := range raw.Cells {
		if rc.Kind == Name {
			continue // purely informational, excluded from the index
		}
		node := GraphNodeIdx(len(idx.cells))
		idx.physToNode[rc.ID] = node
		idx.nodeToPhys = append(idx.nodeToPhys, rc.ID)
		idx.cells = append(idx.cells, Cell{
			ID:         rc.ID,
			Kind:       rc.Kind,
			InputName:  rc.InputName,
			OutputName: rc.OutputName,
			SourceLoc:  rc.SourceLoc,
			// Inputs resolved below, once every node has an index.
		})
		idx.byKind[rc.Kind] = append(idx.byKind[rc.Kind], node)
	}

	// Second pass: translate each kept cell's inputs now that every
	// PhysicalCellId in this netlist has a GraphNodeIdx.
	keepIdx := 0
	for _, rc := range raw.Cells {
		if rc.Kind == Name {
			continue
		}
		resolved := make([]ResolvedInput, len(rc.Inputs))
		for i, in := range rc.Inputs {
			if in.IsConst {
				resolved[i] = ResolvedInput{IsConst: true, Const: in.Const, Operand: in.Operand}
				continue
			}
			node, ok := idx.physToNode[in.Source]
			resolved[i] = ResolvedInput{Resolved: ok, Source: node, Bit: in.Bit, Operand: in.Operand}
		}
		idx.cells[keepIdx].Inputs = resolved
		keepIdx++
	}

	idx.fanin = make([][]GraphNodeIdx, len(idx.cells))
	idx.fanout = make([][]GraphNodeIdx, len(idx.cells))
	for n, c := range idx.cells {
		seen := make(map[GraphNodeIdx]bool)
		for _, in := range c.Inputs {
			if in.IsConst || !in.Resolved {
				continue
			}
			if !seen[in.Source] {
				seen[in.Source] = true
				idx.fanin[n] = append(idx.fanin[n], in.Source)
				idx.fanout[in.Source] = append(idx.fanout[in.Source], GraphNodeIdx(n))
			}
		}
	}

	return idx
}

// GateCount returns the number of indexed (non-informational) cells.
func (idx *Index) GateCount() int { return len(idx.cells) }

// CellsOfKind returns every node of the given kind, in netlist order.
func (idx *Index) CellsOfKind(k CellKind) []GraphNodeIdx {
	return idx.byKind[k]
}

// Fanin returns the deduplicated set of source cells feeding node n.
func (idx *Index) Fanin(n GraphNodeIdx) []GraphNodeIdx {
	if int(n) < 0 || int(n) >= len(idx.fanin) {
		return nil
	}
	return idx.fanin[n]
}

// Fanout returns the deduplicated set of cells fed by node n's output.
func (idx *Index) Fanout(n GraphNodeIdx) []GraphNodeIdx {
	if int(n) < 0 || int(n) >= len(idx.fanout) {
		return nil
	}
	return idx.fanout[n]
}

// ResolvePhysical translates a GraphNodeIdx to its stable PhysicalCellId.
func (idx *Index) ResolvePhysical(n GraphNodeIdx) (PhysicalCellId, bool) {
	if int(n) < 0 || int(n) >= len(idx.nodeToPhys) {
		return 0, false
	}
	return idx.nodeToPhys[n], true
}

// ResolveNode translates a stable PhysicalCellId back to a GraphNodeIdx.
func (idx *Index) ResolveNode(id PhysicalCellId) (GraphNodeIdx, bool) {
	n, ok := idx.physToNode[id]
	return n, ok
}

// GetCell returns the indexed cell record at node n.
func (idx *Index) GetCell(n GraphNodeIdx) (Cell, bool) {
	if int(n) < 0 || int(n) >= len(idx.cells) {
		return Cell{}, false
	}
	return idx.cells[n], true
}

// FindDriver resolves the wire driving the given bit of node n's Nth
// input, or returns the fixed constant if that input is not cell-sourced.
// It mirrors the "output-driver lookup" described in §4.A
// (find_cell(net) -> Ok((source, bit)) | Err(trit)).
func (idx *Index) FindDriver(n GraphNodeIdx, inputIdx int) (Wire, error) {
	cell, ok := idx.GetCell(n)
	if !ok {
		return nil, fmt.Errorf("netlist: FindDriver: node %d out of range", n)
	}
	if inputIdx < 0 || inputIdx >= len(cell.Inputs) {
		return nil, fmt.Errorf("netlist: FindDriver: node %d has no input %d", n, inputIdx)
	}
	in := cell.Inputs[inputIdx]
	if in.IsConst {
		return ConstWire{Value: in.Const}, nil
	}
	if !in.Resolved {
		return nil, fmt.Errorf("netlist: FindDriver: node %d input %d is a dangling reference", n, inputIdx)
	}
	phys, ok := idx.ResolvePhysical(in.Source)
	if !ok {
		return nil, fmt.Errorf("netlist: FindDriver: source node %d has no physical id", in.Source)
	}
	return CellWire{Cell: phys, Bit: in.Bit}, nil
}

// OutputWire returns the wire representing node n's own output bit 0,
// the wire other cells reference when they drive from n.
func (idx *Index) OutputWire(n GraphNodeIdx) (Wire, error) {
	phys, ok := idx.ResolvePhysical(n)
	if !ok {
		return nil, fmt.Errorf("netlist: OutputWire: node %d out of range", n)
	}
	return CellWire{Cell: phys, Bit: 0}, nil
}
