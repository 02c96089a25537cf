// Package netlistpat implements the second pattern kind (component E.2,
// spec §4.E.2): a small needle netlist matched against the haystack via
// internal/subgraph, exposing its declared ports plus one metadata
// column per internal (non-port) needle cell for report introspection.
package netlistpat

import (
	"fmt"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/subgraph"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Match is the row type every netlistpat.Def produces: the wire bound to
// each declared port, plus the haystack PhysicalCellId standing in for
// each internal (non-port) needle cell, keyed by the needle's own
// GraphNodeIdx for report rendering.
type Match struct {
	Ports    map[string]netlist.Wire
	Internal map[int]netlist.PhysicalCellId
}

// Def declares one netlist pattern: a needle graph (built the same way a
// haystack fixture is, via fixture.Builder or by hand) plus the port
// declarations forming its external interface. Needle Input/Output cell
// names must match the declared Ports names.
type Def struct {
	Name   string
	Needle netlist.RawNetlist
	Ports  []netlist.PortDecl
}

func (d Def) TypeID() table.TypeId { return table.TypeId(d.Name) }
func (d Def) Kind() pattern.Kind   { return pattern.KindNetlist }

// internalCellColumn names the metadata column standing in for needle
// node n, a gate cell that is not itself a declared port.
func internalCellColumn(n netlist.GraphNodeIdx) string {
	return fmt.Sprintf("__internal_cell_%d", int(n))
}

// Schema builds one Wire column per declared port, followed by one
// Metadata column per internal (non-Input/Output) needle cell, in
// ascending node-index order.
func (d Def) Schema() table.Schema {
	needleIdx := netlist.Build(d.Needle)
	cols := make([]table.ColumnDef, 0, len(d.Ports))
	for _, p := range d.Ports {
		cols = append(cols, table.ColumnDef{Name: p.Name, Kind: table.ColWire, Direction: table.Direction(p.Direction)})
	}
	for n := 0; n < needleIdx.GateCount(); n++ {
		node := netlist.GraphNodeIdx(n)
		cell, ok := needleIdx.GetCell(node)
		if !ok || cell.Kind == netlist.Input || cell.Kind == netlist.Output {
			continue
		}
		cols = append(cols, table.ColumnDef{Name: internalCellColumn(node), Kind: table.ColMetadata})
	}
	return table.Schema{Columns: cols}
}

func (d Def) ExecInfo() plan.ExecInfo {
	return plan.ExecInfo{
		TypeID: d.TypeID(),
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			return d.search(ctx)
		},
	}
}

// findNamedNode returns the needle node declaring port name (an Input or
// Output cell whose InputName/OutputName matches).
func findNamedNode(needleIdx *netlist.Index, name string, dir netlist.Direction) (netlist.GraphNodeIdx, bool) {
	wantKind := netlist.Input
	if dir == netlist.DirOut {
		wantKind = netlist.Output
	}
	for n := 0; n < needleIdx.GateCount(); n++ {
		node := netlist.GraphNodeIdx(n)
		cell, ok := needleIdx.GetCell(node)
		if !ok || cell.Kind != wantKind {
			continue
		}
		if (wantKind == netlist.Input && cell.InputName == name) || (wantKind == netlist.Output && cell.OutputName == name) {
			return node, true
		}
	}
	return 0, false
}

// resolveInputPort finds the wire driving needle input node src, by
// locating a mapped gate consumer of src and reading its matched
// haystack counterpart's driver at the same input position. Needle
// Input cells are module-boundary wildcards (§9) and never appear in an
// Assignment directly, so their resolved wire is always read through a
// consumer rather than a direct node lookup.
func resolveInputPort(needleIdx, haystackIdx *netlist.Index, asg subgraph.Assignment, src netlist.GraphNodeIdx) (netlist.Wire, bool) {
	for n := 0; n < needleIdx.GateCount(); n++ {
		node := netlist.GraphNodeIdx(n)
		cell, ok := needleIdx.GetCell(node)
		if !ok {
			continue
		}
		for i, in := range cell.Inputs {
			if in.IsConst || !in.Resolved || in.Source != src {
				continue
			}
			hNode, mapped := asg[node]
			if !mapped {
				continue
			}
			w, err := haystackIdx.FindDriver(hNode, i)
			if err != nil {
				continue
			}
			return w, true
		}
	}
	return nil, false
}

// resolveOutputPort finds the wire driving needle output node out: the
// haystack counterpart of whatever gate drives out's sole input.
func resolveOutputPort(needleIdx, haystackIdx *netlist.Index, asg subgraph.Assignment, out netlist.GraphNodeIdx) (netlist.Wire, bool) {
	cell, ok := needleIdx.GetCell(out)
	if !ok || len(cell.Inputs) == 0 {
		return nil, false
	}
	in := cell.Inputs[0]
	if in.IsConst {
		return netlist.ConstWire{Value: in.Const}, true
	}
	if !in.Resolved {
		return nil, false
	}
	hNode, mapped := asg[in.Source]
	if !mapped {
		return nil, false
	}
	w, err := haystackIdx.OutputWire(hNode)
	if err != nil {
		return nil, false
	}
	return w, true
}

func (d Def) search(ctx *plan.Context) (table.AnyTable, error) {
	design, err := ctx.Haystack()
	if err != nil {
		return nil, err
	}
	needleIdx := netlist.Build(d.Needle)
	haystackIdx := design.Index
	schema := d.Schema()

	assignments := subgraph.Search(needleIdx, haystackIdx, subgraph.Config{MatchLength: ctx.Config.MatchLength})

	tbl := table.NewNamed[Match](d.TypeID(), schema)
	for _, asg := range assignments {
		row := make([]table.Entry, len(schema.Columns))
		for i := range row {
			row[i] = table.NullEntry()
		}

		for _, p := range d.Ports {
			node, ok := findNamedNode(needleIdx, p.Name, p.Direction)
			if !ok {
				continue
			}
			var w netlist.Wire
			var resolved bool
			if p.Direction == netlist.DirOut {
				w, resolved = resolveOutputPort(needleIdx, haystackIdx, asg, node)
			} else {
				w, resolved = resolveInputPort(needleIdx, haystackIdx, asg, node)
			}
			if !resolved {
				continue
			}
			if colIdx := schema.IndexOf(p.Name); colIdx >= 0 {
				row[colIdx] = table.WireEntry(w)
			}
		}

		for n, h := range asg {
			colIdx := schema.IndexOf(internalCellColumn(n))
			if colIdx < 0 {
				continue
			}
			phys, ok := haystackIdx.ResolvePhysical(h)
			if !ok {
				continue
			}
			row[colIdx] = table.MetadataEntry(uint32(phys))
		}

		if _, err := tbl.PushRow(row); err != nil {
			return nil, fmt.Errorf("netlistpat: %s: %w", d.Name, err)
		}
	}

	return tbl.Deduplicate(ctx.Config.Dedupe), nil
}

// Rehydrate turns a result row back into a Match.
func (d Def) Rehydrate(row []table.Entry, _ *store.Store) (Match, bool) {
	schema := d.Schema()
	if len(row) != len(schema.Columns) {
		return Match{}, false
	}
	m := Match{Ports: make(map[string]netlist.Wire), Internal: make(map[int]netlist.PhysicalCellId)}
	for i, col := range schema.Columns {
		if row[i].Null {
			continue
		}
		switch col.Kind {
		case table.ColWire:
			m.Ports[col.Name] = row[i].Wire
		case table.ColMetadata:
			var node int
			if _, err := fmt.Sscanf(col.Name, "__internal_cell_%d", &node); err == nil {
				m.Internal[node] = netlist.PhysicalCellId(row[i].Metadata)
			}
		}
	}
	return m, true
}

var _ pattern.Pattern[Match] = Def{}
