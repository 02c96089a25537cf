// Package primitive implements the first pattern kind (component E.1,
// spec §4.E.1): a single cell of one fixed CellKind, optionally narrowed
// by a filter predicate, with one result row per matching cell.
package primitive

import (
	"fmt"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Match is the row type every primitive.Def produces: one wire per
// declared port, keyed by port name. All primitive patterns share this
// Go type regardless of which CellKind or Name they declare (a Def for
// "And" and one for "Or" both produce Match rows) — their identity comes
// from Def.Name via table.NewNamed, not from T's reflected type name.
type Match struct {
	Ports map[string]netlist.Wire
}

// Def declares one primitive pattern: match every cell of Kind, in
// netlist order, keeping those for which Filter (if set) returns true.
// InputPorts names each input port positionally: InputPorts[i] is the
// name bound to the wire driving cell.Inputs[i]. This assumes one bit
// per declared input port, the shape every scalar gate kind in this
// module's scope uses (And/Or/Xor/Not/Buf/Eq/ULt/SLt/Mul/Aig; Mux/Adc/
// Dff/Sdffe declare their distinguished operands the same positional
// way — "sel","a","b" for Mux, "a","b","cin" for Adc).
type Def struct {
	Name       string
	Kind       netlist.CellKind
	InputPorts []string
	OutputPort string
	Filter     func(netlist.Cell) bool
}

// TypeID is the Def's Name, used as its table's identity in the Store.
func (d Def) TypeID() table.TypeId { return table.TypeId(d.Name) }

// Kind reports this Def's pattern kind.
func (d Def) Kind() pattern.Kind { return pattern.KindPrimitive }

// Schema builds the fixed column layout: one Wire column per input port
// in declared order, then one Wire column for the output port.
func (d Def) Schema() table.Schema {
	cols := make([]table.ColumnDef, 0, len(d.InputPorts)+1)
	for _, name := range d.InputPorts {
		cols = append(cols, table.ColumnDef{Name: name, Kind: table.ColWire, Direction: table.DirIn})
	}
	cols = append(cols, table.ColumnDef{Name: d.OutputPort, Kind: table.ColWire, Direction: table.DirOut})
	return table.Schema{Columns: cols}
}

// ExecInfo builds this Def's execution-plan node. Primitive patterns
// have no dependencies: they read only the haystack.
func (d Def) ExecInfo() plan.ExecInfo {
	return plan.ExecInfo{
		TypeID: d.TypeID(),
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			return d.search(ctx)
		},
	}
}

func (d Def) search(ctx *plan.Context) (table.AnyTable, error) {
	design, err := ctx.Haystack()
	if err != nil {
		return nil, err
	}
	idx := design.Index
	schema := d.Schema()

	tbl := table.NewNamed[Match](d.TypeID(), schema)
	for _, n := range idx.CellsOfKind(d.Kind) {
		cell, ok := idx.GetCell(n)
		if !ok {
			continue
		}
		if d.Filter != nil && !d.Filter(cell) {
			continue
		}
		if len(cell.Inputs) < len(d.InputPorts) {
			continue
		}

		row := make([]table.Entry, 0, len(d.InputPorts)+1)
		skip := false
		for i := range d.InputPorts {
			w, err := idx.FindDriver(n, i)
			if err != nil {
				skip = true
				break
			}
			row = append(row, table.WireEntry(w))
		}
		if skip {
			continue
		}
		out, err := idx.OutputWire(n)
		if err != nil {
			continue
		}
		row = append(row, table.WireEntry(out))

		if _, err := tbl.PushRow(row); err != nil {
			return nil, fmt.Errorf("primitive: %s: %w", d.Name, err)
		}
	}

	return tbl.Deduplicate(ctx.Config.Dedupe), nil
}

// Rehydrate turns one result row back into a Match, binding each schema
// column's wire to its port name.
func (d Def) Rehydrate(row []table.Entry, _ *store.Store) (Match, bool) {
	schema := d.Schema()
	if len(row) != len(schema.Columns) {
		return Match{}, false
	}
	ports := make(map[string]netlist.Wire, len(row))
	for i, col := range schema.Columns {
		if row[i].Null {
			continue
		}
		ports[col.Name] = row[i].Wire
	}
	return Match{Ports: ports}, true
}

var _ pattern.Pattern[Match] = Def{}
