// Package variant implements the fourth pattern kind (component E.4,
// spec §4.E.4): a tagged union over N arms that share a common port
// interface, letting a query match "either shape A or shape B".
package variant

import (
	"fmt"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/selector"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Arm declares one alternative implementation: the pattern it dispatches
// to, plus a path, rooted at that pattern's own row, for every common
// port this variant exposes.
type Arm struct {
	Name    string
	TypeID  table.TypeId
	Exec    plan.ExecInfo
	PortMap map[string]selector.Selector
}

// Match is the row type every variant.Def produces: which arm matched,
// its row index in that arm's own table, and the common ports resolved
// through that arm's port mapping.
type Match struct {
	ArmIndex int
	InnerRef uint32
	Ports    map[string]netlist.Wire
}

// Def declares one variant pattern.
type Def struct {
	Name        string
	Arms        []Arm
	CommonPorts []netlist.PortDecl
}

func (d Def) TypeID() table.TypeId { return table.TypeId(d.Name) }
func (d Def) Kind() pattern.Kind   { return pattern.KindVariant }

// Schema builds a discriminant column (which arm matched), an inner_ref
// column (the matched row's index in that arm's table), and one Wire
// column per common port. Both discriminant and inner_ref are
// ColMetadata rather than ColSub: unlike composite's submodule columns,
// which always point at one fixed table, inner_ref's target table
// varies per row with the discriminant, so it cannot carry a single
// static SubType and is not selector-addressable from outside — callers
// needing the matched arm's own row dereference it with ArmIndex/
// InnerRef directly, the same two values the schema stores.
func (d Def) Schema() table.Schema {
	cols := make([]table.ColumnDef, 0, 2+len(d.CommonPorts))
	cols = append(cols, table.ColumnDef{Name: "discriminant", Kind: table.ColMetadata, Provenance: true})
	cols = append(cols, table.ColumnDef{Name: "inner_ref", Kind: table.ColMetadata, Provenance: true})
	for _, p := range d.CommonPorts {
		cols = append(cols, table.ColumnDef{Name: p.Name, Kind: table.ColWire, Direction: table.Direction(p.Direction)})
	}
	return table.Schema{Columns: cols}
}

func (d Def) ExecInfo() plan.ExecInfo {
	deps := make([]plan.ExecInfo, len(d.Arms))
	for i, a := range d.Arms {
		deps[i] = a.Exec
	}
	return plan.ExecInfo{
		TypeID: d.TypeID(),
		Deps:   deps,
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			return d.search(ctx)
		},
	}
}

// search unions every arm's rows into one table, mapping each arm's
// matched common ports via its PortMap and tracking provenance via the
// discriminant/inner_ref pair.
func (d Def) search(ctx *plan.Context) (table.AnyTable, error) {
	schema := d.Schema()
	discrimIdx := schema.IndexOf("discriminant")
	innerIdx := schema.IndexOf("inner_ref")

	armTables := make([]table.AnyTable, len(d.Arms))
	for i, a := range d.Arms {
		at, ok := ctx.Get(a.TypeID)
		if !ok {
			return nil, fmt.Errorf("variant: %s: arm %s (%s) has not been published", d.Name, a.Name, a.TypeID)
		}
		armTables[i] = at
	}

	tbl := table.NewNamed[Match](d.TypeID(), schema)
	for armIdx, a := range d.Arms {
		at := armTables[armIdx]
		for row := 0; row < at.RowCount(); row++ {
			entries := make([]table.Entry, len(schema.Columns))
			for i := range entries {
				entries[i] = table.NullEntry()
			}
			entries[discrimIdx] = table.MetadataEntry(uint32(armIdx))
			entries[innerIdx] = table.MetadataEntry(uint32(row))

			for _, p := range d.CommonPorts {
				sel, ok := a.PortMap[p.Name]
				if !ok {
					continue
				}
				colIdx := schema.IndexOf(p.Name)
				if colIdx < 0 {
					continue
				}
				res, err := selector.Resolve(ctx, a.TypeID, uint32(row), sel)
				if err != nil || res.Kind != table.ColWire || res.Wire == nil {
					continue
				}
				entries[colIdx] = table.WireEntry(res.Wire)
			}

			if _, err := tbl.PushRow(entries); err != nil {
				return nil, fmt.Errorf("variant: %s: %w", d.Name, err)
			}
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
	discrimIdx := schema.IndexOf("discriminant")
	innerIdx := schema.IndexOf("inner_ref")
	if discrimIdx < 0 || innerIdx < 0 || row[discrimIdx].Null || row[innerIdx].Null {
		return Match{}, false
	}

	m := Match{
		ArmIndex: int(row[discrimIdx].Metadata),
		InnerRef: row[innerIdx].Metadata,
		Ports:    make(map[string]netlist.Wire),
	}
	for i, col := range schema.Columns {
		if col.Kind == table.ColWire && !row[i].Null {
			m.Ports[col.Name] = row[i].Wire
		}
	}
	return m, true
}

var _ pattern.Pattern[Match] = Def{}
