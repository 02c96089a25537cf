// Package composite implements the third pattern kind (component E.3,
// spec §4.E.3): a fixed set of named submodule patterns joined into one
// structure, with named port aliases and wire-equality connection
// constraints between submodules.
package composite

import (
	"fmt"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/selector"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Submodule declares one named dependency of a composite pattern: which
// other pattern's table to join against.
type Submodule struct {
	Name   string
	TypeID table.TypeId
	Exec   plan.ExecInfo
}

// Alias exposes one submodule port (reached via Target, a selector path
// rooted at a submodule name) as a named port of the composite itself.
type Alias struct {
	PortName  string
	Direction table.Direction
	Target    selector.Selector
}

// Connection requires the wires reached by From and To (each a selector
// path rooted at a submodule name) to be the identical wire — the join
// predicate that turns independent submodule matches into one connected
// structure (§4.E.3 "connections").
type Connection struct {
	From selector.Selector
	To   selector.Selector
}

// Match is the row type every composite.Def produces: one Sub reference
// per declared submodule, plus a resolved wire per declared alias.
type Match struct {
	Subs    map[string]uint32
	Aliases map[string]table.Entry
}

// Def declares one composite pattern.
type Def struct {
	Name        string
	Submodules  []Submodule
	Aliases     []Alias
	Connections []Connection
}

func (d Def) TypeID() table.TypeId { return table.TypeId(d.Name) }
func (d Def) Kind() pattern.Kind   { return pattern.KindComposite }

// Schema builds one Sub column per submodule followed by one Wire column
// per alias, in declaration order.
func (d Def) Schema() table.Schema {
	cols := make([]table.ColumnDef, 0, len(d.Submodules)+len(d.Aliases))
	for _, s := range d.Submodules {
		cols = append(cols, table.ColumnDef{Name: s.Name, Kind: table.ColSub, SubType: s.TypeID})
	}
	for _, a := range d.Aliases {
		cols = append(cols, table.ColumnDef{Name: a.PortName, Kind: table.ColWire, Direction: a.Direction})
	}
	return table.Schema{Columns: cols}
}

func (d Def) ExecInfo() plan.ExecInfo {
	deps := make([]plan.ExecInfo, len(d.Submodules))
	for i, s := range d.Submodules {
		deps[i] = s.Exec
	}
	return plan.ExecInfo{
		TypeID: d.TypeID(),
		Deps:   deps,
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			return d.search(ctx)
		},
	}
}

// partialRow is a candidate row under construction: one Sub value set
// per joined submodule so far, Null elsewhere.
type partialRow struct {
	entries []table.Entry
}

func (d Def) search(ctx *plan.Context) (table.AnyTable, error) {
	schema := d.Schema()
	subTables := make([]table.AnyTable, len(d.Submodules))
	for i, s := range d.Submodules {
		at, ok := ctx.Get(s.TypeID)
		if !ok {
			return nil, fmt.Errorf("composite: %s: submodule %s (%s) has not been published", d.Name, s.Name, s.TypeID)
		}
		subTables[i] = at
	}

	if len(d.Submodules) == 0 {
		tbl := table.NewNamed[Match](d.TypeID(), schema)
		return tbl.Deduplicate(ctx.Config.Dedupe), nil
	}

	for _, t := range subTables {
		if t.RowCount() == 0 {
			return table.NewNamed[Match](d.TypeID(), schema).Deduplicate(ctx.Config.Dedupe), nil
		}
	}

	candidates := []partialRow{{entries: freshRow(len(schema.Columns))}}
	for subIdx := range d.Submodules {
		var next []partialRow
		for _, cand := range candidates {
			for row := 0; row < subTables[subIdx].RowCount(); row++ {
				extended := partialRow{entries: append([]table.Entry(nil), cand.entries...)}
				extended.entries[subIdx] = table.SubEntry(uint32(row))
				if d.connectionsHold(ctx, extended) {
					next = append(next, extended)
				}
			}
		}
		candidates = next
		if len(candidates) == 0 {
			break
		}
	}

	tbl := table.NewNamed[Match](d.TypeID(), schema)
	for _, cand := range candidates {
		d.resolveAliases(ctx, cand.entries)
		if _, err := tbl.PushRow(cand.entries); err != nil {
			return nil, fmt.Errorf("composite: %s: %w", d.Name, err)
		}
	}
	return tbl.Deduplicate(ctx.Config.Dedupe), nil
}

func freshRow(n int) []table.Entry {
	row := make([]table.Entry, n)
	for i := range row {
		row[i] = table.NullEntry()
	}
	return row
}

// connectionsHold checks every declared Connection against the
// candidate's currently-set Sub columns, treating a connection whose
// endpoint is not yet reachable (a later submodule) as unconstrained
// rather than failing — it will be re-checked, already-satisfied, once
// that submodule is joined.
func (d Def) connectionsHold(ctx *plan.Context, cand partialRow) bool {
	for _, conn := range d.Connections {
		from, ok := d.resolvePath(ctx, cand.entries, conn.From)
		if !ok {
			continue
		}
		to, ok := d.resolvePath(ctx, cand.entries, conn.To)
		if !ok {
			continue
		}
		if !from.Equal(to) {
			return false
		}
	}
	return true
}

func (d Def) resolveAliases(ctx *plan.Context, entries []table.Entry) {
	schema := d.Schema()
	for _, a := range d.Aliases {
		colIdx := schema.IndexOf(a.PortName)
		if colIdx < 0 {
			continue
		}
		w, ok := d.resolvePath(ctx, entries, a.Target)
		if !ok {
			entries[colIdx] = table.NullEntry()
			continue
		}
		entries[colIdx] = table.WireEntry(w)
	}
}

// resolvePath walks sel starting from the composite's own (possibly
// still under construction, not-yet-published) row: the first segment is
// resolved directly against entries, since selector.Resolve requires a
// row already published in a registered table; every subsequent segment
// lands inside an already-published submodule table, so it delegates to
// selector.Resolve from there.
func (d Def) resolvePath(ctx *plan.Context, entries []table.Entry, sel selector.Selector) (netlist.Wire, bool) {
	if len(sel) == 0 {
		return nil, false
	}
	schema := d.Schema()
	idx := schema.IndexOf(sel[0])
	if idx < 0 {
		return nil, false
	}
	col := schema.Columns[idx]
	cell := entries[idx]

	if len(sel) == 1 {
		if col.Kind != table.ColWire || cell.Null {
			return nil, false
		}
		return cell.Wire, true
	}

	if col.Kind != table.ColSub || cell.Null {
		return nil, false
	}
	res, err := selector.Resolve(ctx, col.SubType, cell.Sub, sel[1:])
	if err != nil || res.Kind != table.ColWire || res.Wire == nil {
		return nil, false
	}
	return res.Wire, true
}

// Rehydrate turns one result row back into a Match: the raw Sub indices
// and alias wires, without recursing into submodule rehydration (callers
// needing the full nested structure do that themselves via store.Resolve
// against each Submodule.TypeID).
func (d Def) Rehydrate(row []table.Entry, _ *store.Store) (Match, bool) {
	schema := d.Schema()
	if len(row) != len(schema.Columns) {
		return Match{}, false
	}
	m := Match{Subs: make(map[string]uint32), Aliases: make(map[string]table.Entry)}
	for i, col := range schema.Columns {
		switch col.Kind {
		case table.ColSub:
			if !row[i].Null {
				m.Subs[col.Name] = row[i].Sub
			}
		case table.ColWire:
			m.Aliases[col.Name] = row[i]
		}
	}
	return m, true
}

var _ pattern.Pattern[Match] = Def{}
