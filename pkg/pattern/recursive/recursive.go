// Package recursive implements the fifth pattern kind (component E.5,
// spec §4.E.5): self-referential tree patterns built over a fixed base
// pattern, where each base instance becomes one row and left/right child
// columns point at other rows of the same table. Unlike composite's
// Cartesian-product join, recursive patterns are built by a fixpoint
// iteration that links children by output-to-input wire identity.
package recursive

import (
	"go.uber.org/zap"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Match is the row type every recursive.Def produces: the base instance,
// its (possibly absent) children, the declared port wires, and the
// computed tree depth.
type Match struct {
	Base       uint32
	LeftChild  *uint32
	RightChild *uint32
	Ports      map[string]netlist.Wire
	Depth      uint32
}

// Def declares one recursive pattern over a base pattern's table.
// LeftPort/RightPort name the base row's two child-linking input ports
// (e.g. "a"/"b"); OutputPort names the port whose wire identifies this
// node to its parent's child-linking search (e.g. "y"). Ports is the
// pattern's own external interface, typically just the output.
type Def struct {
	Name       string
	Base       table.TypeId
	BaseExec   plan.ExecInfo
	LeftPort   string
	RightPort  string
	OutputPort string
	Ports      []netlist.PortDecl
}

func (d Def) TypeID() table.TypeId { return table.TypeId(d.Name) }
func (d Def) Kind() pattern.Kind   { return pattern.KindRecursive }

// Schema is base (Sub into the base table) + left_child/right_child
// (nullable Sub into this pattern's own table) + declared ports + depth
// (Metadata). left_child/right_child never appear in ExecInfo.Deps —
// doing so would cycle the plan DAG — they are populated by row index
// into the very table being built.
func (d Def) Schema() table.Schema {
	cols := []table.ColumnDef{
		{Name: "base", Kind: table.ColSub, SubType: d.Base},
		{Name: "left_child", Kind: table.ColSub, SubType: d.TypeID(), Nullable: true, Provenance: true},
		{Name: "right_child", Kind: table.ColSub, SubType: d.TypeID(), Nullable: true, Provenance: true},
	}
	for _, p := range d.Ports {
		cols = append(cols, table.ColumnDef{Name: p.Name, Kind: table.ColWire, Direction: table.Direction(p.Direction)})
	}
	cols = append(cols, table.ColumnDef{Name: "depth", Kind: table.ColMetadata, Provenance: true})
	return table.Schema{Columns: cols}
}

func (d Def) ExecInfo() plan.ExecInfo {
	return plan.ExecInfo{
		TypeID: d.TypeID(),
		// Only the base pattern is a dependency: self-reference is
		// resolved internally against the table under construction, not
		// through the plan's dependency graph.
		Deps: []plan.ExecInfo{d.BaseExec},
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			return d.search(ctx)
		},
	}
}

// gateInfo is one base row's linking-relevant wires, cached once before
// the fixpoint loop so every iteration re-reads plain slices rather than
// re-walking the base table's entries.
type gateInfo struct {
	left   netlist.Wire
	right  netlist.Wire
	output netlist.Wire
}

func (d Def) search(ctx *plan.Context) (table.AnyTable, error) {
	schema := d.Schema()
	baseIdx := schema.IndexOf("base")
	leftIdx := schema.IndexOf("left_child")
	rightIdx := schema.IndexOf("right_child")
	depthIdx := schema.IndexOf("depth")

	baseTable, ok := ctx.Get(d.Base)
	if !ok {
		return nil, &missingBaseError{Name: d.Name, Base: d.Base}
	}

	tbl := table.NewNamed[Match](d.TypeID(), schema)
	n := baseTable.RowCount()
	if n == 0 {
		return tbl.Deduplicate(ctx.Config.Dedupe), nil
	}
	baseSchema := baseTable.Schema()
	leftCol := baseSchema.IndexOf(d.LeftPort)
	rightCol := baseSchema.IndexOf(d.RightPort)
	outputCol := baseSchema.IndexOf(d.OutputPort)

	baseRows := make([][]table.Entry, n)
	gates := make([]gateInfo, n)
	for i := 0; i < n; i++ {
		row, ok := baseTable.GetRow(uint32(i))
		if !ok {
			continue
		}
		baseRows[i] = row
		gates[i] = gateInfo{
			left:   wireAt(row, leftCol),
			right:  wireAt(row, rightCol),
			output: wireAt(row, outputCol),
		}
	}

	outputToRow := make(map[netlist.Wire]int, n)
	for i, g := range gates {
		if g.output != nil {
			outputToRow[g.output] = i
		}
	}

	left := make([]*int, n)
	right := make([]*int, n)
	depth := make([]uint32, n)

	maxIterations := ctx.Config.EffectiveMaxRecursionDepth()

	changed := true
	iterations := 0
	for changed && iterations < maxIterations {
		changed = false
		iterations++

		for i := range gates {
			newLeft := lookupChild(gates[i].left, outputToRow)
			newRight := lookupChild(gates[i].right, outputToRow)

			if !samePtr(newLeft, left[i]) || !samePtr(newRight, right[i]) {
				left[i] = newLeft
				right[i] = newRight
				changed = true
			}

			var leftDepth, rightDepth uint32
			if newLeft != nil {
				leftDepth = depth[*newLeft]
			}
			if newRight != nil {
				rightDepth = depth[*newRight]
			}
			newDepth := uint32(0)
			if newLeft != nil || newRight != nil {
				newDepth = 1 + maxU32(leftDepth, rightDepth)
			}
			if newDepth != depth[i] {
				depth[i] = newDepth
				changed = true
			}
		}
	}
	if changed {
		ctx.Log.Warn("recursive: fixpoint did not converge",
			zap.String("pattern", d.Name),
			zap.Int("iterations", maxIterations))
	}

	for i := range gates {
		row := make([]table.Entry, len(schema.Columns))
		for k := range row {
			row[k] = table.NullEntry()
		}
		row[baseIdx] = table.SubEntry(uint32(i))
		if left[i] != nil {
			row[leftIdx] = table.SubEntry(uint32(*left[i]))
		}
		if right[i] != nil {
			row[rightIdx] = table.SubEntry(uint32(*right[i]))
		}
		row[depthIdx] = table.MetadataEntry(depth[i])
		for _, p := range d.Ports {
			colIdx := schema.IndexOf(p.Name)
			if colIdx < 0 {
				continue
			}
			if p.Name == d.OutputPort {
				if gates[i].output != nil {
					row[colIdx] = table.WireEntry(gates[i].output)
				}
				continue
			}
			baseColIdx := baseSchema.IndexOf(p.Name)
			if w := wireAt(baseRows[i], baseColIdx); w != nil {
				row[colIdx] = table.WireEntry(w)
			}
		}
		if _, err := tbl.PushRow(row); err != nil {
			return nil, err
		}
	}

	return tbl.Deduplicate(ctx.Config.Dedupe), nil
}

func wireAt(row []table.Entry, col int) netlist.Wire {
	if col < 0 || col >= len(row) || row[col].Null {
		return nil
	}
	return row[col].Wire
}

// lookupChild finds the row whose output produces wire w. Wire values
// are used directly as map keys: every concrete Wire (CellWire/PortWire/
// ConstWire) is a field-only, comparable struct, so the interface value
// hashes and compares the same way Equal would.
func lookupChild(w netlist.Wire, byOutput map[netlist.Wire]int) *int {
	if w == nil {
		return nil
	}
	row, ok := byOutput[w]
	if !ok {
		return nil
	}
	return &row
}

func samePtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

type missingBaseError struct {
	Name string
	Base table.TypeId
}

func (e *missingBaseError) Error() string {
	return "recursive: " + e.Name + ": base pattern " + string(e.Base) + " has not been published"
}

// Rehydrate turns a result row back into a Match.
func (d Def) Rehydrate(row []table.Entry, _ *store.Store) (Match, bool) {
	schema := d.Schema()
	if len(row) != len(schema.Columns) {
		return Match{}, false
	}
	baseIdx := schema.IndexOf("base")
	leftIdx := schema.IndexOf("left_child")
	rightIdx := schema.IndexOf("right_child")
	depthIdx := schema.IndexOf("depth")
	if baseIdx < 0 || row[baseIdx].Null {
		return Match{}, false
	}

	m := Match{Base: row[baseIdx].Sub, Ports: make(map[string]netlist.Wire)}
	if leftIdx >= 0 && !row[leftIdx].Null {
		v := row[leftIdx].Sub
		m.LeftChild = &v
	}
	if rightIdx >= 0 && !row[rightIdx].Null {
		v := row[rightIdx].Sub
		m.RightChild = &v
	}
	if depthIdx >= 0 && !row[depthIdx].Null {
		m.Depth = row[depthIdx].Metadata
	}
	for i, col := range schema.Columns {
		if col.Kind == table.ColWire && !row[i].Null {
			m.Ports[col.Name] = row[i].Wire
		}
	}
	return m, true
}

var _ pattern.Pattern[Match] = Def{}
