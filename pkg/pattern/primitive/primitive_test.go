package primitive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern/primitive"
)

// andTreeDesign registers y = (a & b) & (c & d) — scenario S1's haystack —
// under key and returns the driver serving it.
func andTreeDesign(t *testing.T, key netlist.DesignKey) *fixture.Driver {
	t.Helper()
	b := fixture.NewBuilder()
	a := b.Input("a")
	bb := b.Input("b")
	c := b.Input("c")
	d := b.Input("d")
	and1 := b.Gate(netlist.And, fixture.Src(a), fixture.Src(bb))
	and2 := b.Gate(netlist.And, fixture.Src(c), fixture.Src(d))
	and0 := b.Gate(netlist.And, fixture.Src(and1), fixture.Src(and2))
	b.Output("y", and0, 0)

	drv := fixture.New()
	drv.Register(key, b.Build())
	return drv
}

func andDef() primitive.Def {
	return primitive.Def{
		Name:       "scenarios.PrimitiveAnd",
		Kind:       netlist.And,
		InputPorts: []string{"a", "b"},
		OutputPort: "y",
	}
}

func runDef(t *testing.T, def primitive.Def, drv *fixture.Driver, key netlist.DesignKey, cfg plan.Config) *table.Table[primitive.Match] {
	t.Helper()
	ctx := plan.NewContext(context.Background(), drv, key, cfg, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	tbl, ok := at.(*table.Table[primitive.Match])
	require.True(t, ok)
	return tbl
}

func TestPrimitive_S1_MatchesEveryAndGate(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "s1"}
	drv := andTreeDesign(t, key)

	tbl := runDef(t, andDef(), drv, key, plan.Config{Dedupe: table.DedupeInner})
	require.Equal(t, 3, tbl.RowCount(), "one row per And gate in a 3-gate AND tree under Dedupe::Inner")
}

func TestPrimitive_FilterAcceptingEveryCellKeepsAllMatches(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "s1"}
	drv := andTreeDesign(t, key)

	def := andDef()
	def.Name = "scenarios.PrimitiveAndFiltered"
	def.Filter = func(c netlist.Cell) bool {
		return len(c.Inputs) == 2
	}

	tbl := runDef(t, def, drv, key, plan.Config{Dedupe: table.DedupeNone})
	require.Equal(t, 3, tbl.RowCount())
}

func TestPrimitive_Rehydrate_BindsPortNames(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "s1"}
	drv := andTreeDesign(t, key)

	def := andDef()
	tbl := runDef(t, def, drv, key, plan.Config{Dedupe: table.DedupeInner})
	row, ok := tbl.Row(table.NewRef[primitive.Match](0))
	require.True(t, ok)

	match, ok := def.Rehydrate(row, nil)
	require.True(t, ok)
	require.Contains(t, match.Ports, "a")
	require.Contains(t, match.Ports, "b")
	require.Contains(t, match.Ports, "y")
}

func TestPrimitive_NoMatchingKind_YieldsEmptyTable(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "s1"}
	drv := andTreeDesign(t, key)

	def := primitive.Def{
		Name:       "scenarios.PrimitiveXor",
		Kind:       netlist.Xor,
		InputPorts: []string{"a", "b"},
		OutputPort: "y",
	}
	tbl := runDef(t, def, drv, key, plan.Config{Dedupe: table.DedupeInner})
	require.Equal(t, 0, tbl.RowCount())
}
