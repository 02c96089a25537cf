package recursive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern/primitive"
	"github.com/gitrdm/svql/pkg/pattern/recursive"
)

// andTreeDesign builds y = (a & b) & (c & d): a two-level AND tree, the
// same shape as the original RecAnd fixture.
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

func andGatePrimitive() primitive.Def {
	return primitive.Def{
		Name:       "scenarios.RecAndGate",
		Kind:       netlist.And,
		InputPorts: []string{"a", "b"},
		OutputPort: "y",
	}
}

func recAndDef(base primitive.Def) recursive.Def {
	return recursive.Def{
		Name:       "scenarios.RecAnd",
		Base:       base.TypeID(),
		BaseExec:   base.ExecInfo(),
		LeftPort:   "a",
		RightPort:  "b",
		OutputPort: "y",
		Ports:      []netlist.PortDecl{{Name: "y", Direction: netlist.DirOut}},
	}
}

func TestRecursive_SmallTree_OneEntryPerGate(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "recursive_s1"}
	drv := andTreeDesign(t, key)
	base := andGatePrimitive()
	def := recAndDef(base)

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	tbl := at.(*table.Table[recursive.Match])
	require.Equal(t, 3, tbl.RowCount(), "one RecAnd entry per AND gate instance")

	var depths []uint32
	var parents int
	for i := 0; i < tbl.RowCount(); i++ {
		row, ok := tbl.Row(table.NewRef[recursive.Match](uint32(i)))
		require.True(t, ok)
		match, ok := def.Rehydrate(row, nil)
		require.True(t, ok)
		depths = append(depths, match.Depth)
		if match.LeftChild != nil || match.RightChild != nil {
			parents++
			require.NotNil(t, match.LeftChild)
			require.NotNil(t, match.RightChild)
		}
	}
	require.ElementsMatch(t, []uint32{0, 0, 1}, depths, "two leaves and one depth-1 root")
	require.Equal(t, 1, parents, "exactly one node links children")
}

func TestRecursive_EmptyBaseTable_YieldsEmptyTable(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "recursive_empty"}
	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	xor0 := b.Gate(netlist.Xor, fixture.Src(x), fixture.Src(y))
	b.Output("z", xor0, 0)
	drv := fixture.New()
	drv.Register(key, b.Build())

	base := andGatePrimitive()
	def := recAndDef(base)

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	require.Equal(t, 0, at.(*table.Table[recursive.Match]).RowCount())
}
