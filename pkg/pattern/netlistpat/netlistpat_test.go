package netlistpat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern/netlistpat"
)

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

// andGateNeedle builds a single-gate needle: y = a & b, with named
// Input/Output ports matching the declared Ports list.
func andGateNeedle() netlist.RawNetlist {
	b := fixture.NewBuilder()
	a := b.Input("a")
	bb := b.Input("b")
	and0 := b.Gate(netlist.And, fixture.Src(a), fixture.Src(bb))
	b.Output("y", and0, 0)
	return b.Build()
}

func andGateDef() netlistpat.Def {
	return netlistpat.Def{
		Name:   "scenarios.NetlistAndGate",
		Needle: andGateNeedle(),
		Ports: []netlist.PortDecl{
			{Name: "a", Direction: netlist.DirIn},
			{Name: "b", Direction: netlist.DirIn},
			{Name: "y", Direction: netlist.DirOut},
		},
	}
}

func TestNetlistPat_MatchesEveryAndGate(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "netlist_s1"}
	drv := andTreeDesign(t, key)
	def := andGateDef()

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	tbl := at.(*table.Table[netlistpat.Match])
	require.Equal(t, 3, tbl.RowCount())
}

func TestNetlistPat_Rehydrate_BindsPortsAndInternalCells(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "netlist_s1"}
	drv := andTreeDesign(t, key)
	def := andGateDef()

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, _ := ctx.Get(def.TypeID())
	tbl := at.(*table.Table[netlistpat.Match])
	row, ok := tbl.Row(table.NewRef[netlistpat.Match](0))
	require.True(t, ok)

	match, ok := def.Rehydrate(row, nil)
	require.True(t, ok)
	require.Contains(t, match.Ports, "a")
	require.Contains(t, match.Ports, "b")
	require.Contains(t, match.Ports, "y")
	require.Len(t, match.Internal, 1, "the needle's one And gate is an internal (non-port) cell")
}

func TestNetlistPat_NoMatchingStructure_YieldsEmptyTable(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "netlist_s1"}
	drv := andTreeDesign(t, key)

	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	xor0 := b.Gate(netlist.Xor, fixture.Src(x), fixture.Src(y))
	b.Output("y", xor0, 0)

	def := netlistpat.Def{
		Name:   "scenarios.NetlistXorGate",
		Needle: b.Build(),
		Ports: []netlist.PortDecl{
			{Name: "x", Direction: netlist.DirIn},
			{Name: "y", Direction: netlist.DirOut},
		},
	}

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	require.Equal(t, 0, at.(*table.Table[netlistpat.Match]).RowCount())
}
