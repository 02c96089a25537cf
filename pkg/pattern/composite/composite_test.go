package composite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/selector"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern/composite"
	"github.com/gitrdm/svql/pkg/pattern/netlistpat"
)

// chainDesign builds z = (x & y) & w: two And gates where the inner
// gate's output feeds one input of the outer gate, mirroring
// original_source's And2Gates composite example.
func chainDesign(t *testing.T, key netlist.DesignKey) *fixture.Driver {
	t.Helper()
	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	w := b.Input("w")
	inner := b.Gate(netlist.And, fixture.Src(x), fixture.Src(y))
	outer := b.Gate(netlist.And, fixture.Src(inner), fixture.Src(w))
	b.Output("z", outer, 0)

	drv := fixture.New()
	drv.Register(key, b.Build())
	return drv
}

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
		Name:   "scenarios.ComposedAndGate",
		Needle: andGateNeedle(),
		Ports: []netlist.PortDecl{
			{Name: "a", Direction: netlist.DirIn},
			{Name: "b", Direction: netlist.DirIn},
			{Name: "y", Direction: netlist.DirOut},
		},
	}
}

func and2GatesDef(andGate netlistpat.Def) composite.Def {
	exec := andGate.ExecInfo()
	return composite.Def{
		Name: "scenarios.And2Gates",
		Submodules: []composite.Submodule{
			{Name: "and1", TypeID: andGate.TypeID(), Exec: exec},
			{Name: "and2", TypeID: andGate.TypeID(), Exec: exec},
		},
		Aliases: []composite.Alias{
			{PortName: "a", Direction: table.DirIn, Target: selector.Parse("and1.a")},
			{PortName: "b", Direction: table.DirIn, Target: selector.Parse("and1.b")},
			{PortName: "y", Direction: table.DirOut, Target: selector.Parse("and2.y")},
		},
		Connections: []composite.Connection{
			{From: selector.Parse("and1.y"), To: selector.Parse("and2.a")},
		},
	}
}

func TestComposite_And2Gates_JoinsOnlyConnectedPair(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "composite_s1"}
	drv := chainDesign(t, key)
	def := and2GatesDef(andGateDef())

	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	tbl := at.(*table.Table[composite.Match])
	require.Equal(t, 1, tbl.RowCount(), "only and1=inner/and2=outer satisfies and1.y == and2.a")

	row, ok := tbl.Row(table.NewRef[composite.Match](0))
	require.True(t, ok)
	match, ok := def.Rehydrate(row, nil)
	require.True(t, ok)
	require.Contains(t, match.Subs, "and1")
	require.Contains(t, match.Subs, "and2")

	aEntry, ok := match.Aliases["a"]
	require.True(t, ok)
	require.False(t, aEntry.Null)
}

func TestComposite_NoSubmoduleMatches_YieldsEmptyTable(t *testing.T) {
	key := netlist.DesignKey{File: "scenarios.v", Module: "composite_empty"}
	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	xor0 := b.Gate(netlist.Xor, fixture.Src(x), fixture.Src(y))
	b.Output("z", xor0, 0)
	drv := fixture.New()
	drv.Register(key, b.Build())

	def := and2GatesDef(andGateDef())
	ctx := plan.NewContext(context.Background(), drv, key, plan.Config{Dedupe: table.DedupeInner}, nil)
	p := plan.Build(def.ExecInfo())
	require.NoError(t, plan.Run(ctx, p))

	at, ok := ctx.Get(def.TypeID())
	require.True(t, ok)
	require.Equal(t, 0, at.(*table.Table[composite.Match]).RowCount())
}
