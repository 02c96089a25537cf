package plan_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/table"
)

type leafPattern struct{}
type midAPattern struct{}
type midBPattern struct{}
type rootPattern struct{}

func emptySchema() table.Schema { return table.Schema{} }

// diamondPlan builds root -> {midA, midB} -> leaf, a diamond dependency
// shape, with a shared counter tracking how many times each search
// function actually runs.
func diamondPlan(counts *[4]atomic.Int32) plan.ExecInfo {
	leafID := table.TypeIDFor[leafPattern]()
	leaf := plan.ExecInfo{
		TypeID: leafID,
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			counts[0].Add(1)
			return table.New[leafPattern](emptySchema()), nil
		},
	}
	midA := plan.ExecInfo{
		TypeID: table.TypeIDFor[midAPattern](),
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			counts[1].Add(1)
			_, ok := ctx.Get(leafID)
			requireTrue(ok)
			return table.New[midAPattern](emptySchema()), nil
		},
		Deps: []plan.ExecInfo{leaf},
	}
	midB := plan.ExecInfo{
		TypeID: table.TypeIDFor[midBPattern](),
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			counts[2].Add(1)
			_, ok := ctx.Get(leafID)
			requireTrue(ok)
			return table.New[midBPattern](emptySchema()), nil
		},
		Deps: []plan.ExecInfo{leaf},
	}
	root := plan.ExecInfo{
		TypeID: table.TypeIDFor[rootPattern](),
		Search: func(ctx *plan.Context) (table.AnyTable, error) {
			counts[3].Add(1)
			return table.New[rootPattern](emptySchema()), nil
		},
		Deps: []plan.ExecInfo{midA, midB},
	}
	return root
}

// requireTrue is a minimal assertion for use inside search-function
// closures, where plumbing *testing.T through would complicate the
// plan.SearchFunc signature for no benefit.
func requireTrue(ok bool) {
	if !ok {
		panic("expected dependency table to be published before consumer search ran")
	}
}

func newTestContext(t *testing.T, parallel bool) *plan.Context {
	t.Helper()
	drv := fixture.New()
	key := netlist.DesignKey{File: "t.v", Module: "top"}
	drv.Register(key, netlist.RawNetlist{})
	return plan.NewContext(context.Background(), drv, key, plan.Config{Parallel: parallel}, nil)
}

func TestBuild_DeduplicatesDiamondDependency(t *testing.T) {
	var counts [4]atomic.Int32
	root := diamondPlan(&counts)
	p := plan.Build(root)

	require.Len(t, p.Nodes, 4, "leaf, midA, midB, root — each exactly once")
	require.Equal(t, root.TypeID, p.Nodes[len(p.Nodes)-1].TypeID, "root must be last")
}

func TestRun_Sequential_LeafExecutesExactlyOnce(t *testing.T) {
	var counts [4]atomic.Int32
	root := diamondPlan(&counts)
	p := plan.Build(root)
	ctx := newTestContext(t, false)

	require.NoError(t, plan.Run(ctx, p))
	require.Equal(t, int32(1), counts[0].Load(), "leaf")
	require.Equal(t, int32(1), counts[1].Load(), "midA")
	require.Equal(t, int32(1), counts[2].Load(), "midB")
	require.Equal(t, int32(1), counts[3].Load(), "root")
}

func TestRun_Parallel_LeafExecutesExactlyOnce(t *testing.T) {
	var counts [4]atomic.Int32
	root := diamondPlan(&counts)
	p := plan.Build(root)
	ctx := newTestContext(t, true)

	require.NoError(t, plan.Run(ctx, p))
	require.Equal(t, int32(1), counts[0].Load(), "leaf must run exactly once despite two concurrent consumers")
	require.Equal(t, int32(1), counts[3].Load())
}

func TestContext_TablesSnapshotsPublishedNodes(t *testing.T) {
	var counts [4]atomic.Int32
	root := diamondPlan(&counts)
	p := plan.Build(root)
	ctx := newTestContext(t, false)
	require.NoError(t, plan.Run(ctx, p))

	tables := ctx.Tables()
	require.Len(t, tables, 4)
}
