// Package main demonstrates basic svql usage patterns: building a small
// fixture netlist, matching each of the five pattern kinds against it
// through RunQuery, and rendering one match as a report tree.
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/netlist/fixture"
	"github.com/gitrdm/svql/internal/selector"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern/composite"
	"github.com/gitrdm/svql/pkg/pattern/netlistpat"
	"github.com/gitrdm/svql/pkg/pattern/primitive"
	"github.com/gitrdm/svql/pkg/pattern/recursive"
	"github.com/gitrdm/svql/pkg/pattern/variant"
	"github.com/gitrdm/svql/pkg/query"
	"github.com/gitrdm/svql/pkg/report"
)

func main() {
	fmt.Println("=== svql Examples ===")
	fmt.Println()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	key, drv := buildTreeDesign()

	primitiveMatch(log, drv, key)
	recursiveMatch(log, drv, key)
	netlistChainMatch(log, drv, key)
	variantMatch(log, drv, key)
	compositeMatch(log)
	sdffeFilterMatch(log)
}

// buildTreeDesign builds y = ((a & b) & (c & d)), the three-gate AND
// tree every demo but the composite and Sdffe ones matches against.
func buildTreeDesign() (netlist.DesignKey, *fixture.Driver) {
	key := netlist.DesignKey{File: "example.v", Module: "tree"}

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
	return key, drv
}

func andGateDef(name string) primitive.Def {
	return primitive.Def{
		Name:       name,
		Kind:       netlist.And,
		InputPorts: []string{"a", "b"},
		OutputPort: "y",
	}
}

// primitiveMatch demonstrates matching a single gate kind everywhere it
// occurs in the tree.
func primitiveMatch(log *zap.Logger, drv *fixture.Driver, key netlist.DesignKey) {
	fmt.Println("1. Primitive And gate:")

	def := andGateDef("example.And")
	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}

	fmt.Printf("   %d And cell(s) found (query %s)\n", len(res.Matches), res.QueryID)
	fmt.Println()
}

// recursiveMatch demonstrates folding the same gate kind over its own
// output to find the tree's internal shape.
func recursiveMatch(log *zap.Logger, drv *fixture.Driver, key netlist.DesignKey) {
	fmt.Println("2. Recursive And tree:")

	base := andGateDef("example.RecAndBase")
	def := recursive.Def{
		Name:       "example.RecAnd",
		Base:       base.TypeID(),
		BaseExec:   base.ExecInfo(),
		LeftPort:   "a",
		RightPort:  "b",
		OutputPort: "y",
		Ports:      []netlist.PortDecl{{Name: "y", Direction: netlist.DirOut}},
	}

	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}

	var root int
	for _, m := range res.Matches {
		if m.Depth > 0 {
			root++
		}
	}
	fmt.Printf("   %d match(es), %d rooted above a child And gate\n", len(res.Matches), root)
	fmt.Println()
}

func chainNeedleDef(name string) netlistpat.Def {
	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	w := b.Input("w")
	inner := b.Gate(netlist.And, fixture.Src(x), fixture.Src(y))
	outer := b.Gate(netlist.And, fixture.Src(inner), fixture.Src(w))
	b.Output("z", outer, 0)

	return netlistpat.Def{
		Name:   name,
		Needle: b.Build(),
		Ports: []netlist.PortDecl{
			{Name: "x", Direction: netlist.DirIn},
			{Name: "y", Direction: netlist.DirIn},
			{Name: "w", Direction: netlist.DirIn},
			{Name: "z", Direction: netlist.DirOut},
		},
	}
}

// netlistChainMatch demonstrates a two-gate needle matched against the
// tree via subgraph search, then renders the first match as a report.
func netlistChainMatch(log *zap.Logger, drv *fixture.Driver, key netlist.DesignKey) {
	fmt.Println("3. Two-gate chain needle:")

	def := chainNeedleDef("example.Chain")
	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}
	fmt.Printf("   %d match(es)\n", len(res.Matches))

	if len(res.Matches) == 0 {
		fmt.Println()
		return
	}

	design, err := drv.GetDesign(context.Background(), key, nil)
	if err != nil {
		fmt.Printf("   could not reload design for report: %v\n", err)
		fmt.Println()
		return
	}
	node, ok := report.BuildReportNode(def.TypeID(), 0, res.Store, design.Index)
	if !ok {
		fmt.Println("   could not build report for row 0")
		fmt.Println()
		return
	}
	fmt.Println(node.Render())
}

// variantMatch demonstrates a variant over (And, chain): every And cell
// counts once, and every chain match counts once, concatenated under one
// common output port.
func variantMatch(log *zap.Logger, drv *fixture.Driver, key netlist.DesignKey) {
	fmt.Println("4. Variant over And or chain:")

	and := andGateDef("example.VariantAnd")
	chain := chainNeedleDef("example.VariantChain")
	def := variant.Def{
		Name: "example.AndOrChain",
		Arms: []variant.Arm{
			{Name: "and", TypeID: and.TypeID(), Exec: and.ExecInfo(), PortMap: map[string]selector.Selector{
				"out": selector.Parse("y"),
			}},
			{Name: "chain", TypeID: chain.TypeID(), Exec: chain.ExecInfo(), PortMap: map[string]selector.Selector{
				"out": selector.Parse("z"),
			}},
		},
		CommonPorts: []netlist.PortDecl{{Name: "out", Direction: netlist.DirOut}},
	}

	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}

	var fromAnd, fromChain int
	for _, m := range res.Matches {
		switch m.ArmIndex {
		case 0:
			fromAnd++
		case 1:
			fromChain++
		}
	}
	fmt.Printf("   %d total: %d from And, %d from chain\n", len(res.Matches), fromAnd, fromChain)
	fmt.Println()
}

// compositeMatch demonstrates joining two independently matched And
// submodules through an explicit wire-equality connection.
func compositeMatch(log *zap.Logger) {
	fmt.Println("5. Composite And2Gates:")

	key := netlist.DesignKey{File: "example.v", Module: "chain"}
	b := fixture.NewBuilder()
	x := b.Input("x")
	y := b.Input("y")
	w := b.Input("w")
	inner := b.Gate(netlist.And, fixture.Src(x), fixture.Src(y))
	outer := b.Gate(netlist.And, fixture.Src(inner), fixture.Src(w))
	b.Output("z", outer, 0)

	drv := fixture.New()
	drv.Register(key, b.Build())

	andGate := netlistpat.Def{
		Name: "example.CompositeAndGate",
		Needle: func() netlist.RawNetlist {
			nb := fixture.NewBuilder()
			na := nb.Input("a")
			nbb := nb.Input("b")
			nand := nb.Gate(netlist.And, fixture.Src(na), fixture.Src(nbb))
			nb.Output("y", nand, 0)
			return nb.Build()
		}(),
		Ports: []netlist.PortDecl{
			{Name: "a", Direction: netlist.DirIn},
			{Name: "b", Direction: netlist.DirIn},
			{Name: "y", Direction: netlist.DirOut},
		},
	}
	exec := andGate.ExecInfo()
	def := composite.Def{
		Name: "example.And2Gates",
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

	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}
	fmt.Printf("   %d submodule pairing(s) satisfy and1.y == and2.a\n", len(res.Matches))
	fmt.Println()
}

// sdffeFilterMatch demonstrates a primitive pattern with a cell-level
// filter: only flip-flops declaring both a synchronous reset and a clock
// enable count.
func sdffeFilterMatch(log *zap.Logger) {
	fmt.Println("6. Sdffe with reset and enable:")

	key := netlist.DesignKey{File: "example.v", Module: "dffs"}
	b := fixture.NewBuilder()
	clk := b.Input("clk")
	d := b.Input("d")
	rst := b.Input("rst")
	en := b.Input("en")

	for i := 0; i < 4; i++ {
		b.Gate(netlist.Sdffe,
			fixture.Src(clk).Op(0), fixture.Src(d).Op(1), fixture.Src(rst).Op(2), fixture.Src(en).Op(3))
	}
	for i := 0; i < 2; i++ {
		b.Gate(netlist.Sdffe, fixture.Src(clk).Op(0), fixture.Src(d).Op(1), fixture.Src(rst).Op(2))
	}

	drv := fixture.New()
	drv.Register(key, b.Build())

	def := primitive.Def{
		Name:       "example.SdffeResetEnable",
		Kind:       netlist.Sdffe,
		InputPorts: []string{"clk", "d"},
		OutputPort: "q",
		Filter: func(c netlist.Cell) bool {
			var hasRst, hasEn bool
			for _, in := range c.Inputs {
				if in.Operand == 2 {
					hasRst = true
				}
				if in.Operand == 3 {
					hasEn = true
				}
			}
			return hasRst && hasEn
		},
	}

	res, err := query.RunQuery(context.Background(), drv, key, query.Config{Dedupe: table.DedupeInner}, log, def)
	if err != nil {
		fmt.Printf("   query failed: %v\n", err)
		return
	}
	fmt.Printf("   %d of 6 flip-flops declare both reset and enable\n", len(res.Matches))
	fmt.Println()
}
