package plan

import "github.com/gitrdm/svql/internal/table"

// SearchFunc is one pattern type's search stage: given the shared
// context (driver, haystack, config, and its dependencies' already-
// published tables reachable via ctx.Get), produce that pattern's result
// table, type-erased to AnyTable for storage in the Store (§4.F, §4.G).
type SearchFunc func(ctx *Context) (table.AnyTable, error)

// ExecInfo is one pattern type's static execution metadata (§3
// "Execution plan"): its TypeId, its search function, and the ExecInfos
// of the dependencies it reads tables from. Pattern packages build one
// of these per pattern type; composite/variant patterns list their
// submodule/arm ExecInfos as Deps, recursive patterns list exactly
// Base's ExecInfo (never themselves, which would cycle the DAG).
type ExecInfo struct {
	TypeID table.TypeId
	Search SearchFunc
	Deps   []ExecInfo
}

// Plan is a topologically ordered, type_id-deduplicated walk of one root
// pattern's transitive dependencies, root last (§4.F "Plan construction").
type Plan struct {
	Root  table.TypeId
	Nodes []ExecInfo
}

// Build walks root.Deps depth-first, deduplicating repeated nodes by
// TypeID (a diamond-shaped dependency graph, e.g. two composites sharing
// a submodule pattern, must only execute that submodule once) and
// appending each node after its own dependencies.
func Build(root ExecInfo) *Plan {
	visited := make(map[table.TypeId]bool)
	var order []ExecInfo

	var visit func(n ExecInfo)
	visit = func(n ExecInfo) {
		if visited[n.TypeID] {
			return
		}
		visited[n.TypeID] = true
		for _, dep := range n.Deps {
			visit(dep)
		}
		order = append(order, n)
	}
	visit(root)

	return &Plan{Root: root.TypeID, Nodes: order}
}
