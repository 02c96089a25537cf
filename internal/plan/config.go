// Package plan builds and executes the dependency DAG of pattern search
// functions (component F, spec §4.F): topological plan construction,
// per-node once-published table slots, and sequential or parallel
// traversal.
package plan

import (
	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/subgraph"
	"github.com/gitrdm/svql/internal/table"
)

// Config is the single recognized-options struct threaded through every
// search function (§6 Configuration). pkg/query.Config is a type alias
// of this one: the canonical definition lives here because internal
// search functions (subgraph, table, pattern kinds) all need it, and
// having pkg/query import it rather than duplicate it keeps the two in
// lockstep without a pkg/query -> internal/plan -> pkg/query cycle.
type Config struct {
	MatchLength       subgraph.MatchLength
	Dedupe            table.Dedupe
	Parallel          bool
	HaystackOptions   netlist.Options
	NeedleOptions     netlist.Options
	MaxRecursionDepth int
}

// DefaultMaxRecursionDepth bounds the recursive-pattern fixpoint loop
// (§4.E.5 step 4) when Config.MaxRecursionDepth is left at zero.
const DefaultMaxRecursionDepth = 1000

func (c Config) maxRecursionDepth() int {
	if c.MaxRecursionDepth > 0 {
		return c.MaxRecursionDepth
	}
	return DefaultMaxRecursionDepth
}

// EffectiveMaxRecursionDepth returns the effective fixpoint iteration cap:
// the configured MaxRecursionDepth, or DefaultMaxRecursionDepth if unset
// (§9 Open Question: cap fixpoint iteration at 1000 and warn rather than
// error on non-convergence).
func (c Config) EffectiveMaxRecursionDepth() int { return c.maxRecursionDepth() }
