// Package subgraph implements backtracking subgraph-isomorphism search
// over indexed netlist graphs (component B, spec.md §4.B): injective
// homomorphisms from a needle graph onto a haystack graph, respecting
// commutative-operator symmetry and a configurable match-length policy
// for multi-bit operand alignment.
//
// The search itself is grounded in
// original_source/svql_subgraph/src/simple.rs (find_subgraphs_simple,
// backtrack_simple, choose_next_strict, cells_compatible_simple,
// aligned_sources_simple, downstream_consumers_compatible_simple); the
// trail-and-restore shape of extending then unwinding one assignment at a
// time mirrors the teacher's pkg/minikanren/search.go DFSSearch.
package subgraph

import "github.com/gitrdm/svql/internal/netlist"

// MatchLength selects how multi-bit operand bit-vectors are compared
// between needle and haystack (§4.B).
type MatchLength int

const (
	// Exact requires equal bit-vector length with pairwise bit matching.
	Exact MatchLength = iota
	// NeedleSubsetHaystack requires every needle bit to match some
	// haystack bit, preserving the needle's relative bit order.
	NeedleSubsetHaystack
	// First compares only the first bit of each operand.
	First
)

// Config parameterizes one search.
type Config struct {
	MatchLength MatchLength
	Parallel    bool // consulted by callers fanning multiple searches out; Search itself always runs single-threaded
}

// Assignment is a completed injective mapping from every needle gate cell
// to a distinct haystack gate cell.
type Assignment map[netlist.GraphNodeIdx]netlist.GraphNodeIdx

// isGateKind reports whether a cell kind participates in matching. Input,
// Output and Name cells delimit a needle's interface and provenance but
// are never themselves mapped (§4.E.2, §9).
func isGateKind(k netlist.CellKind) bool {
	switch k {
	case netlist.Input, netlist.Output, netlist.Name:
		return false
	default:
		return true
	}
}

// gateNodes returns every node index of a gate (matchable) kind, in
// ascending node-index order.
func gateNodes(idx *netlist.Index) []netlist.GraphNodeIdx {
	var out []netlist.GraphNodeIdx
	for n := 0; n < idx.GateCount(); n++ {
		node := netlist.GraphNodeIdx(n)
		if cell, ok := idx.GetCell(node); ok && isGateKind(cell.Kind) {
			out = append(out, node)
		}
	}
	return out
}

var allGateKinds = []netlist.CellKind{
	netlist.And, netlist.Or, netlist.Xor, netlist.Not, netlist.Buf,
	netlist.Mux, netlist.Adc, netlist.Dff, netlist.Sdffe, netlist.Eq,
	netlist.ULt, netlist.SLt, netlist.Mul, netlist.Aig,
}

// Search enumerates every assignment from needle's gate cells onto
// haystack's gate cells under cfg. It never errors: an inconsistent
// configuration (e.g. needle larger than haystack) or a structurally
// unsatisfiable needle both yield a nil result (§4.B Failure).
// Deduplication is not applied here; callers (pattern search functions,
// via internal/table) apply the configured Dedupe policy to the rows
// built from these assignments (§4.I).
//
// Open question (spec.md §9): an empty needle (no gate cells at all)
// yields exactly one assignment, the empty mapping, for consistency with
// composite/variant composition rather than vanishing the result.
func Search(needle, haystack *netlist.Index, cfg Config) []Assignment {
	needleGates := gateNodes(needle)
	if len(needleGates) == 0 {
		return []Assignment{{}}
	}
	if screenKindCounts(needle, haystack) {
		return nil
	}

	s := &searcher{needle: needle, haystack: haystack, cfg: cfg, needleGates: needleGates}

	var results []Assignment
	mapping := make(Assignment, len(needleGates))
	used := make(map[netlist.GraphNodeIdx]bool, len(needleGates))
	s.backtrack(mapping, used, &results)
	return results
}

// screenKindCounts reports true (meaning "no match possible") if the
// needle requires more cells of some kind than the haystack provides.
func screenKindCounts(needle, haystack *netlist.Index) bool {
	for _, k := range allGateKinds {
		need := len(needle.CellsOfKind(k))
		if need > 0 && need > len(haystack.CellsOfKind(k)) {
			return true
		}
	}
	return false
}

type searcher struct {
	needle, haystack *netlist.Index
	cfg              Config
	needleGates      []netlist.GraphNodeIdx
}

// backtrack extends mapping by one needle node per call, trying every
// compatible, unused haystack candidate of the same kind in turn and
// unwinding (removing the tentative entry) before trying the next
// candidate or returning to the caller.
func (s *searcher) backtrack(mapping Assignment, used map[netlist.GraphNodeIdx]bool, out *[]Assignment) {
	if len(mapping) == len(s.needleGates) {
		*out = append(*out, cloneAssignment(mapping))
		return
	}

	p, ok := s.chooseNext(mapping)
	if !ok {
		return
	}
	kind, _ := s.kindOf(s.needle, p)

	for _, h := range s.haystack.CellsOfKind(kind) {
		if used[h] {
			continue
		}
		if !s.compatible(p, h, mapping) {
			continue
		}
		mapping[p] = h
		used[h] = true
		s.backtrack(mapping, used, out)
		delete(mapping, p)
		delete(used, h)
	}
}

func (s *searcher) kindOf(idx *netlist.Index, n netlist.GraphNodeIdx) (netlist.CellKind, bool) {
	c, ok := idx.GetCell(n)
	if !ok {
		return 0, false
	}
	return c.Kind, true
}

// chooseNext selects the next unmapped needle gate node to extend,
// preferring ones whose non-constant, non-wildcard inputs are all already
// mapped (§4.B step 3) — grounded in choose_next_strict /
// inputs_resolved_for. This keeps the branching factor low by deferring
// any node until its context constrains it. If no such node exists (a
// disconnected needle component) it falls back to the lowest-index
// unmapped node so the search still makes progress.
func (s *searcher) chooseNext(mapping Assignment) (netlist.GraphNodeIdx, bool) {
	fallback := netlist.GraphNodeIdx(-1)
	haveFallback := false
	for _, p := range s.needleGates {
		if _, mapped := mapping[p]; mapped {
			continue
		}
		if !haveFallback {
			fallback, haveFallback = p, true
		}
		if s.inputsResolved(p, mapping) {
			return p, true
		}
	}
	if haveFallback {
		return fallback, true
	}
	return 0, false
}

func (s *searcher) inputsResolved(p netlist.GraphNodeIdx, mapping Assignment) bool {
	cell, ok := s.needle.GetCell(p)
	if !ok {
		return false
	}
	for _, in := range cell.Inputs {
		if in.IsConst || !in.Resolved {
			continue
		}
		srcCell, ok := s.needle.GetCell(in.Source)
		if !ok {
			continue
		}
		if !isGateKind(srcCell.Kind) {
			continue // needle Input cell: wildcard, always resolved
		}
		if _, mapped := mapping[in.Source]; !mapped {
			return false
		}
	}
	return true
}

func cloneAssignment(a Assignment) Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
