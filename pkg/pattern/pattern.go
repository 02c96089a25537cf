// Package pattern declares the shared contract every pattern kind
// (primitive, netlist, composite, variant, recursive — spec §4.E)
// implements: a TypeId, an execution-plan node, and a way to turn a
// matched row back into a typed Go value.
//
// Pattern kinds here are expressed as Go values (a Def struct built and
// configured by the caller) rather than as distinct Go types with
// per-type trait implementations: Go has no per-type static associated
// metadata without code generation, and a query commonly declares many
// differently-shaped patterns of the same kind (two different primitive
// gates, three different composites) that would otherwise each demand
// a hand-written type. Every Def's identity — and therefore its table's
// TypeId — comes from an explicit Name the caller assigns, not from Go's
// reflected type name (see table.NewNamed).
package pattern

import (
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
)

// Kind is the closed set of pattern shapes (§2 component E).
type Kind int

const (
	KindPrimitive Kind = iota
	KindNetlist
	KindComposite
	KindVariant
	KindRecursive
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindNetlist:
		return "Netlist"
	case KindComposite:
		return "Composite"
	case KindVariant:
		return "Variant"
	case KindRecursive:
		return "Recursive"
	default:
		return "Unknown"
	}
}

// Pattern is the contract a pattern Def of any kind satisfies for row
// type T: it names its own table, builds its execution-plan node, and
// reconstructs a typed T from one of its rows plus the completed Store
// (needed to chase Sub columns into dependency tables).
type Pattern[T any] interface {
	TypeID() table.TypeId
	Kind() Kind
	ExecInfo() plan.ExecInfo
	Rehydrate(row []table.Entry, s *store.Store) (T, bool)
}
