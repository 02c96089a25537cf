// Package selector implements the path algebra (component D, spec §4.D)
// that walks `Sub` columns across tables registered in a Store to reach
// a wire or wire-bundle: "[segment…]" resolved as head.tail… until a
// terminal Wire or WireArray column is reached.
package selector

import (
	"fmt"
	"strings"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/qerr"
	"github.com/gitrdm/svql/internal/table"
)

// Selector is an ordered sequence of static string segments.
type Selector []string

// Parse splits a dotted path ("sub.inner.y") into a Selector. An empty
// string parses to an empty Selector, which Resolve rejects per §4.D
// ("Empty selector -> error").
func Parse(path string) Selector {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func (s Selector) String() string { return strings.Join(s, ".") }

// Registry is the minimal table lookup a resolver needs. internal/store's
// Store satisfies this structurally; selector never imports internal/store,
// and internal/store does not import selector either.
type Registry interface {
	Get(id table.TypeId) (table.AnyTable, bool)
}

// Result is the terminal value a selector resolves to: exactly one of
// Wire or Bundle is meaningful, discriminated by Kind.
type Result struct {
	Kind   table.ColumnKind // table.ColWire or table.ColWireArray
	Wire   netlist.Wire
	Bundle []netlist.Wire
}

// Resolve walks sel starting from row `row` of the table registered under
// typeID, following Sub columns one segment at a time (§4.D). The last
// segment must name a Wire or WireArray column; every earlier segment
// must name a Sub column.
func Resolve(reg Registry, typeID table.TypeId, row uint32, sel Selector) (Result, error) {
	if len(sel) == 0 {
		return Result{}, fmt.Errorf("selector: empty selector cannot be resolved")
	}

	tbl, ok := reg.Get(typeID)
	if !ok {
		return Result{}, &qerr.MissingDependencyError{Name: string(typeID)}
	}

	head := sel[0]
	col, ok := tbl.Schema().Column(head)
	if !ok {
		return Result{}, &qerr.SchemaLutError{Name: head}
	}
	entry, ok := tbl.GetRow(row)
	if !ok {
		return Result{}, fmt.Errorf("selector: row %d out of range in %s", row, typeID)
	}
	idx := tbl.Schema().IndexOf(head)
	cell := entry[idx]

	if len(sel) == 1 {
		switch col.Kind {
		case table.ColWire:
			if cell.Null {
				return Result{}, nil
			}
			return Result{Kind: table.ColWire, Wire: cell.Wire}, nil
		case table.ColWireArray:
			if cell.Null {
				return Result{}, nil
			}
			return Result{Kind: table.ColWireArray, Bundle: cell.WireArray}, nil
		default:
			// Terminal segment names a Sub or Metadata column: not a wire
			// carrier, resolves to "None" rather than an error (§4.D).
			return Result{}, nil
		}
	}

	if col.Kind != table.ColSub {
		return Result{}, fmt.Errorf("selector: column %q is not a Sub column, cannot descend into %q", head, sel[1])
	}
	if cell.Null {
		return Result{}, nil
	}
	return Resolve(reg, col.SubType, cell.Sub, sel[1:])
}
