package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"sort"
)

// TypeId identifies a pattern type across the Store (§3 "Store",
// `TypeId -> Arc<dyn AnyTable>`). Tables built with New take it from
// their Go type name (TypeIDFor); the pattern kinds in pkg/pattern name
// their tables from Def.Name via NewNamed, so two pattern Defs given the
// same Name share one TypeId.
type TypeId string

// TypeIDFor derives the TypeId of pattern type T from its reflected type
// name. New and the store's GetTyped/Resolve use it; the pattern kinds
// in pkg/pattern use Def.Name instead.
func TypeIDFor[T any]() TypeId {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type, whose nil zero value has no dynamic
		// type; fall back to the static type via a pointer trick.
		t = reflect.TypeOf(&zero).Elem()
	}
	return TypeId(t.PkgPath() + "." + t.Name())
}

// Ref is a typed row index into Table[T]. It carries no pointer to the
// table itself (tables are reached through the Store), only the
// position, matching §3 "Ref<T> — typed row index in Table<T>".
type Ref[T any] struct {
	idx uint32
}

// NewRef wraps a raw row index. Exported for pattern packages building
// Sub entries from a freshly pushed row.
func NewRef[T any](idx uint32) Ref[T] { return Ref[T]{idx: idx} }

// Index returns the wrapped row position.
func (r Ref[T]) Index() uint32 { return r.idx }

// Dedupe selects the row-collapsing policy applied after a stage's table
// is built (§4.B, §4.I).
type Dedupe int

const (
	// DedupeNone preserves every row, including port-permuted duplicates.
	DedupeNone Dedupe = iota
	// DedupeInner collapses rows within one table whose signatures match
	// across every column.
	DedupeInner
	// DedupeAll additionally collapses across variant arms and recursive
	// children: it computes the row signature over every column except
	// those marked ColumnDef.Provenance (variant's discriminant/
	// inner_ref, recursive's left_child/right_child/depth), so two rows
	// that differ only in which arm or which fixpoint step produced them
	// collapse to one.
	DedupeAll
)

// AnyTable is the type-erased view of a Table[T] (§4.G Store): enough to
// report row counts, export CSV, and resolve a selector path without the
// caller knowing T. Internal search and composition code keeps working
// through the generic Table[T] directly; AnyTable exists for the Store
// boundary and for selector/report code that walks across pattern types.
type AnyTable interface {
	TypeID() TypeId
	Schema() Schema
	RowCount() int
	GetRow(row uint32) ([]Entry, bool)
	ToCSV(w io.Writer) error
}

// Table is the columnar result store for one pattern type T (§4.C).
// Column count equals len(Schema.Columns) for the table's lifetime; row
// indices are contiguous 0..N, assigned in push order.
type Table[T any] struct {
	typeID TypeId
	schema Schema
	rows   [][]Entry
}

// New creates an empty table for pattern type T under the given schema.
func New[T any](schema Schema) *Table[T] {
	return &Table[T]{typeID: TypeIDFor[T](), schema: schema}
}

// NewNamed creates a table under an explicitly chosen TypeId rather than
// one derived from T's reflected type name. Pattern definitions in
// pkg/pattern are Go values, not distinct Go types (a primitive.Def for
// "And" and one for "Or" both produce primitive.Match rows), so they
// need their own identity scheme: each Def carries a Name that becomes
// its table's TypeId here, keeping two differently-named patterns of the
// same row shape from colliding in the Store.
func NewNamed[T any](id TypeId, schema Schema) *Table[T] {
	return &Table[T]{typeID: id, schema: schema}
}

// TypeID returns the TypeId this table is registered under in the Store.
func (t *Table[T]) TypeID() TypeId { return t.typeID }

// Schema returns the table's fixed column layout.
func (t *Table[T]) Schema() Schema { return t.schema }

// RowCount returns the current height.
func (t *Table[T]) RowCount() int { return len(t.rows) }

// PushRow appends one entry-array, validating it against the schema
// (§4.C invariant: column count matches schema length throughout the
// table's lifetime), and returns a typed reference to the new row.
func (t *Table[T]) PushRow(entry []Entry) (Ref[T], error) {
	if len(entry) != len(t.schema.Columns) {
		return Ref[T]{}, fmt.Errorf("table: row has %d entries, schema %s has %d columns", len(entry), t.typeID, len(t.schema.Columns))
	}
	idx := uint32(len(t.rows))
	t.rows = append(t.rows, entry)
	return NewRef[T](idx), nil
}

// Row returns the entry-array at ref.
func (t *Table[T]) Row(ref Ref[T]) ([]Entry, bool) {
	return t.GetRow(ref.idx)
}

// GetRow is the type-erased row accessor backing AnyTable.
func (t *Table[T]) GetRow(row uint32) ([]Entry, bool) {
	if int(row) >= len(t.rows) {
		return nil, false
	}
	return t.rows[row], true
}

// GetCell looks up one named column's value within a row (§4.C
// `get_cell`).
func (t *Table[T]) GetCell(row uint32, colName string) (Entry, bool) {
	i := t.schema.IndexOf(colName)
	if i < 0 {
		return Entry{}, false
	}
	r, ok := t.GetRow(row)
	if !ok || i >= len(r) {
		return Entry{}, false
	}
	return r[i], true
}

// sigPair is one (column_index, reference_u32) pair of a row's signature
// (§4.B).
type sigPair struct {
	col uint32
	ref uint32
}

// rowSignatureSubset computes the sorted multiset of (column_index,
// reference_u32) pairs for a row's non-Null cells, restricted to idxs
// (§4.B, §4.C `deduplicate_subset`).
func rowSignatureSubset(row []Entry, idxs []int) []sigPair {
	var sig []sigPair
	for _, i := range idxs {
		if i >= len(row) || row[i].Null {
			continue
		}
		sig = append(sig, sigPair{col: uint32(i), ref: row[i].reference()})
	}
	sort.Slice(sig, func(a, b int) bool {
		if sig[a].col != sig[b].col {
			return sig[a].col < sig[b].col
		}
		return sig[a].ref < sig[b].ref
	})
	return sig
}

func signatureKey(sig []sigPair) string {
	var sb []byte
	for _, p := range sig {
		sb = append(sb, fmt.Sprintf("%d:%d;", p.col, p.ref)...)
	}
	return string(sb)
}

// allColumnIndices returns every column position in schema order,
// Deduplicate's DedupeInner column set.
func allColumnIndices(n int) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs
}

// nonProvenanceColumnIndices returns every column position except those
// marked ColumnDef.Provenance, Deduplicate's DedupeAll column set.
func nonProvenanceColumnIndices(cols []ColumnDef) []int {
	idxs := make([]int, 0, len(cols))
	for i, c := range cols {
		if c.Provenance {
			continue
		}
		idxs = append(idxs, i)
	}
	return idxs
}

// DeduplicateSubset returns a new table containing one row per distinct
// signature computed over only the named columns, preserving first-seen
// order (§4.C `deduplicate_subset(cols) -> Table`). Unknown column names
// are ignored.
func (t *Table[T]) DeduplicateSubset(cols []string) *Table[T] {
	idxs := make([]int, 0, len(cols))
	for _, name := range cols {
		if i := t.schema.IndexOf(name); i >= 0 {
			idxs = append(idxs, i)
		}
	}

	out := NewNamed[T](t.typeID, t.schema)
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		key := signatureKey(rowSignatureSubset(row, idxs))
		if seen[key] {
			continue
		}
		seen[key] = true
		out.rows = append(out.rows, row)
	}
	return out
}

// Deduplicate returns a new table containing one row per distinct
// signature under policy, preserving first-seen order. DedupeNone
// returns a table with all rows intact; DedupeInner signs on every
// column; DedupeAll signs on every column except those marked
// ColumnDef.Provenance, folding rows that differ only in how (not what)
// they matched (§4.I).
func (t *Table[T]) Deduplicate(policy Dedupe) *Table[T] {
	if policy == DedupeNone {
		out := NewNamed[T](t.typeID, t.schema)
		out.rows = append(out.rows, t.rows...)
		return out
	}

	var idxs []int
	if policy == DedupeAll {
		idxs = nonProvenanceColumnIndices(t.schema.Columns)
	} else {
		idxs = allColumnIndices(len(t.schema.Columns))
	}

	out := NewNamed[T](t.typeID, t.schema)
	seen := make(map[string]bool, len(t.rows))
	for _, row := range t.rows {
		key := signatureKey(rowSignatureSubset(row, idxs))
		if seen[key] {
			continue
		}
		seen[key] = true
		out.rows = append(out.rows, row)
	}
	return out
}

// ToCSV writes a header row of column names followed by one line per
// row, formatted per §6's CSV export table.
func (t *Table[T]) ToCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("table: write header: %w", err)
	}
	for _, row := range t.rows {
		record := make([]string, len(row))
		for i, e := range row {
			kind := ColMetadata
			if i < len(t.schema.Columns) {
				kind = t.schema.Columns[i].Kind
			}
			record[i] = csvFieldForKind(e, kind)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("table: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
