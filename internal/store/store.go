// Package store implements the type-erased result map (component G,
// spec §4.G): a TypeId -> AnyTable map populated once per query
// execution, with typed access recovered through generics at the Get/
// Resolve boundary.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gitrdm/svql/internal/qerr"
	"github.com/gitrdm/svql/internal/table"
)

// Store is the completed plan's published tables, keyed by TypeId.
type Store struct {
	tables map[table.TypeId]table.AnyTable
}

// New wraps an already-published TypeId -> AnyTable map (produced by
// plan.Context.Tables() at plan completion) as a Store. Cloning here is
// a cheap map copy, not a deep table copy: tables are immutable once
// published (§5 "no table is mutated after publication"), so sharing the
// underlying values is exactly the "clone slot Arcs" §4.F describes.
func New(tables map[table.TypeId]table.AnyTable) *Store {
	clone := make(map[table.TypeId]table.AnyTable, len(tables))
	for id, t := range tables {
		clone[id] = t
	}
	return &Store{tables: clone}
}

// Get returns the type-erased table registered under id, if any.
func (s *Store) Get(id table.TypeId) (table.AnyTable, bool) {
	t, ok := s.tables[id]
	return t, ok
}

// GetTyped recovers the statically typed Table[T] for pattern type T,
// downcasting via Go's type assertion (the module's one use of runtime
// type recovery, confined to this boundary per §4.G/§9 "downcasts occur
// only at user boundaries").
func GetTyped[T any](s *Store) (*table.Table[T], bool) {
	return GetTypedNamed[T](s, table.TypeIDFor[T]())
}

// GetTypedNamed is GetTyped for pattern row types published under an
// explicit, Def-chosen TypeId (table.NewNamed) rather than one derived
// from T's reflected name — the common case, since pkg/pattern defines
// patterns as values (many distinctly-named patterns share the same Go
// row type, e.g. every primitive.Def produces a primitive.Match).
func GetTypedNamed[T any](s *Store, id table.TypeId) (*table.Table[T], bool) {
	at, ok := s.tables[id]
	if !ok {
		return nil, false
	}
	t, ok := at.(*table.Table[T])
	return t, ok
}

// Resolve combines GetTyped and Table[T].Row: the common case of turning
// a Ref[T] held by a caller (or a Sub entry rehydrated from another
// table) back into the row it names.
func Resolve[T any](s *Store, ref table.Ref[T]) ([]table.Entry, error) {
	return ResolveNamed(s, table.TypeIDFor[T](), ref)
}

// ResolveNamed is Resolve against an explicit Def-chosen TypeId; see
// GetTypedNamed.
func ResolveNamed[T any](s *Store, id table.TypeId, ref table.Ref[T]) ([]table.Entry, error) {
	t, ok := GetTypedNamed[T](s, id)
	if !ok {
		return nil, &qerr.MissingDependencyError{Name: string(id)}
	}
	row, ok := t.Row(ref)
	if !ok {
		return nil, fmt.Errorf("store: row %d out of range", ref.Index())
	}
	return row, nil
}

// ToCSVDir writes one CSV file per table into dir (one file per pattern
// type, §6 "CSV export"), fanning the writes out across a small worker
// pool since table count and per-table size are both independent of any
// single write's cost.
func (s *Store) ToCSVDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	pool := NewWorkerPool(0)
	var mu sync.Mutex
	var firstErr error
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for id, t := range s.tables {
		id, t := id, t
		pool.Submit(func() {
			path := filepath.Join(dir, csvFileName(id))
			f, err := os.Create(path)
			if err != nil {
				record(&qerr.SerializationError{Path: path, Err: err})
				return
			}
			defer f.Close()
			if err := t.ToCSV(f); err != nil {
				record(&qerr.SerializationError{Path: path, Err: err})
			}
		})
	}
	pool.Close()

	return firstErr
}

func csvFileName(id table.TypeId) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(string(id))
	return safe + ".csv"
}
