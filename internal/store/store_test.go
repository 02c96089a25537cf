package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
)

type samplePattern struct{}

func buildSampleTable(t *testing.T) *table.Table[samplePattern] {
	t.Helper()
	schema := table.Schema{Columns: []table.ColumnDef{{Name: "y", Kind: table.ColWire}}}
	tbl := table.New[samplePattern](schema)
	_, err := tbl.PushRow([]table.Entry{table.WireEntry(netlist.CellWire{Cell: 1, Bit: 0})})
	require.NoError(t, err)
	return tbl
}

func TestGetTypedAndResolve(t *testing.T) {
	tbl := buildSampleTable(t)
	s := store.New(map[table.TypeId]table.AnyTable{tbl.TypeID(): tbl})

	got, ok := store.GetTyped[samplePattern](s)
	require.True(t, ok)
	require.Equal(t, 1, got.RowCount())

	ref := table.NewRef[samplePattern](0)
	row, err := store.Resolve(s, ref)
	require.NoError(t, err)
	require.Equal(t, netlist.CellWire{Cell: 1, Bit: 0}, row[0].Wire)
}

func TestGetTyped_MissingTypeReturnsFalse(t *testing.T) {
	s := store.New(nil)
	_, ok := store.GetTyped[samplePattern](s)
	require.False(t, ok)
}

func TestResolve_MissingTypeErrors(t *testing.T) {
	s := store.New(nil)
	_, err := store.Resolve(s, table.NewRef[samplePattern](0))
	require.Error(t, err)
}

func TestToCSVDir_WritesOneFilePerTable(t *testing.T) {
	tbl := buildSampleTable(t)
	s := store.New(map[table.TypeId]table.AnyTable{tbl.TypeID(): tbl})

	dir := t.TempDir()
	require.NoError(t, s.ToCSVDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "cell_1[0]")
}
