package table_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/table"
)

// testPattern is a stand-in pattern type used only to exercise Table[T]
// and its TypeId derivation; real pattern types live in pkg/pattern.
type testPattern struct{}

func andSchema() table.Schema {
	return table.Schema{Columns: []table.ColumnDef{
		{Name: "a", Kind: table.ColWire, Direction: table.DirIn},
		{Name: "b", Kind: table.ColWire, Direction: table.DirIn},
		{Name: "y", Kind: table.ColWire, Direction: table.DirOut},
	}}
}

func TestTablePushAndGetCell(t *testing.T) {
	tbl := table.New[testPattern](andSchema())

	ref, err := tbl.PushRow([]table.Entry{
		table.WireEntry(netlist.CellWire{Cell: 1, Bit: 0}),
		table.WireEntry(netlist.CellWire{Cell: 2, Bit: 0}),
		table.WireEntry(netlist.CellWire{Cell: 3, Bit: 0}),
	})
	require.NoError(t, err)
	require.Equal(t, uint32(0), ref.Index())
	require.Equal(t, 1, tbl.RowCount())

	cell, ok := tbl.GetCell(0, "y")
	require.True(t, ok)
	require.Equal(t, netlist.CellWire{Cell: 3, Bit: 0}, cell.Wire)

	_, ok = tbl.GetCell(0, "nonexistent")
	require.False(t, ok)
}

func TestTablePushRow_WrongArityErrors(t *testing.T) {
	tbl := table.New[testPattern](andSchema())
	_, err := tbl.PushRow([]table.Entry{table.WireEntry(netlist.CellWire{Cell: 1})})
	require.Error(t, err)
}

func TestTableDeduplicate_InnerCollapsesEqualSignatures(t *testing.T) {
	tbl := table.New[testPattern](andSchema())
	row := func(a, b, y uint64) []table.Entry {
		return []table.Entry{
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(a)}),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(b)}),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(y)}),
		}
	}
	_, err := tbl.PushRow(row(1, 2, 3))
	require.NoError(t, err)
	_, err = tbl.PushRow(row(2, 1, 3)) // commutative-swap duplicate
	require.NoError(t, err)
	_, err = tbl.PushRow(row(4, 5, 6)) // distinct match
	require.NoError(t, err)
	require.Equal(t, 3, tbl.RowCount())

	deduped := tbl.Deduplicate(table.DedupeInner)
	require.Equal(t, 2, deduped.RowCount())
}

func provenanceSchema() table.Schema {
	return table.Schema{Columns: []table.ColumnDef{
		{Name: "discriminant", Kind: table.ColMetadata, Provenance: true},
		{Name: "a", Kind: table.ColWire, Direction: table.DirIn},
		{Name: "y", Kind: table.ColWire, Direction: table.DirOut},
	}}
}

// TestTableDeduplicate_AllFoldsAcrossProvenanceDistinctInner mirrors what
// variant's discriminant/inner_ref columns produce: two rows identical in
// every structural column but tagged with a different provenance value.
// DedupeInner must keep both; DedupeAll must collapse them to one.
func TestTableDeduplicate_AllFoldsAcrossProvenanceDistinctInner(t *testing.T) {
	tbl := table.New[testPattern](provenanceSchema())
	row := func(discriminant uint32, a, y uint64) []table.Entry {
		return []table.Entry{
			table.MetadataEntry(discriminant),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(a)}),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(y)}),
		}
	}
	_, err := tbl.PushRow(row(0, 1, 2))
	require.NoError(t, err)
	_, err = tbl.PushRow(row(1, 1, 2)) // same structure, different arm
	require.NoError(t, err)
	_, err = tbl.PushRow(row(0, 3, 4)) // distinct match
	require.NoError(t, err)
	require.Equal(t, 3, tbl.RowCount())

	inner := tbl.Deduplicate(table.DedupeInner)
	require.Equal(t, 3, inner.RowCount(), "DedupeInner should keep rows distinguished by a Provenance column")

	all := tbl.Deduplicate(table.DedupeAll)
	require.Equal(t, 2, all.RowCount(), "DedupeAll should fold rows identical outside Provenance columns")
}

func TestTableDeduplicateSubset_OnlyNamedColumnsParticipate(t *testing.T) {
	tbl := table.New[testPattern](andSchema())
	row := func(a, b, y uint64) []table.Entry {
		return []table.Entry{
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(a)}),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(b)}),
			table.WireEntry(netlist.CellWire{Cell: netlist.PhysicalCellId(y)}),
		}
	}
	_, err := tbl.PushRow(row(1, 2, 3))
	require.NoError(t, err)
	_, err = tbl.PushRow(row(1, 9, 3)) // differs only in "b"
	require.NoError(t, err)

	deduped := tbl.DeduplicateSubset([]string{"a", "y"})
	require.Equal(t, 1, deduped.RowCount())
}

func TestTableDeduplicate_NonePreservesAllRows(t *testing.T) {
	tbl := table.New[testPattern](andSchema())
	entry := []table.Entry{
		table.WireEntry(netlist.CellWire{Cell: 1}),
		table.WireEntry(netlist.CellWire{Cell: 2}),
		table.WireEntry(netlist.CellWire{Cell: 3}),
	}
	_, _ = tbl.PushRow(entry)
	_, _ = tbl.PushRow(entry)

	deduped := tbl.Deduplicate(table.DedupeNone)
	require.Equal(t, 2, deduped.RowCount())
}

func TestTableToCSV(t *testing.T) {
	tbl := table.New[testPattern](andSchema())
	_, err := tbl.PushRow([]table.Entry{
		table.WireEntry(netlist.CellWire{Cell: 1, Bit: 0}),
		table.NullEntry(),
		table.WireEntry(netlist.CellWire{Cell: 3, Bit: 0}),
	})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, tbl.ToCSV(&sb))
	out := sb.String()
	require.Contains(t, out, "a,b,y")
	require.Contains(t, out, "cell_1[0]")
}

func TestTypeIDForDistinguishesTypes(t *testing.T) {
	type other struct{}
	idA := table.TypeIDFor[testPattern]()
	idB := table.TypeIDFor[other]()
	require.NotEqual(t, idA, idB)
}

func TestAnyTableInterfaceSatisfied(t *testing.T) {
	var _ table.AnyTable = table.New[testPattern](andSchema())
}
