package table

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/gitrdm/svql/internal/netlist"
)

// Entry is one cell of a row's entry-array (spec §3 "Entry array"). Which
// field is meaningful is determined by the owning column's ColumnKind;
// Null short-circuits all of them.
type Entry struct {
	Null bool

	Wire      netlist.Wire
	Sub       uint32
	Metadata  uint32
	WireArray []netlist.Wire
}

// NullEntry is the empty cell for a nullable column with no value.
func NullEntry() Entry { return Entry{Null: true} }

// WireEntry wraps a single wire reference.
func WireEntry(w netlist.Wire) Entry { return Entry{Wire: w} }

// SubEntry wraps a row index into a dependency's table.
func SubEntry(row uint32) Entry { return Entry{Sub: row} }

// MetadataEntry wraps an opaque uint32 (discriminant, depth, tag).
func MetadataEntry(v uint32) Entry { return Entry{Metadata: v} }

// WireArrayEntry wraps an ordered wire bundle.
func WireArrayEntry(ws []netlist.Wire) Entry { return Entry{WireArray: ws} }

// reference reduces an Entry to the uint32 used by row-signature
// deduplication (§4.B, §4.I): "the multiset of (column_index,
// reference_u32) for all non-Null cells". Wire and WireArray values are
// reduced through fnv64a over their string form, the same
// hash-the-%v-representation idiom the teacher's pldb.go uses to
// deduplicate facts.
func (e Entry) reference() uint32 {
	switch {
	case e.Wire != nil:
		return hashString(e.Wire.String())
	case e.WireArray != nil:
		var sb strings.Builder
		for _, w := range e.WireArray {
			fmt.Fprintf(&sb, "%s|", w.String())
		}
		return hashString(sb.String())
	default:
		// Sub and Metadata entries are already a natural uint32.
		if e.Sub != 0 {
			return e.Sub
		}
		return e.Metadata
	}
}

func hashString(s string) uint32 {
	h := fnv.New64a()
	fmt.Fprint(h, s)
	sum := h.Sum64()
	return uint32(sum ^ (sum >> 32))
}

// csvFieldForKind renders one entry for CSV export (§6 CSV export
// table): Null -> empty, Wire -> stable identifier, WireArray ->
// bracketed list, Sub -> ref(<row_index>), Metadata -> decimal. It takes
// the owning column's kind because a zero-valued Sub entry (ref(0)) is
// indistinguishable from a zero Metadata entry by field values alone.
func csvFieldForKind(e Entry, kind ColumnKind) string {
	if e.Null {
		return ""
	}
	switch kind {
	case ColWire:
		if e.Wire == nil {
			return ""
		}
		return e.Wire.String()
	case ColWireArray:
		parts := make([]string, len(e.WireArray))
		for i, w := range e.WireArray {
			parts[i] = w.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ColSub:
		return fmt.Sprintf("ref(%d)", e.Sub)
	case ColMetadata:
		return fmt.Sprintf("%d", e.Metadata)
	default:
		return ""
	}
}
