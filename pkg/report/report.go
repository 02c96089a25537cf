// Package report implements hierarchical match rendering (component H,
// spec §4.H): turning a result row back into a tree of ReportNodes and
// rendering that tree as an ASCII diagram with source-line context.
package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
)

// ReportNode is one node in a hierarchical match report: a field name, a
// type/direction label, optional free-form details, an optional source
// location, and child nodes (submodule rows, wire fields, inner gates).
type ReportNode struct {
	Name       string
	TypeName   string
	Details    string
	SourceFile string
	SourceLine int
	Children   []ReportNode
}

// Render formats the tree rooted at n as an ASCII diagram, reading
// referenced source files on demand (cached across the whole render so a
// file with many annotated lines is read only once).
func (n ReportNode) Render() string {
	var b strings.Builder
	cache := make(map[string][]string)
	n.renderRecursive(&b, "", true, true, cache)
	return b.String()
}

func (n ReportNode) renderRecursive(b *strings.Builder, prefix string, isLast, isRoot bool, cache map[string][]string) {
	marker := "|-- "
	if isRoot {
		marker = ""
	} else if isLast {
		marker = "+-- "
	}

	typeInfo := fmt.Sprintf("(%s)", n.TypeName)
	if n.Details != "" {
		typeInfo = fmt.Sprintf("(%s: %s)", n.TypeName, n.Details)
	}

	sourceHeader := ""
	if n.SourceFile != "" {
		sourceHeader = fmt.Sprintf(": %s:", n.SourceFile)
	}

	fmt.Fprintf(b, "%s%s%s %s%s\n", prefix, marker, n.Name, typeInfo, sourceHeader)

	newPrefix := prefix
	if !isRoot {
		if isLast {
			newPrefix = prefix + "    "
		} else {
			newPrefix = prefix + "|   "
		}
	}

	if n.SourceFile != "" && n.SourceLine > 0 {
		lines := cachedLines(cache, n.SourceFile)
		content := "<line not found in file>"
		if n.SourceLine <= len(lines) {
			content = strings.TrimRight(lines[n.SourceLine-1], " \t")
		}
		fmt.Fprintf(b, "%s    %4d | %s\n", newPrefix, n.SourceLine, content)
	}

	for i, child := range n.Children {
		child.renderRecursive(b, newPrefix, i == len(n.Children)-1, false, cache)
	}
}

func cachedLines(cache map[string][]string, path string) []string {
	if lines, ok := cache[path]; ok {
		return lines
	}
	lines, _ := readFileLines(path)
	cache[path] = lines
	return lines
}

func readFileLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

// internalCellPrefix matches the metadata column name netlistpat.Def
// assigns to every internal (non-port) needle gate.
const internalCellPrefix = "__internal_cell_"

// WireNode builds the leaf report node for one wire field, mirroring how
// a gate's driving cell, a primary port, or a fixed constant is
// distinguished for display.
func WireNode(name string, w netlist.Wire, dir table.Direction, design *netlist.Index) ReportNode {
	typeName := netlist.Direction(dir).String()
	switch v := w.(type) {
	case netlist.CellWire:
		if design == nil {
			return ReportNode{Name: name, TypeName: typeName, Details: fmt.Sprintf("CellId: %d", uint64(v.Cell))}
		}
		node, ok := design.ResolveNode(v.Cell)
		if !ok {
			return ReportNode{Name: name, TypeName: typeName, Details: fmt.Sprintf("CellId: %d", uint64(v.Cell))}
		}
		cell, ok := design.GetCell(node)
		if !ok {
			return ReportNode{Name: name, TypeName: typeName, Details: fmt.Sprintf("CellId: %d", uint64(v.Cell))}
		}
		switch cell.Kind {
		case netlist.Input:
			return ReportNode{Name: name, TypeName: typeName, Details: "Port: " + cell.InputName}
		case netlist.Output:
			return ReportNode{Name: name, TypeName: typeName, Details: "Port: " + cell.OutputName}
		default:
			rn := ReportNode{Name: name, TypeName: typeName, Details: fmt.Sprintf("CellId: %d", uint64(v.Cell))}
			if cell.SourceLoc != nil {
				rn.SourceFile = cell.SourceLoc.File
				rn.SourceLine = cell.SourceLoc.Line
			}
			return rn
		}
	case netlist.PortWire:
		return ReportNode{Name: name, TypeName: typeName, Details: fmt.Sprintf("Port (%s): %s", v.Direction, v.Name)}
	case netlist.ConstWire:
		return ReportNode{Name: name, TypeName: typeName, Details: "Const: " + v.Value.String()}
	default:
		return ReportNode{Name: name, TypeName: typeName, Details: "<unknown wire>"}
	}
}

// RowToReportNode rehydrates one row of typeName/schema/row into a tree:
// ColWire columns become wire leaves, ColSub columns with a statically
// known target table (true for every composite submodule and every
// recursive base/left_child/right_child column) recurse into that row,
// and ColMetadata columns become either a named internal-gate child (the
// netlistpat "__internal_cell_<n>" convention) or a detail annotation on
// this node.
//
// A variant's own "discriminant"/"inner_ref" pair is deliberately NOT
// expanded here: unlike composite/recursive, a ColSub-shaped reference
// into the matched arm's table would need a per-row target TypeId that
// the schema cannot express statically (see pkg/pattern/variant),
// so those two columns surface only as detail annotations; callers that
// need the matched arm's own report tree look it up via the arm TypeId
// list they already hold (the same ArmIndex/InnerRef pair variant.Match
// exposes) and call RowToReportNode again directly.
func RowToReportNode(typeName string, schema table.Schema, row []table.Entry, s *store.Store, design *netlist.Index) ReportNode {
	node := ReportNode{Name: typeName, TypeName: typeName}
	var details []string

	for i, col := range schema.Columns {
		if i >= len(row) || row[i].Null {
			continue
		}
		switch col.Kind {
		case table.ColWire:
			node.Children = append(node.Children, WireNode(col.Name, row[i].Wire, col.Direction, design))

		case table.ColSub:
			child, ok := subRowNode(col, row[i].Sub, s, design)
			if ok {
				child.Name = col.Name
				node.Children = append(node.Children, child)
			} else {
				details = append(details, fmt.Sprintf("%s: row %d", col.Name, row[i].Sub))
			}

		case table.ColMetadata:
			if strings.HasPrefix(col.Name, internalCellPrefix) {
				node.Children = append(node.Children, internalCellNode(col.Name, netlist.PhysicalCellId(row[i].Metadata), design))
			} else {
				details = append(details, fmt.Sprintf("%s: %d", col.Name, row[i].Metadata))
			}
		}
	}

	node.Details = strings.Join(details, ", ")
	return node
}

func subRowNode(col table.ColumnDef, rowIdx uint32, s *store.Store, design *netlist.Index) (ReportNode, bool) {
	if s == nil || col.SubType == "" {
		return ReportNode{}, false
	}
	at, ok := s.Get(col.SubType)
	if !ok {
		return ReportNode{}, false
	}
	subRow, ok := at.GetRow(rowIdx)
	if !ok {
		return ReportNode{}, false
	}
	return RowToReportNode(string(col.SubType), at.Schema(), subRow, s, design), true
}

func internalCellNode(colName string, id netlist.PhysicalCellId, design *netlist.Index) ReportNode {
	rawNode := strings.TrimPrefix(colName, internalCellPrefix)
	name := "cell_" + rawNode
	rn := ReportNode{Name: name, TypeName: "Internal", Details: fmt.Sprintf("CellId: %d", uint64(id))}
	if design == nil {
		return rn
	}
	node, ok := design.ResolveNode(id)
	if !ok {
		return rn
	}
	cell, ok := design.GetCell(node)
	if !ok {
		return rn
	}
	if cell.SourceLoc != nil {
		rn.SourceFile = cell.SourceLoc.File
		rn.SourceLine = cell.SourceLoc.Line
	}
	return rn
}

// BuildReportNode looks up typeID's table in s, fetches row rowIdx, and
// rehydrates it into a report tree in one call — the common entry point
// for turning a top-level match Ref into a renderable report.
func BuildReportNode(typeID table.TypeId, rowIdx uint32, s *store.Store, design *netlist.Index) (ReportNode, bool) {
	at, ok := s.Get(typeID)
	if !ok {
		return ReportNode{}, false
	}
	row, ok := at.GetRow(rowIdx)
	if !ok {
		return ReportNode{}, false
	}
	return RowToReportNode(string(typeID), at.Schema(), row, s, design), true
}

// ParseInternalCellNode extracts the needle GraphNodeIdx embedded in an
// internal-cell column name, for callers that want to cross-reference a
// netlistpat.Match.Internal key against its rendered report child.
func ParseInternalCellNode(colName string) (int, bool) {
	if !strings.HasPrefix(colName, internalCellPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(colName, internalCellPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}
