package tablegraph

// Table is a dense matrix of cell strings. Rows[0] is the header row when
// the statement prints one.
type Table struct {
	ID         string
	Rows       [][]string
	Confidence float64
}

// RowCount returns the number of rows including the header.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// Header returns row 0, or nil for an empty table.
func (t Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Resolve rebuilds every TABLE block of g as a matrix. Cells are placed by
// the indices the service assigned; positions nobody references stay empty.
// Cells outside MaxTableRows by MaxTableColumns are ignored. Tables without
// any resolvable cell are skipped.
func Resolve(g *Graph) []Table {
	var tables []Table
	for _, b := range g.Blocks() {
		if b.Type != BlockTable {
			continue
		}
		if t, ok := g.resolveTable(b); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// Cells placed beyond these bounds are dropped so that a malformed index
// cannot size the matrix.
const (
	MaxTableRows    = 5000
	MaxTableColumns = 256
)

type placedCell struct {
	row, col int
	text     string
}

func (g *Graph) resolveTable(table Block) (Table, bool) {
	var (
		cells          []placedCell
		maxRow, maxCol int
	)
	for _, child := range g.children(table, RelationChild) {
		if child.Type != BlockCell || child.RowIndex < 1 || child.ColumnIndex < 1 {
			continue
		}
		if child.RowIndex > MaxTableRows || child.ColumnIndex > MaxTableColumns {
			continue
		}
		row, col := child.RowIndex-1, child.ColumnIndex-1
		cells = append(cells, placedCell{row: row, col: col, text: g.wordText(child)})
		maxRow = max(maxRow, row)
		maxCol = max(maxCol, col)
	}
	if len(cells) == 0 {
		return Table{}, false
	}

	rows := make([][]string, maxRow+1)
	for i := range rows {
		rows[i] = make([]string, maxCol+1)
	}
	for _, c := range cells {
		rows[c.row][c.col] = c.text
	}
	return Table{ID: table.ID, Rows: rows, Confidence: table.Confidence}, true
}
