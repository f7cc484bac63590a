package workbook

import (
	"strings"
)

// Style is the subset of cell formatting the audit rules look at.
// Colors are upper-case RRGGBB without alpha.
type Style struct {
	FontColor   string
	Bold        bool
	FillColor   string
	FillPattern int
}

// HasFill reports whether the cell carries a visible background fill
func (s Style) HasFill() bool {
	return s.FillPattern > 0 && s.FillColor != "" && s.FillColor != "FFFFFF"
}

// Cell is a display value plus its formatting
type Cell struct {
	Value string
	Style Style
}

// IsEmpty reports whether the cell value is empty or whitespace
func (c Cell) IsEmpty() bool {
	return strings.TrimSpace(c.Value) == ""
}

// HeaderFooter holds the page header and footer variants of a sheet
type HeaderFooter struct {
	OddHeader   string
	OddFooter   string
	EvenHeader  string
	EvenFooter  string
	FirstHeader string
	FirstFooter string
}

// Sheet is a fully loaded worksheet. Rows and columns are 1-based in the API.
type Sheet struct {
	name         string
	rows         [][]Cell
	headerFooter HeaderFooter
}

// NewSheet builds a sheet from formatted rows
func NewSheet(name string, rows [][]Cell) *Sheet {
	return &Sheet{name: name, rows: rows}
}

// NewTextSheet builds an unformatted sheet from plain values
func NewTextSheet(name string, rows ...[]string) *Sheet {
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			cells[i][j] = Cell{Value: v}
		}
	}
	return NewSheet(name, cells)
}

// WithHeaderFooter sets the header/footer and returns the sheet
func (s *Sheet) WithHeaderFooter(hf HeaderFooter) *Sheet {
	s.headerFooter = hf
	return s
}

// Name returns the sheet name as stored in the workbook
func (s *Sheet) Name() string {
	return s.name
}

// HeaderFooter returns the header/footer variants
func (s *Sheet) HeaderFooter() HeaderFooter {
	return s.headerFooter
}

// MaxRow is the last row number that holds any cell
func (s *Sheet) MaxRow() int {
	return len(s.rows)
}

// Row returns the cells of a 1-based row, or nil past the sheet extent
func (s *Sheet) Row(n int) []Cell {
	if n < 1 || n > len(s.rows) {
		return nil
	}
	return s.rows[n-1]
}

// Cell returns the cell at a 1-based row and column. Missing cells are empty.
func (s *Sheet) Cell(row, col int) Cell {
	cells := s.Row(row)
	if col < 1 || col > len(cells) {
		return Cell{}
	}
	return cells[col-1]
}

// Value returns the trimmed value at a 1-based row and column
func (s *Sheet) Value(row, col int) string {
	return strings.TrimSpace(s.Cell(row, col).Value)
}

// HeaderIndex maps trimmed row-1 titles to their 1-based column.
// The first occurrence of a duplicated title wins.
func (s *Sheet) HeaderIndex() map[string]int {
	return s.HeaderIndexAt(1)
}

// HeaderIndexAt is HeaderIndex for a header row other than the first
func (s *Sheet) HeaderIndexAt(row int) map[string]int {
	index := make(map[string]int)
	for i, cell := range s.Row(row) {
		title := strings.TrimSpace(cell.Value)
		if title == "" {
			continue
		}
		if _, exists := index[title]; !exists {
			index[title] = i + 1
		}
	}
	return index
}

// NonEmptyCount is the number of non-blank cells in a row
func (s *Sheet) NonEmptyCount(row int) int {
	count := 0
	for _, cell := range s.Row(row) {
		if !cell.IsEmpty() {
			count++
		}
	}
	return count
}

// IsBlankRow reports whether every cell of the row is empty or whitespace
func (s *Sheet) IsBlankRow(row int) bool {
	return s.NonEmptyCount(row) == 0
}

// NonEmptyRowCount counts non-blank rows after the header row
func (s *Sheet) NonEmptyRowCount() int {
	count := 0
	for r := 2; r <= s.MaxRow(); r++ {
		if !s.IsBlankRow(r) {
			count++
		}
	}
	return count
}

// DataRows returns the row numbers (from row 2) a check should visit.
// BlankRowsStop ends at the first blank row; anything else skips blanks.
func (s *Sheet) DataRows(policy BlankRowPolicy) []int {
	var rows []int
	for r := 2; r <= s.MaxRow(); r++ {
		if s.IsBlankRow(r) {
			if policy == BlankRowsStop {
				break
			}
			continue
		}
		rows = append(rows, r)
	}
	return rows
}
