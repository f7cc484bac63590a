// Package rules implements the per-row checks run over the OASCAPHS tab.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Records is a read-only view of the OASCAPHS rows addressed by logical column name
type Records struct {
	sheet  *workbook.Sheet
	cols   columns.Map
	policy workbook.BlankRowPolicy
}

// NewRecords wraps a sheet, its column map and the blank-row policy
func NewRecords(sheet *workbook.Sheet, cols columns.Map, policy workbook.BlankRowPolicy) Records {
	return Records{sheet: sheet, cols: cols, policy: policy}
}

// Sheet returns the underlying sheet
func (r Records) Sheet() *workbook.Sheet {
	return r.sheet
}

// Columns returns the column map
func (r Records) Columns() columns.Map {
	return r.cols
}

// Rows lists the data rows visited by independent per-row checks
func (r Records) Rows() []int {
	return r.sheet.DataRows(r.policy.ForRows())
}

// SequenceRows lists the data rows visited by ordered scans
func (r Records) SequenceRows() []int {
	return r.sheet.DataRows(r.policy.ForSequence())
}

// Get returns the trimmed value of a named column, "" when the column is absent
func (r Records) Get(row int, name string) string {
	col, ok := r.cols.Resolve(name)
	if !ok {
		return ""
	}
	return r.sheet.Value(row, col)
}

// CellOf returns the cell of a named column
func (r Records) CellOf(row int, name string) workbook.Cell {
	col, ok := r.cols.Resolve(name)
	if !ok {
		return workbook.Cell{}
	}
	return r.sheet.Cell(row, col)
}

// CMS parses the CMS INDICATOR of a row
func (r Records) CMS(row int) (int, bool) {
	return ParseIndicator(r.Get(row, columns.CMSIndicator))
}

// Issue builds a row issue carrying the row's MRN and CMS values
func (r Records) Issue(row int, t models.IssueType, format string, args ...any) models.Issue {
	return models.Issue{
		Row:         models.AtRow(models.PrimarySheet, row),
		MRN:         r.Get(row, columns.MRN),
		CMS:         r.Get(row, columns.CMSIndicator),
		Type:        t,
		Description: fmt.Sprintf(format, args...),
	}
}

// ParseIndicator reads integral codes such as "1", "1.0" or " 2 "
func ParseIndicator(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
