// Package crosstab reconciles the OASCAPHS tab with the companion POP,
// UPLOAD, INEL and FRAME tabs of a submission.
package crosstab

import (
	"strings"

	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Companion sheet names
const (
	SheetPOP    = "POP"
	SheetUpload = "UPLOAD"
	SheetInel   = "INEL"
	SheetFrame  = "FRAME"
)

// DefaultPOPTolerance is the allowed difference between the POP row count
// and the submitted count
const DefaultPOPTolerance = 4

// ignoredUploadColumns are recalculated by the upload tooling and never compared
var ignoredUploadColumns = map[string]bool{
	"LG": true, "FD": true, "ID": true, "ATT": true, "LAG": true,
}

func normalizeTitle(title string) string {
	return strings.ToUpper(strings.Join(strings.Fields(title), " "))
}

// findColumn returns the 1-based column of the first row-1 title matching
// name, ignoring case and repeated spaces
func findColumn(sheet *workbook.Sheet, name string) (int, bool) {
	return findColumnAt(sheet, 1, name)
}

func findColumnAt(sheet *workbook.Sheet, row int, names ...string) (int, bool) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[normalizeTitle(n)] = true
	}
	for i, cell := range sheet.Row(row) {
		if want[normalizeTitle(cell.Value)] {
			return i + 1, true
		}
	}
	return 0, false
}

// InelCount is the number of non-blank INEL rows below the header
func InelCount(inel *workbook.Sheet) int {
	return inel.NonEmptyRowCount()
}
