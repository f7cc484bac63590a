package crosstab

import (
	"fmt"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// POPCountOptions tunes the POP row count comparison
type POPCountOptions struct {
	Tolerance int
	// HighlightedInel is subtracted from the submitted count when NetOfInel is set
	HighlightedInel int
	NetOfInel       bool
}

// CheckPOPCount compares the POP tab's non-blank rows with the submitted count
func CheckPOPCount(pop *workbook.Sheet, submitted int, opts POPCountOptions) []models.Issue {
	rows := pop.NonEmptyRowCount()
	expected := submitted
	if opts.NetOfInel {
		expected -= opts.HighlightedInel
	}

	diff := rows - expected
	if diff < 0 {
		diff = -diff
	}
	if diff <= opts.Tolerance {
		return nil
	}

	desc := fmt.Sprintf("Submitted mismatch: header says %d, POP tab has %d rows.", submitted, rows)
	if opts.NetOfInel {
		desc = fmt.Sprintf("Submitted mismatch: header says %d less %d highlighted INEL rows = %d, POP tab has %d rows.",
			submitted, opts.HighlightedInel, expected, rows)
	}
	return []models.Issue{models.NewWorkbookIssue(models.IssuePOPCountMismatch, desc)}
}

// HighlightedInelRows counts INEL rows whose SERVICE DATE cell carries a fill.
// It reports false when the INEL tab has no SERVICE DATE column.
func HighlightedInelRows(inel *workbook.Sheet) (int, bool) {
	col, ok := findColumn(inel, "SERVICE DATE")
	if !ok {
		return 0, false
	}
	count := 0
	for _, row := range inel.DataRows(workbook.BlankRowsSkip) {
		if inel.Cell(row, col).Style.HasFill() {
			count++
		}
	}
	return count, true
}

// CheckUploadCount requires UPLOAD and OASCAPHS to hold the same number of rows
func CheckUploadCount(upload, primary *workbook.Sheet) []models.Issue {
	uploadRows := upload.NonEmptyRowCount()
	primaryRows := primary.NonEmptyRowCount()
	if uploadRows == primaryRows {
		return nil
	}
	return []models.Issue{models.NewWorkbookIssue(models.IssueUploadCountMismatch,
		fmt.Sprintf("UPLOAD mismatch: %d rows vs %d rows in %s", uploadRows, primaryRows, primary.Name()))}
}
