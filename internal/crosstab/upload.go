package crosstab

import (
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

type columnPair struct {
	name    string
	primary int
	upload  int
}

// CompareUploadValues compares every shared column cell by cell, in
// OASCAPHS column order, up to the shorter sheet's populated length
func CompareUploadValues(upload, primary *workbook.Sheet) []models.Issue {
	pairs := sharedColumns(upload, primary)
	if len(pairs) == 0 {
		return nil
	}

	last := min(upload.NonEmptyRowCount(), primary.NonEmptyRowCount()) + 1
	mrnCol, hasMRN := findColumn(primary, "MRN")

	var issues []models.Issue
	for r := 2; r <= last; r++ {
		for _, p := range pairs {
			up := upload.Value(r, p.upload)
			oas := primary.Value(r, p.primary)
			if up == oas {
				continue
			}
			issue := models.Issue{
				Row:         models.AtRow(SheetUpload, r),
				Type:        models.IssueUploadValueMismatch,
				Description: "Column " + p.name + ": UPLOAD=" + display(up) + " vs OASCAPHS=" + display(oas),
			}
			if hasMRN {
				issue.MRN = primary.Value(r, mrnCol)
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

func sharedColumns(upload, primary *workbook.Sheet) []columnPair {
	uploadCols := make(map[string]int)
	for i, cell := range upload.Row(1) {
		title := normalizeTitle(cell.Value)
		if _, seen := uploadCols[title]; title != "" && !seen {
			uploadCols[title] = i + 1
		}
	}

	var pairs []columnPair
	taken := make(map[string]bool)
	for i, cell := range primary.Row(1) {
		title := normalizeTitle(cell.Value)
		if title == "" || ignoredUploadColumns[title] || taken[title] {
			continue
		}
		if col, ok := uploadCols[title]; ok {
			taken[title] = true
			pairs = append(pairs, columnPair{name: title, primary: i + 1, upload: col})
		}
	}
	return pairs
}

func display(v string) string {
	if v == "" {
		return "(blank)"
	}
	return v
}
