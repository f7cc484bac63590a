package crosstab

import (
	"fmt"
	"strings"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// headerSearchRows bounds how far down a client export's header row may sit
const headerSearchRows = 10

// MRNAliases are the header titles client exports use for the record number
var MRNAliases = []string{
	"MRN", "MR#", "MR #", "MR NUMBER", "MRN #", "MRN#",
	"MEDICAL RECORD NUMBER", "MEDICAL RECORD #", "MEDICAL RECORD NO",
	"MED REC #", "MED REC NO", "MEDREC", "PATIENT MRN", "PATIENT ID",
	"PT ID", "ACCOUNT NUMBER", "ACCT #",
}

// EmailAliases are the header titles client exports use for the email column
var EmailAliases = []string{
	"EMAIL ADDRESS", "EMAIL", "E-MAIL", "E-MAIL ADDRESS", "EMAIL_ADDRESS",
	"EMAILADDRESS", "PATIENT EMAIL", "PATIENT EMAIL ADDRESS", "PT EMAIL",
	"EMAIL ADDR",
}

type emailColumns struct {
	headerRow int
	mrn       int
	email     int
}

func locateEmailColumns(sheet *workbook.Sheet) (emailColumns, bool) {
	last := min(headerSearchRows, sheet.MaxRow())
	for r := 1; r <= last; r++ {
		mrn, okMRN := findColumnAt(sheet, r, MRNAliases...)
		email, okEmail := findColumnAt(sheet, r, EmailAliases...)
		if okMRN && okEmail {
			return emailColumns{headerRow: r, mrn: mrn, email: email}, true
		}
	}
	return emailColumns{}, false
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// CheckEmailConsistency flags UPLOAD rows whose email differs from the POP
// email recorded for the same MRN. Blank emails on either side never conflict.
func CheckEmailConsistency(pop, upload *workbook.Sheet) []models.Issue {
	popCols, ok := locateEmailColumns(pop)
	if !ok {
		return []models.Issue{emailColumnMissing(SheetPOP)}
	}
	uploadCols, ok := locateEmailColumns(upload)
	if !ok {
		return []models.Issue{emailColumnMissing(SheetUpload)}
	}

	popEmails := make(map[string]string)
	for r := popCols.headerRow + 1; r <= pop.MaxRow(); r++ {
		mrn := pop.Value(r, popCols.mrn)
		email := normalizeEmail(pop.Value(r, popCols.email))
		if mrn == "" || email == "" {
			continue
		}
		if _, seen := popEmails[mrn]; !seen {
			popEmails[mrn] = email
		}
	}

	var issues []models.Issue
	for r := uploadCols.headerRow + 1; r <= upload.MaxRow(); r++ {
		mrn := upload.Value(r, uploadCols.mrn)
		email := normalizeEmail(upload.Value(r, uploadCols.email))
		popEmail, found := popEmails[mrn]
		if mrn == "" || email == "" || !found || email == popEmail {
			continue
		}
		issues = append(issues, models.Issue{
			Row:         models.AtRow(SheetUpload, r),
			MRN:         mrn,
			Type:        models.IssueEmailMismatch,
			Description: fmt.Sprintf("UPLOAD: '%s' vs POP: '%s'", email, popEmail),
		})
	}
	return issues
}

func emailColumnMissing(sheet string) models.Issue {
	return models.NewWorkbookIssue(models.IssueEmailColumnMissing,
		fmt.Sprintf("POP/UPLOAD Email Check: could not locate MRN and email columns in the first %d rows of %s",
			headerSearchRows, sheet))
}
