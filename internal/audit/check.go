package audit

import (
	"context"
	"time"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/rules"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Input is the read-only state every check sees
type Input struct {
	Workbook *workbook.Workbook
	Records  rules.Records
	Metadata models.Metadata
	Counts   models.AggregateCounts
	Now      time.Time
}

// Sheet returns a companion sheet that the check declared
func (in *Input) Sheet(name string) *workbook.Sheet {
	sheet, _ := in.Workbook.Sheet(name)
	return sheet
}

// Findings is what one check contributes to the result
type Findings struct {
	Issues []models.Issue
	// Outcome overrides the pass/fail outcome derived from Issues
	Outcome *models.CheckOutcome

	Addresses     []models.AddressFinding
	IneligibleCPT []models.IneligibleCPT
	ServiceDates  *models.DateRange
	SIDPrefix     string
	RegistryName  string
	RegistryMatch bool
}

// Check is one named validation with the tabs and OASCAPHS columns it needs.
// A missing Sheets entry skips the check; a missing SoftSheets entry is
// reported as a missing tab while the check still runs on what it has.
type Check struct {
	Name       string
	Sheets     []string
	SoftSheets []string
	Columns    []string
	Run        func(ctx context.Context, in *Input) (Findings, error)
}

func issuesOnly(issues []models.Issue) (Findings, error) {
	return Findings{Issues: issues}, nil
}

func withOutcome(issues []models.Issue, outcome models.CheckOutcome) (Findings, error) {
	return Findings{Issues: issues, Outcome: &outcome}, nil
}
