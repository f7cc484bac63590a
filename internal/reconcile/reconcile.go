// Package reconcile checks the submission's header totals against the
// counts derived from its rows and companion tabs.
package reconcile

import (
	"fmt"
	"math"
	"strings"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/rules"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Check names shown in the report summary
const (
	CheckSampleSize     = "Sample Size matches Reported"
	CheckEMTotal        = "E/M total matches Sample Size"
	CheckIneligibleMath = "Eligible + Combined Ineligible equals Submitted"
)

// Contacts tallies how reported patients will be surveyed
type Contacts struct {
	Emails      int
	Mailings    int
	NonReported int
	CMS1        int
}

// Total is the number of reported patients with a survey mode
func (c Contacts) Total() int {
	return c.Emails + c.Mailings
}

// CountContacts tallies the given rows by CMS INDICATOR and E/M
func CountContacts(sheet *workbook.Sheet, rows []int, cmsCol, emCol int) Contacts {
	var c Contacts
	for _, row := range rows {
		cms, ok := rules.ParseIndicator(sheet.Value(row, cmsCol))
		if !ok {
			continue
		}
		switch cms {
		case 1:
			c.CMS1++
			switch strings.ToUpper(sheet.Value(row, emCol)) {
			case "E":
				c.Emails++
			case "M":
				c.Mailings++
			}
		case 2:
			c.NonReported++
		}
	}
	return c
}

// Apply copies the tallies into the aggregate counts
func (c Contacts) Apply(counts *models.AggregateCounts) {
	counts.Emails = models.IntPtr(c.Emails)
	counts.Mailings = models.IntPtr(c.Mailings)
	counts.NonReported = models.IntPtr(c.NonReported)
	counts.CMS1Count = models.IntPtr(c.CMS1)
}

func skipped(name, detail string) models.CheckOutcome {
	return models.CheckOutcome{Name: name, Status: models.CheckSkipped, Detail: detail}
}

// SampleSize requires one CMS=1 row per sampled patient
func SampleSize(counts models.AggregateCounts) ([]models.Issue, models.CheckOutcome) {
	ss, okSS := models.IntValue(counts.SampleSize)
	cms1, okCMS := models.IntValue(counts.CMS1Count)
	if !okSS || !okCMS {
		return nil, skipped(CheckSampleSize, "sample size or CMS counts unknown")
	}
	if cms1 == ss {
		return nil, models.OutcomeFor(CheckSampleSize, 0)
	}
	issues := []models.Issue{models.NewWorkbookIssue(models.IssueSampleSizeMismatch,
		fmt.Sprintf("Sample Size mismatch: expected %d, found %d rows with CMS=1", ss, cms1))}
	return issues, models.OutcomeFor(CheckSampleSize, len(issues))
}

// EMTotal requires emails plus mailings to equal the sample size
func EMTotal(counts models.AggregateCounts) ([]models.Issue, models.CheckOutcome) {
	ss, okSS := models.IntValue(counts.SampleSize)
	emails, okE := models.IntValue(counts.Emails)
	mailings, okM := models.IntValue(counts.Mailings)
	if !okSS || !okE || !okM {
		return nil, skipped(CheckEMTotal, "sample size or E/M counts unknown")
	}
	total := emails + mailings
	if total == ss {
		return nil, models.OutcomeFor(CheckEMTotal, 0)
	}
	issues := []models.Issue{models.NewWorkbookIssue(models.IssueEMTotalMismatch,
		fmt.Sprintf("Reported total mismatch: %d vs Sample Size %d", total, ss))}
	return issues, models.OutcomeFor(CheckEMTotal, len(issues))
}

// IneligibleMath requires eligible + INEL + FRAME repeats to equal submitted.
// An unknown INEL or FRAME count is taken as zero.
func IneligibleMath(counts models.AggregateCounts) ([]models.Issue, models.CheckOutcome) {
	submitted, okSub := models.IntValue(counts.PatientsSubmitted)
	eligible, okEl := models.IntValue(counts.EligiblePatients)
	if !okSub || !okEl {
		return nil, skipped(CheckIneligibleMath, "submitted or eligible count unknown")
	}
	combined := counts.CombinedIneligible()
	if eligible+combined == submitted {
		return nil, models.OutcomeFor(CheckIneligibleMath, 0)
	}
	issues := []models.Issue{models.NewWorkbookIssue(models.IssueIneligibleMathError,
		fmt.Sprintf("Eligible (%d) + Combined INEL (%d) = %d, but Submitted = %d",
			eligible, combined, eligible+combined, submitted))}
	return issues, models.OutcomeFor(CheckIneligibleMath, len(issues))
}

// MissingHeaderValues warns about totals the header or footer did not state
func MissingHeaderValues(meta models.Metadata) []models.Issue {
	var issues []models.Issue
	if meta.PatientsSubmitted == nil {
		issues = append(issues, models.NewWorkbookIssue(models.IssueHeaderValueMissing,
			"SUBMITTED value not found in header"))
	}
	if meta.EligiblePatients == nil {
		issues = append(issues, models.NewWorkbookIssue(models.IssueHeaderValueMissing,
			"EL value not found in footer"))
	}
	if meta.SampleSize == nil {
		issues = append(issues, models.NewWorkbookIssue(models.IssueHeaderValueMissing,
			"SS value not found in footer"))
	}
	return issues
}

// SelectionPercent is the sample size as a rounded-up share of eligible patients
func SelectionPercent(counts models.AggregateCounts) *int {
	ss, okSS := models.IntValue(counts.SampleSize)
	eligible, okEl := models.IntValue(counts.EligiblePatients)
	if !okSS || !okEl || eligible <= 0 {
		return nil
	}
	return models.IntPtr(int(math.Ceil(float64(ss) / float64(eligible) * 100)))
}
