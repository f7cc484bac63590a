package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/rules"
)

// QTR header colours alternate by the month the service period starts in
const (
	colorOddMonth  = "#ff8c00"
	colorEvenMonth = "#27ae60"
)

type view struct {
	Title        string
	Version      string
	Client       string
	AuditID      string
	ReportDate   string
	FileModified string
	DateRange    string
	Reason       string

	Header        []valueRow
	Contacts      []valueRow
	Checks        []checkRow
	QTR           qtrLine
	Registry      *registryLine
	RowIssues     []issueRow
	General       []issueRow
	IneligibleCPT []models.IneligibleCPT
	Invalid       []models.AddressFinding
	Problematic   []models.AddressFinding
}

type valueRow struct {
	Label   string
	Value   string
	Missing bool
}

type checkRow struct {
	Name   string
	Detail string
	Symbol string
	Class  string
}

type qtrLine struct {
	Color    string
	Headings []string
	Values   []string
}

type registryLine struct {
	File     string
	Registry string
	Symbol   string
	Text     string
}

type issueRow struct {
	Row         string
	MRN         string
	CMS         string
	Type        models.IssueType
	Description string
}

func buildView(result *models.Result, version string) *view {
	client := clientDisplay(result.FileName, result.SIDPrefix)
	v := &view{
		Title:         "Audit Report - " + rules.FileClientName(result.FileName),
		Version:       version,
		Client:        client,
		AuditID:       result.AuditID,
		ReportDate:    result.CompletedAt.Format(reportDateLayout),
		FileModified:  "N/A",
		IneligibleCPT: result.IneligibleCPT,
		Invalid:       result.AddressesOf(models.AddressInvalid),
		Problematic:   result.AddressesOf(models.AddressProblematic),
	}
	if !result.FileModified.IsZero() {
		v.FileModified = result.FileModified.Format(fileModifiedLayout)
	}
	if result.ServiceDates != nil {
		v.DateRange = longDate(result.ServiceDates.Start) + " - " + longDate(result.ServiceDates.End)
	}

	counts := result.Counts
	v.Header = []valueRow{
		known("Patients Submitted (from header)", counts.PatientsSubmitted),
		known("Eligible Patients (from footer)", counts.EligiblePatients),
		known("Sample Size (from footer)", counts.SampleSize),
	}
	v.Contacts = []valueRow{
		{Label: "Emails counted", Value: orNA(counts.Emails)},
		{Label: "Mailings counted", Value: orNA(counts.Mailings)},
		{Label: "Total of E/M", Value: totalEM(counts)},
		{Label: "Non-Reported entries", Value: orNA(counts.NonReported)},
		{Label: "Rows with CMS INDICATOR = 1", Value: orNA(counts.CMS1Count)},
		{Label: "INEL tab ineligible rows", Value: orNA(counts.InelCount)},
		{Label: "FRAME tab ineligible rows", Value: orNA(counts.FrameInelCount)},
	}

	for _, c := range result.Checks {
		v.Checks = append(v.Checks, newCheckRow(c))
	}

	v.QTR = qtrLine{
		Color:    qtrColor(result.ServiceDates),
		Headings: []string{"SID", "Client", "Non-Reported", "Emails", "Mailings", "Selection %", "Submitted", "Eligible", "Sample Size"},
		Values: []string{
			nonEmpty(result.SIDPrefix),
			result.ClientName,
			orNA(counts.NonReported),
			orNA(counts.Emails),
			orNA(counts.Mailings),
			selection(result.SelectionPercent),
			orNA(counts.PatientsSubmitted),
			orNA(counts.EligiblePatients),
			orNA(counts.SampleSize),
		},
	}

	if result.SIDPrefix != "" && result.RegistryName != "" {
		line := &registryLine{
			File:     rules.FileClientName(result.FileName),
			Registry: result.RegistryName,
			Symbol:   "✗",
			Text:     "mismatch",
		}
		if result.RegistryMatch {
			line.Symbol, line.Text = "✓", "match"
		}
		v.Registry = line
	}

	for _, issue := range result.RowIssues() {
		v.RowIssues = append(v.RowIssues, newIssueRow(issue))
	}
	for _, issue := range result.GeneralIssues() {
		v.General = append(v.General, newIssueRow(issue))
	}
	return v
}

func newIssueRow(issue models.Issue) issueRow {
	return issueRow{
		Row:         issue.Row.String(),
		MRN:         issue.MRN,
		CMS:         issue.CMS,
		Type:        issue.Type,
		Description: issue.Description,
	}
}

func newCheckRow(c models.CheckOutcome) checkRow {
	row := checkRow{Name: c.Name, Detail: c.Detail}
	switch c.Status {
	case models.CheckPass:
		row.Symbol, row.Class = "✓", "pass"
	case models.CheckFail:
		row.Symbol, row.Class = "✗", "fail"
	case models.CheckSkipped:
		row.Symbol, row.Class = "skipped", "skip"
	default:
		row.Symbol, row.Class = "not evaluated", "fail"
	}
	return row
}

// clientDisplay is the file's client name, followed by the SID prefix when known
func clientDisplay(fileName, sidPrefix string) string {
	name := rules.FileClientName(filepath.Base(fileName))
	if sidPrefix == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, sidPrefix)
}

func qtrColor(dates *models.DateRange) string {
	if dates != nil && int(dates.Start.Month())%2 == 1 {
		return colorOddMonth
	}
	return colorEvenMonth
}

func known(label string, value *int) valueRow {
	if value == nil {
		return valueRow{Label: label, Missing: true}
	}
	return valueRow{Label: label, Value: strconv.Itoa(*value)}
}

func orNA(value *int) string {
	if value == nil {
		return "N/A"
	}
	return strconv.Itoa(*value)
}

func nonEmpty(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func totalEM(counts models.AggregateCounts) string {
	emails, okE := models.IntValue(counts.Emails)
	mailings, okM := models.IntValue(counts.Mailings)
	if !okE || !okM {
		return "N/A"
	}
	return strconv.Itoa(emails + mailings)
}

func selection(percent *int) string {
	if percent == nil {
		return "N/A"
	}
	return fmt.Sprintf("~%d%%", *percent)
}

// longDate renders "November 16th, 2025"
func longDate(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Format("January"), t.Day(), ordinalSuffix(t.Day()), t.Year())
}

func ordinalSuffix(day int) string {
	if n := day % 100; n >= 10 && n <= 20 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
