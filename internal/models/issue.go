package models

import "strconv"

// PrimarySheet is the tab that holds the submitted patient records.
const PrimarySheet = "OASCAPHS"

// IssueType classifies a finding. The set is closed; renderers group by it.
type IssueType string

// Workbook-level and structural issues
const (
	IssueMissingRequiredHeader IssueType = "Missing Required Header"
	IssueHeaderValueMissing    IssueType = "Header Value Missing"
	IssueTabMissing            IssueType = "Tab Missing"
	IssueCheckNotEvaluated     IssueType = "Check Not Evaluated"
	IssueEmailColumnMissing    IssueType = "Email Column Missing"
)

// CPT issues
const (
	IssueSurgicalCategoryMismatch IssueType = "Surgical Category Mismatch"
	IssueCPTIneligible            IssueType = "CPT Ineligible"
)

// SID issues
const (
	IssueSIDMissing            IssueType = "SID Missing"
	IssueSIDFormat             IssueType = "SID Format"
	IssueSIDPrefix             IssueType = "SID Prefix"
	IssueSIDDuplicate          IssueType = "SID Duplicate"
	IssueSIDSequence           IssueType = "SID Sequence"
	IssueSIDPrefixUnregistered IssueType = "SID Prefix Unregistered"
)

// Row-level field issues
const (
	IssueInvalidGender          IssueType = "Invalid Gender"
	IssueMissingServiceDate     IssueType = "Missing Service Date"
	IssueInvalidServiceDate     IssueType = "Invalid Service Date"
	IssueFutureServiceDate      IssueType = "Future Service Date"
	IssueServiceDateMonth       IssueType = "Service Date Month Mismatch"
	IssueInvalidAge             IssueType = "Invalid Age"
	IssueUnderagePatient        IssueType = "Underage Patient"
	IssueInvalidDOB             IssueType = "Invalid Date of Birth"
	IssueInvalidEmail           IssueType = "Invalid Email"
	IssueInvalidSurveyLanguage  IssueType = "Invalid Survey Language"
	IssueEMMismatch             IssueType = "E/M Mismatch"
	IssueInvalidPhoneFormat     IssueType = "Invalid Phone Format"
	IssueImplausiblePhoneNumber IssueType = "Implausible Phone Number"
	IssuePlaceholderName        IssueType = "Placeholder Name"
	IssueDuplicateMRN           IssueType = "Duplicate MRN"
	IssueInvalidAddress         IssueType = "Invalid Address"
	IssueProblematicAddress     IssueType = "Problematic Address"
)

// Aggregate and cross-tab issues
const (
	IssueSampleSizeMismatch   IssueType = "Sample Size Mismatch"
	IssueEMTotalMismatch      IssueType = "E/M Total Mismatch"
	IssuePOPCountMismatch     IssueType = "POP Count Mismatch"
	IssueUploadCountMismatch  IssueType = "UPLOAD Count Mismatch"
	IssueUploadValueMismatch  IssueType = "UPLOAD Value Mismatch"
	IssueEmailMismatch        IssueType = "Email Mismatch (POP vs UPLOAD)"
	IssueIneligibleMathError  IssueType = "Ineligible Math Error"
	IssueInelRepeatFormatting IssueType = "INEL Repeat Formatting"
	IssueInelConflicting      IssueType = "INEL Conflicting Indicator"
	IssueInelMissingIndicator IssueType = "INEL Missing Indication"
)

// RowRef locates an issue. A zero Row means the issue applies to the whole workbook.
type RowRef struct {
	Sheet string `json:"sheet,omitempty"`
	Row   int    `json:"row,omitempty"`
}

// WorkbookLevel returns a reference that is not tied to a row
func WorkbookLevel() RowRef {
	return RowRef{}
}

// AtRow returns a reference to a 1-based row of a sheet
func AtRow(sheet string, row int) RowRef {
	return RowRef{Sheet: sheet, Row: row}
}

// IsWorkbookLevel reports whether the reference has no row
func (r RowRef) IsWorkbookLevel() bool {
	return r.Row <= 0
}

// String renders "N/A" for workbook-level refs, the bare row number for the
// primary sheet and "<SHEET> <row>" for companion tabs.
func (r RowRef) String() string {
	if r.IsWorkbookLevel() {
		return "N/A"
	}
	if r.Sheet == "" || r.Sheet == PrimarySheet {
		return strconv.Itoa(r.Row)
	}
	return r.Sheet + " " + strconv.Itoa(r.Row)
}

// Issue is a single finding produced by a check
type Issue struct {
	Row         RowRef    `json:"row"`
	MRN         string    `json:"mrn,omitempty"`
	CMS         string    `json:"cms,omitempty"`
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
}

// NewWorkbookIssue builds an issue that is not tied to a row
func NewWorkbookIssue(t IssueType, description string) Issue {
	return Issue{Row: WorkbookLevel(), Type: t, Description: description}
}

// CountByType tallies issues per type
func CountByType(issues []Issue) map[IssueType]int {
	counts := make(map[IssueType]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}
	return counts
}
