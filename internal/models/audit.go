package models

import (
	"fmt"
	"time"
)

// Metadata is what the OASCAPHS page header and footer say about the submission
type Metadata struct {
	Header            string `json:"header"`
	Footer            string `json:"footer"`
	PatientsSubmitted *int   `json:"patients_submitted"`
	EligiblePatients  *int   `json:"eligible_patients"`
	SampleSize        *int   `json:"sample_size"`
	SiteCode          string `json:"site_code,omitempty"`
	HeaderSID         string `json:"header_sid,omitempty"`
	AuditID           string `json:"audit_id"`
}

// AddressKind separates addresses that failed normalization from suspicious ones
type AddressKind string

const (
	AddressInvalid     AddressKind = "invalid"
	AddressProblematic AddressKind = "problematic"
)

// AddressFinding is a row whose address fields were rejected or look wrong
type AddressFinding struct {
	Kind    AddressKind `json:"kind"`
	Row     int         `json:"row"`
	MRN     string      `json:"mrn,omitempty"`
	CMS     string      `json:"cms,omitempty"`
	EM      string      `json:"em,omitempty"`
	Name    string      `json:"name,omitempty"`
	Street  string      `json:"street"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	Zip     string      `json:"zip"`
	Reasons []string    `json:"reasons"`
}

// IneligibleCPT is a reported (CMS=1) row whose CPT code is not survey-eligible
type IneligibleCPT struct {
	Row    int    `json:"row"`
	MRN    string `json:"mrn,omitempty"`
	CMS    string `json:"cms,omitempty"`
	CPT    string `json:"cpt"`
	Reason string `json:"reason"`
}

// DateRange is the span of valid service dates
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthLabel renders "Jan" or "Jan-Feb" for use in report names
func (d DateRange) MonthLabel() string {
	start := d.Start.Format("Jan")
	end := d.End.Format("Jan")
	if start == end {
		return start
	}
	return fmt.Sprintf("%s-%s", start, end)
}

// Result is everything one audit of one workbook produced
type Result struct {
	AuditID          string           `json:"audit_id"`
	FilePath         string           `json:"file_path"`
	FileName         string           `json:"file_name"`
	FileModified     time.Time        `json:"file_modified"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      time.Time        `json:"completed_at"`
	ClientName       string           `json:"client_name,omitempty"`
	RegistryName     string           `json:"registry_name,omitempty"`
	RegistryMatch    bool             `json:"registry_match"`
	SIDPrefix        string           `json:"sid_prefix,omitempty"`
	Metadata         Metadata         `json:"metadata"`
	Counts           AggregateCounts  `json:"counts"`
	SelectionPercent *int             `json:"selection_percent"`
	ServiceDates     *DateRange       `json:"service_dates,omitempty"`
	MissingColumns   []string         `json:"missing_columns,omitempty"`
	Issues           []Issue          `json:"issues"`
	Checks           []CheckOutcome   `json:"checks"`
	Addresses        []AddressFinding `json:"addresses,omitempty"`
	IneligibleCPT    []IneligibleCPT  `json:"ineligible_cpt,omitempty"`
}

// RowIssues returns the issues tied to a row
func (r *Result) RowIssues() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if !issue.Row.IsWorkbookLevel() {
			out = append(out, issue)
		}
	}
	return out
}

// GeneralIssues returns the workbook-level issues
func (r *Result) GeneralIssues() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Row.IsWorkbookLevel() {
			out = append(out, issue)
		}
	}
	return out
}

// AddressesOf filters address findings by kind
func (r *Result) AddressesOf(kind AddressKind) []AddressFinding {
	var out []AddressFinding
	for _, a := range r.Addresses {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Clean reports whether no issue was found
func (r *Result) Clean() bool {
	return len(r.Issues) == 0
}
