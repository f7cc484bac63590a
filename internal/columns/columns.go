// Package columns resolves the logical OASCAPHS field names to column positions.
package columns

import "strings"

// Logical column names as they appear in the OASCAPHS header row
const (
	PatientName      = "PATIENT NAME"
	Address1         = "ADDRESS1"
	City             = "CITY"
	State            = "STATE"
	Zip              = "ZIP"
	Telephone        = "TELEPHONE"
	ServiceDate      = "SERVICE DATE"
	Gender           = "GENDER"
	Age              = "AGE"
	ProviderName     = "PROVIDER NAME"
	MRN              = "MRN"
	PType            = "P.TYPE"
	SurgicalCategory = "SURGICAL CATEGORY"
	ATT              = "ATT"
	LAG              = "LAG"
	ID               = "ID"
	FD               = "FD"
	LG               = "LG"
	EM               = "E/M"
	EmailAddress     = "EMAIL ADDRESS"
	CMSIndicator     = "CMS INDICATOR"
	SurveyLanguage   = "SURVEY LANGUAGE"

	CPT = "CPT"
	SID = "SID"
	DOB = "DOB"
)

// Required lists the columns every submission must carry, in report order
var Required = []string{
	PatientName, Address1, City, State, Zip, Telephone, ServiceDate, Gender,
	Age, ProviderName, MRN, PType, SurgicalCategory, ATT, LAG, ID, FD, LG,
	EM, EmailAddress, CMSIndicator, SurveyLanguage,
}

// Optional columns are resolved when present and never reported as missing
var Optional = []string{CPT, SID, DOB}

var aliases = map[string][]string{
	DOB: {"DATE OF BIRTH", "BIRTH DATE"},
}

// Map is the immutable name to 1-based column mapping of one sheet
type Map struct {
	positions map[string]int
	missing   []string
}

// Resolve builds the mapping from a header index. Matching ignores case.
func Resolve(headerIndex map[string]int) Map {
	upper := make(map[string]int, len(headerIndex))
	for title, col := range headerIndex {
		key := strings.ToUpper(strings.TrimSpace(title))
		if existing, ok := upper[key]; !ok || col < existing {
			upper[key] = col
		}
	}

	m := Map{positions: make(map[string]int)}
	for _, name := range Required {
		if col, ok := upper[name]; ok {
			m.positions[name] = col
		} else {
			m.missing = append(m.missing, name)
		}
	}
	for _, name := range Optional {
		for _, candidate := range append([]string{name}, aliases[name]...) {
			if col, ok := upper[candidate]; ok {
				m.positions[name] = col
				break
			}
		}
	}
	return m
}

// Resolve returns the 1-based column of a logical name
func (m Map) Resolve(name string) (int, bool) {
	col, ok := m.positions[name]
	return col, ok
}

// Col returns the column of name, or 0 when absent
func (m Map) Col(name string) int {
	return m.positions[name]
}

// Has reports whether every named column is present
func (m Map) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := m.positions[name]; !ok {
			return false
		}
	}
	return true
}

// Absent returns the subset of names that are not present
func (m Map) Absent(names ...string) []string {
	var out []string
	for _, name := range names {
		if _, ok := m.positions[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Missing lists the required columns that were not found
func (m Map) Missing() []string {
	return append([]string(nil), m.missing...)
}
