package rules

import (
	"regexp"
	"strings"

	"github.com/garyjia/oas-auditor/internal/address"
	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
)

var postalCorePattern = regexp.MustCompile(`\b(\d{4,5})(?:[-\s]\d{4})?\b`)

// NormalizePostalCode extracts the 5-digit ZIP core, zero-padding 4-digit
// codes. Input without a digit run is returned trimmed; empty input is absent.
func NormalizePostalCode(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	m := postalCorePattern.FindStringSubmatch(s)
	if m == nil {
		return s, true
	}
	digits := m[1]
	if len(digits) == 4 {
		digits = "0" + digits
	}
	return digits, true
}

// CheckAddresses validates each row's address through the normalizer and
// separately notes street lines that repeat the city, state or ZIP.
func CheckAddresses(rec Records, normalizer address.Normalizer) ([]models.Issue, []models.AddressFinding) {
	var (
		issues   []models.Issue
		findings []models.AddressFinding
	)

	for _, row := range rec.Rows() {
		street := rec.Get(row, columns.Address1)
		city := rec.Get(row, columns.City)
		state := rec.Get(row, columns.State)
		zip, hasZip := NormalizePostalCode(rec.Get(row, columns.Zip))

		finding := models.AddressFinding{
			Row:    row,
			MRN:    rec.Get(row, columns.MRN),
			CMS:    rec.Get(row, columns.CMSIndicator),
			EM:     rec.Get(row, columns.EM),
			Name:   rec.Get(row, columns.PatientName),
			Street: street,
			City:   city,
			State:  state,
			Zip:    zip,
		}

		var missing []string
		if street == "" {
			missing = append(missing, "street")
		}
		if city == "" {
			missing = append(missing, "city")
		}
		if state == "" {
			missing = append(missing, "state")
		}
		if !hasZip {
			missing = append(missing, "zip")
		}
		if len(missing) > 0 {
			reason := "Missing: " + strings.Join(missing, ", ")
			finding.Kind = models.AddressInvalid
			finding.Reasons = []string{reason}
			findings = append(findings, finding)
			issues = append(issues, rec.Issue(row, models.IssueInvalidAddress, "%s", reason))
			continue
		}

		_, err := normalizer.Normalize(address.Address{
			Street:  street,
			City:    city,
			State:   state,
			Zip:     zip,
			Country: "US",
		})
		if err != nil {
			invalid := finding
			invalid.Kind = models.AddressInvalid
			invalid.Reasons = []string{err.Error()}
			findings = append(findings, invalid)
			issues = append(issues, rec.Issue(row, models.IssueInvalidAddress,
				"%s, %s, %s %s: %v", street, city, state, zip, err))
		}

		if reasons := embeddedParts(street, city, state, zip); len(reasons) > 0 {
			noted := finding
			noted.Kind = models.AddressProblematic
			noted.Reasons = reasons
			findings = append(findings, noted)
			issues = append(issues, rec.Issue(row, models.IssueProblematicAddress,
				"Street line %q contains %s", street, strings.Join(reasons, ", ")))
		}
	}
	return issues, findings
}

// embeddedParts reports city/state when the street line holds "city, state"
// or "city state" at a token boundary, and the ZIP when it stands alone.
func embeddedParts(street, city, state, zip string) []string {
	var reasons []string

	cityState := regexp.MustCompile(`(?i)(?:^|[\s,])` + regexp.QuoteMeta(city) +
		`(?:,\s*|\s+)` + regexp.QuoteMeta(state) + `\b`)
	if cityState.MatchString(street) {
		reasons = append(reasons, city, state)
	}

	zipToken := regexp.MustCompile(`(?:^|[\s,])` + regexp.QuoteMeta(zip) + `(?:$|[\s,])`)
	if zipToken.MatchString(street) {
		reasons = append(reasons, zip)
	}
	return reasons
}
