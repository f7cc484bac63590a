package rules

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/pkg/utils"
)

// ServiceDateLayout is the only accepted service date format
const ServiceDateLayout = "01/02/2006"

// DefaultMinAge is the youngest age a reported patient may have
const DefaultMinAge = 18

var (
	validGenders   = map[string]bool{"M": true, "F": true, "0": true, "1": true, "2": true}
	validLanguages = map[string]bool{"en": true, "es": true, "ko": true, "zh": true, "m": true}

	placeholderTokens = []string{"test", "john doe", "jane doe", "sample", "dummy", "fake", "asdf", "xxx"}
)

// CheckGender requires M, F, 0, 1 or 2
func CheckGender(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		gender := rec.Get(row, columns.Gender)
		if validGenders[strings.ToUpper(gender)] {
			continue
		}
		issues = append(issues, rec.Issue(row, models.IssueInvalidGender,
			"Gender %s is not one of M, F, 0, 1, 2", displayValue(gender)))
	}
	return issues
}

// CheckServiceDates validates format, future dates and that every valid date
// falls in the month of the first one. It returns the span of valid dates.
func CheckServiceDates(rec Records, now time.Time) ([]models.Issue, *models.DateRange) {
	var (
		issues   []models.Issue
		first    *time.Time
		dateSpan *models.DateRange
	)
	today := dateOnly(now)

	for _, row := range rec.Rows() {
		raw := rec.Get(row, columns.ServiceDate)
		if raw == "" {
			issues = append(issues, rec.Issue(row, models.IssueMissingServiceDate, "Service date is blank"))
			continue
		}
		if utils.ValidateServiceDateFormat(raw) != nil {
			issues = append(issues, rec.Issue(row, models.IssueInvalidServiceDate,
				"Service date %s is not MM/DD/YYYY", raw))
			continue
		}
		date, err := time.Parse(ServiceDateLayout, raw)
		if err != nil {
			issues = append(issues, rec.Issue(row, models.IssueInvalidServiceDate,
				"Service date %s is not a real date", raw))
			continue
		}
		if date.After(today) {
			issues = append(issues, rec.Issue(row, models.IssueFutureServiceDate,
				"Service date %s is in the future", raw))
			continue
		}

		if first == nil {
			first = &date
		} else if date.Year() != first.Year() || date.Month() != first.Month() {
			issues = append(issues, rec.Issue(row, models.IssueServiceDateMonth,
				"Service date %s is outside %s", raw, first.Format("January 2006")))
		}

		if dateSpan == nil {
			dateSpan = &models.DateRange{Start: date, End: date}
		} else {
			if date.Before(dateSpan.Start) {
				dateSpan.Start = date
			}
			if date.After(dateSpan.End) {
				dateSpan.End = date
			}
		}
	}
	return issues, dateSpan
}

// CheckAge requires reported patients to be at least minAge years old
func CheckAge(rec Records, minAge int) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		if cms, ok := rec.CMS(row); !ok || cms != 1 {
			continue
		}
		raw := rec.Get(row, columns.Age)
		age, ok := ParseIndicator(raw)
		if !ok {
			issues = append(issues, rec.Issue(row, models.IssueInvalidAge,
				"Age %s is not a whole number", displayValue(raw)))
			continue
		}
		if age < minAge {
			issues = append(issues, rec.Issue(row, models.IssueUnderagePatient,
				"Age %d is under %d for a reported patient", age, minAge))
		}
	}
	return issues
}

// Date of birth errors
var (
	ErrDOBFormat = errors.New("invalid date format")
	ErrDOBFuture = errors.New("future date")
	ErrDOBTooOld = errors.New("more than 120 years old")
)

var dobLayouts = []string{"1/2/2006", "2006-01-02", "01-02-2006"}

// ParseDOB parses a date of birth and returns it as MM/DD/YYYY. The date
// must fall within (now-120y, now].
func ParseDOB(raw string, now time.Time) (string, error) {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "'")

	var (
		dob    time.Time
		parsed bool
	)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			dob, parsed = t, true
			break
		}
	}
	if !parsed {
		return "", ErrDOBFormat
	}

	today := dateOnly(now)
	if dob.After(today) {
		return "", ErrDOBFuture
	}
	if !dob.After(today.AddDate(-120, 0, 0)) {
		return "", ErrDOBTooOld
	}
	return dob.Format(ServiceDateLayout), nil
}

// CheckDOB validates the optional date of birth column
func CheckDOB(rec Records, now time.Time) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		raw := rec.Get(row, columns.DOB)
		if raw == "" {
			continue
		}
		if _, err := ParseDOB(raw, now); err != nil {
			issues = append(issues, rec.Issue(row, models.IssueInvalidDOB,
				"Date of birth %s: %v", raw, err))
		}
	}
	return issues
}

// CheckEmail validates non-blank email addresses
func CheckEmail(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		email := rec.Get(row, columns.EmailAddress)
		if email == "" {
			continue
		}
		if err := utils.ValidateEmail(email); err != nil {
			issues = append(issues, rec.Issue(row, models.IssueInvalidEmail,
				"Email %s is not a valid address", email))
		}
	}
	return issues
}

// CheckSurveyLanguage requires one of en, es, ko, zh, m
func CheckSurveyLanguage(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		lang := rec.Get(row, columns.SurveyLanguage)
		if validLanguages[lang] {
			continue
		}
		issues = append(issues, rec.Issue(row, models.IssueInvalidSurveyLanguage,
			"Survey language %s is not one of en, es, ko, zh, m", displayValue(lang)))
	}
	return issues
}

// CheckEMConsistency requires E or M on reported rows and neither on non-reported rows
func CheckEMConsistency(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		cms, ok := rec.CMS(row)
		if !ok {
			continue
		}
		em := strings.ToUpper(rec.Get(row, columns.EM))
		contacted := em == "E" || em == "M"

		switch {
		case cms == 1 && !contacted:
			issues = append(issues, rec.Issue(row, models.IssueEMMismatch,
				"CMS 1 row has E/M %s, expected E or M", displayValue(em)))
		case cms == 2 && contacted:
			issues = append(issues, rec.Issue(row, models.IssueEMMismatch,
				"CMS 2 row has E/M %s, expected blank", em))
		}
	}
	return issues
}

// CheckPlaceholderNames flags patient names that look like test data
func CheckPlaceholderNames(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		name := strings.ToLower(rec.Get(row, columns.PatientName))
		if name == "" {
			continue
		}
		for _, token := range placeholderTokens {
			if strings.Contains(name, token) {
				issues = append(issues, rec.Issue(row, models.IssuePlaceholderName,
					"Patient name %q contains placeholder text %q", rec.Get(row, columns.PatientName), token))
				break
			}
		}
	}
	return issues
}

// CheckDuplicateMRN flags every row whose MRN appears more than once,
// listing all the rows that share it.
func CheckDuplicateMRN(rec Records) []models.Issue {
	rowsByMRN := make(map[string][]int)
	var order []int
	for _, row := range rec.Rows() {
		mrn := rec.Get(row, columns.MRN)
		if mrn == "" {
			continue
		}
		rowsByMRN[mrn] = append(rowsByMRN[mrn], row)
		order = append(order, row)
	}

	var issues []models.Issue
	for _, row := range order {
		mrn := rec.Get(row, columns.MRN)
		rows := rowsByMRN[mrn]
		if len(rows) < 2 {
			continue
		}
		issues = append(issues, rec.Issue(row, models.IssueDuplicateMRN,
			"MRN %s appears on rows %s", mrn, joinRows(rows)))
	}
	return issues
}

func joinRows(rows []int) string {
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDateRange renders "MM/DD/YYYY - MM/DD/YYYY"
func FormatDateRange(r *models.DateRange) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s", r.Start.Format(ServiceDateLayout), r.End.Format(ServiceDateLayout))
}
