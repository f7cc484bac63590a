package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/oas-auditor/internal/models"
)

func TestCheckGender(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "GENDER"},
		[]string{"1", "M"},
		[]string{"2", "f"},
		[]string{"3", "2"},
		[]string{"4", "X"},
		[]string{"5", ""},
	)

	issues := CheckGender(rec)
	require.Len(t, issues, 2)
	assert.Equal(t, "5", issues[0].Row.String())
	assert.Equal(t, "Gender (blank) is not one of M, F, 0, 1, 2", issues[1].Description)
}

func TestCheckServiceDates(t *testing.T) {
	now := time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC)
	rec := newRecords(
		[]string{"MRN", "SERVICE DATE"},
		[]string{"1", "01/05/2025"},
		[]string{"2", "01/20/2025"},
		[]string{"3", ""},
		[]string{"4", "1/5/2025"},
		[]string{"5", "02/30/2025"},
		[]string{"6", "02/03/2025"},
		[]string{"7", "12/31/2024"},
	)

	issues, span := CheckServiceDates(rec, now)
	assert.Equal(t, []models.IssueType{
		models.IssueMissingServiceDate,
		models.IssueInvalidServiceDate,
		models.IssueInvalidServiceDate,
		models.IssueFutureServiceDate,
		models.IssueServiceDateMonth,
	}, issueTypes(issues))
	assert.Equal(t, "Service date 12/31/2024 is outside January 2025", issues[4].Description)

	require.NotNil(t, span)
	assert.Equal(t, "12/31/2024 - 01/20/2025", FormatDateRange(span))
}

func TestCheckServiceDates_NoValidDates(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "SERVICE DATE"},
		[]string{"1", "tomorrow"},
	)

	issues, span := CheckServiceDates(rec, time.Now())
	assert.Len(t, issues, 1)
	assert.Nil(t, span)
	assert.Equal(t, "", FormatDateRange(span))
}

func TestCheckAge(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "CMS INDICATOR", "AGE"},
		[]string{"1", "1", "45"},
		[]string{"2", "1", "17"},
		[]string{"3", "2", "12"},
		[]string{"4", "1", "unknown"},
		[]string{"5", "1", "18.0"},
	)

	issues := CheckAge(rec, DefaultMinAge)
	assert.Equal(t, []models.IssueType{models.IssueUnderagePatient, models.IssueInvalidAge}, issueTypes(issues))
	assert.Equal(t, "Age 17 is under 18 for a reported patient", issues[0].Description)
}

func TestParseDOB(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
		err  error
	}{
		{"us short", "3/4/1980", "03/04/1980", nil},
		{"iso", "1980-03-04", "03/04/1980", nil},
		{"dashed with quote", "'03-04-1980", "03/04/1980", nil},
		{"today", "06/15/2025", "06/15/2025", nil},
		{"future", "2030-01-01", "", ErrDOBFuture},
		{"too old", "1/1/1900", "", ErrDOBTooOld},
		{"exactly 120 years", "06/15/1905", "", ErrDOBTooOld},
		{"garbage", "abc", "", ErrDOBFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDOB(tt.raw, now)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckDOB(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	rec := newRecords(
		[]string{"MRN", "Date of Birth"},
		[]string{"1", ""},
		[]string{"2", "1/2/1950"},
		[]string{"3", "13/45/1950"},
	)

	issues := CheckDOB(rec, now)
	require.Len(t, issues, 1)
	assert.Equal(t, "Date of birth 13/45/1950: invalid date format", issues[0].Description)
}

func TestCheckEmailAndLanguage(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "EMAIL ADDRESS", "SURVEY LANGUAGE"},
		[]string{"1", "pat@example.com", "en"},
		[]string{"2", "", "es"},
		[]string{"3", "not-an-email", "EN"},
		[]string{"4", "a@b", "m"},
	)

	emailIssues := CheckEmail(rec)
	assert.Len(t, emailIssues, 2)
	assert.Equal(t, "Email not-an-email is not a valid address", emailIssues[0].Description)

	langIssues := CheckSurveyLanguage(rec)
	require.Len(t, langIssues, 1)
	assert.Equal(t, "4", langIssues[0].Row.String())
}

func TestCheckEMConsistency(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "CMS INDICATOR", "E/M"},
		[]string{"1", "1", "E"},
		[]string{"2", "1", ""},
		[]string{"3", "2", ""},
		[]string{"4", "2", "m"},
		[]string{"5", "", "E"},
	)

	issues := CheckEMConsistency(rec)
	require.Len(t, issues, 2)
	assert.Equal(t, "CMS 1 row has E/M (blank), expected E or M", issues[0].Description)
	assert.Equal(t, "CMS 2 row has E/M M, expected blank", issues[1].Description)
}

func TestCheckPlaceholderNames(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "PATIENT NAME"},
		[]string{"1", "Maria Lopez"},
		[]string{"2", "TEST PATIENT"},
		[]string{"3", "Doe, John"},
		[]string{"4", "John Doe"},
	)

	issues := CheckPlaceholderNames(rec)
	require.Len(t, issues, 2)
	assert.Equal(t, "3", issues[0].Row.String())
	assert.Contains(t, issues[1].Description, `"john doe"`)
}

func TestCheckDuplicateMRN(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "CMS INDICATOR"},
		[]string{"555", "1"},
		[]string{"100", "1"},
		[]string{"", "2"},
		[]string{"555", "2"},
	)

	issues := CheckDuplicateMRN(rec)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, models.IssueDuplicateMRN, issue.Type)
		assert.Equal(t, "MRN 555 appears on rows 2, 5", issue.Description)
	}
	assert.Equal(t, "1", issues[0].CMS)
	assert.Equal(t, "2", issues[1].CMS)
	assert.Equal(t, "5", issues[1].Row.String())
}
