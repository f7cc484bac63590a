package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/oas-auditor/internal/address"
	"github.com/garyjia/oas-auditor/internal/models"
)

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"78701", "78701", true},
		{"78701-1234", "78701", true},
		{"12345 6789", "12345", true},
		{"7870", "07870", true},
		{" n/a ", "n/a", true},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizePostalCode(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckAddresses(t *testing.T) {
	header := []string{"MRN", "CMS INDICATOR", "E/M", "PATIENT NAME", "ADDRESS1", "CITY", "STATE", "ZIP"}
	rec := newRecords(header,
		[]string{"1", "1", "E", "A", "123 Main St", "Austin", "TX", "78701"},
		[]string{"2", "1", "M", "B", "9 Oak Ave", "", "TX", ""},
		[]string{"3", "2", "", "C", "5 Pine Rd", "Austin", "ZZ", "78701"},
		[]string{"4", "1", "E", "D", "77 Lake Dr Austin, TX", "Austin", "TX", "78701-0001"},
		[]string{"5", "1", "E", "E", "500 Elm 78701", "Austin", "TX", "78701"},
	)

	issues, findings := CheckAddresses(rec, address.NewNormalizer(address.DefaultCountry))

	assert.Equal(t, []models.IssueType{
		models.IssueInvalidAddress,
		models.IssueInvalidAddress,
		models.IssueProblematicAddress,
		models.IssueProblematicAddress,
	}, issueTypes(issues))
	assert.Equal(t, "Missing: city, zip", issues[0].Description)

	require.Len(t, findings, 4)
	assert.Equal(t, models.AddressInvalid, findings[0].Kind)
	assert.Equal(t, 3, findings[0].Row)
	assert.Equal(t, "M", findings[0].EM)

	assert.Equal(t, models.AddressInvalid, findings[1].Kind)
	assert.Equal(t, 4, findings[1].Row)

	assert.Equal(t, models.AddressProblematic, findings[2].Kind)
	assert.Equal(t, []string{"Austin", "TX"}, findings[2].Reasons)
	assert.Equal(t, "78701", findings[2].Zip)

	assert.Equal(t, []string{"78701"}, findings[3].Reasons)
}

type rejectAll struct{}

func (rejectAll) Normalize(addr address.Address) (address.Address, error) {
	return addr, &address.ValidationError{Fields: []address.FieldError{{Field: "postal_code", Code: "invalid"}}}
}

func TestCheckAddresses_MissingPartsSkipNormalizer(t *testing.T) {
	rec := newRecords(
		[]string{"MRN", "ADDRESS1", "CITY", "STATE", "ZIP"},
		[]string{"1", "", "", "", ""},
	)

	issues, findings := CheckAddresses(rec, rejectAll{})
	require.Len(t, issues, 1)
	assert.Equal(t, "Missing: street, city, state, zip", issues[0].Description)
	require.Len(t, findings, 1)
	assert.Equal(t, []string{"Missing: street, city, state, zip"}, findings[0].Reasons)
}
