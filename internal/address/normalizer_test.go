package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer("")

	t.Run("valid address is normalized", func(t *testing.T) {
		got, err := n.Normalize(Address{
			Street: " 12  Main St ",
			City:   "Austin",
			State:  "texas",
			Zip:    "78701-1234",
		})

		require.NoError(t, err)
		assert.Equal(t, "12 Main St", got.Street)
		assert.Equal(t, "AUSTIN", got.City)
		assert.Equal(t, "TX", got.State)
		assert.Equal(t, "78701", got.Zip)
		assert.Equal(t, "US", got.Country)
	})

	tests := []struct {
		name  string
		addr  Address
		field string
		code  string
	}{
		{"unknown state", Address{Street: "1 A St", City: "X", State: "ZZ", Zip: "78701"}, "country_area", "invalid"},
		{"zip in wrong state", Address{Street: "1 A St", City: "Austin", State: "TX", Zip: "10001"}, "postal_code", "invalid"},
		{"malformed zip", Address{Street: "1 A St", City: "Austin", State: "TX", Zip: "7870"}, "postal_code", "invalid"},
		{"missing street", Address{City: "Austin", State: "TX", Zip: "78701"}, "street_address", "required"},
		{"missing state", Address{Street: "1 A St", City: "Austin", Zip: "78701"}, "country_area", "required"},
		{"unknown country", Address{Street: "1 A St", City: "Paris", State: "IDF", Zip: "75001", Country: "ZZ"}, "country_code", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.addr)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, FieldError{Field: tt.field, Code: tt.code})
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLookupState(t *testing.T) {
	code, ok := LookupState("N.Y.")
	assert.True(t, ok)
	assert.Equal(t, "NY", code)

	code, ok = LookupState("  district   of columbia ")
	assert.True(t, ok)
	assert.Equal(t, "DC", code)

	_, ok = LookupState("Atlantis")
	assert.False(t, ok)
}

func TestValidationError_DeduplicatesFields(t *testing.T) {
	verr := &ValidationError{}
	verr.add("postal_code", "required")
	verr.add("postal_code", "invalid")

	assert.Equal(t, []FieldError{{Field: "postal_code", Code: "required"}}, verr.Fields)
	assert.Equal(t, "invalid address (postal_code: required)", verr.Error())
}
