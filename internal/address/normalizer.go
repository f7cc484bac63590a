// Package address validates and normalizes postal addresses offline against
// Google's address metadata: required fields, subdivision keys and the postal
// code patterns each subdivision owns.
package address

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	i18naddress "github.com/Boostport/address"
)

// DefaultCountry is assumed when an address carries no country code
const DefaultCountry = "US"

// Address is a postal address as found in a submission row
type Address struct {
	Street  string `json:"street_address"`
	City    string `json:"city"`
	State   string `json:"country_area"`
	Zip     string `json:"postal_code"`
	Country string `json:"country_code"`
}

// Normalizer validates an address and returns its normalized form
type Normalizer interface {
	Normalize(addr Address) (Address, error)
}

// FieldError is one rejected address field
type FieldError struct {
	Field string
	Code  string
}

// ValidationError lists every field that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Code)
	}
	return "invalid address (" + strings.Join(parts, ", ") + ")"
}

func (e *ValidationError) add(field, code string) {
	for _, f := range e.Fields {
		if f.Field == field {
			return
		}
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code})
}

var zipPlus4Pattern = regexp.MustCompile(`^(\d{5})[-\s]\d{4}$`)

// MetadataNormalizer validates addresses with github.com/Boostport/address
type MetadataNormalizer struct {
	defaultCountry string
}

// NewNormalizer returns a normalizer that assumes defaultCountry when an
// address has none. An empty defaultCountry means US.
func NewNormalizer(defaultCountry string) *MetadataNormalizer {
	if defaultCountry == "" {
		defaultCountry = DefaultCountry
	}
	return &MetadataNormalizer{defaultCountry: strings.ToUpper(defaultCountry)}
}

// Normalize checks required fields, the subdivision and the postal code, and
// returns the address with an upper-case subdivision key, upper-case city and,
// for US addresses, the 5-digit ZIP core.
func (n *MetadataNormalizer) Normalize(addr Address) (Address, error) {
	verr := &ValidationError{}

	country := strings.ToUpper(strings.TrimSpace(addr.Country))
	if country == "" {
		country = n.defaultCountry
	}

	out := Address{
		Street:  collapse(addr.Street),
		City:    strings.ToUpper(collapse(addr.City)),
		State:   strings.ToUpper(collapse(addr.State)),
		Zip:     strings.ToUpper(collapse(addr.Zip)),
		Country: country,
	}
	if country == "US" {
		if code, ok := LookupState(addr.State); ok {
			out.State = code
		}
	}

	if out.Street == "" {
		verr.add("street_address", "required")
	}
	if out.City == "" {
		verr.add("city", "required")
	}
	if out.State == "" {
		verr.add("country_area", "required")
	}
	if out.Zip == "" {
		verr.add("postal_code", "required")
	}

	_, err := i18naddress.NewValid(
		i18naddress.WithCountry(country),
		i18naddress.WithStreetAddress([]string{out.Street}),
		i18naddress.WithLocality(out.City),
		i18naddress.WithAdministrativeArea(out.State),
		i18naddress.WithPostCode(out.Zip),
	)
	for _, e := range flatten(err) {
		switch {
		case errors.Is(e, i18naddress.ErrInvalidCountryCode):
			verr.add("country_code", "invalid")
		case errors.Is(e, i18naddress.ErrInvalidAdministrativeArea):
			verr.add("country_area", "invalid")
		case errors.Is(e, i18naddress.ErrInvalidLocality):
			verr.add("city", "invalid")
		case errors.Is(e, i18naddress.ErrInvalidPostCode):
			verr.add("postal_code", "invalid")
		default:
			// missing-field errors are already recorded above
			if len(verr.Fields) == 0 {
				verr.add("address", e.Error())
			}
		}
	}

	if m := zipPlus4Pattern.FindStringSubmatch(out.Zip); m != nil && country == "US" {
		out.Zip = m[1]
	}

	if len(verr.Fields) > 0 {
		return out, verr
	}
	return out, nil
}

// flatten unpacks the multi-error the validator returns
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	var multi interface{ WrappedErrors() []error }
	if errors.As(err, &multi) {
		return multi.WrappedErrors()
	}
	return []error{err}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
