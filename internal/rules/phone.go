package rules

import (
	"errors"
	"fmt"

	"github.com/nyaruka/phonenumbers"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
)

// Phone validation errors
var (
	ErrPhoneFormat      = errors.New("phone number could not be parsed")
	ErrPhoneImplausible = errors.New("phone number is not a valid number for the region")
)

// PhoneValidator checks a telephone number against a region
type PhoneValidator interface {
	Validate(number, region string) error
}

// LibPhoneValidator validates with the libphonenumber metadata
type LibPhoneValidator struct{}

// NewPhoneValidator returns the libphonenumber-backed validator
func NewPhoneValidator() *LibPhoneValidator {
	return &LibPhoneValidator{}
}

// Validate returns ErrPhoneFormat or ErrPhoneImplausible on failure
func (LibPhoneValidator) Validate(number, region string) error {
	parsed, err := phonenumbers.Parse(number, region)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPhoneFormat, err)
	}
	if !phonenumbers.IsValidNumberForRegion(parsed, region) {
		return ErrPhoneImplausible
	}
	return nil
}

// CheckTelephone validates non-blank telephone numbers as US numbers
func CheckTelephone(rec Records, validator PhoneValidator) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		phone := rec.Get(row, columns.Telephone)
		if phone == "" {
			continue
		}
		err := validator.Validate(phone, "US")
		switch {
		case err == nil:
		case errors.Is(err, ErrPhoneImplausible):
			issues = append(issues, rec.Issue(row, models.IssueImplausiblePhoneNumber,
				"Telephone %s is not a plausible US number", phone))
		default:
			issues = append(issues, rec.Issue(row, models.IssueInvalidPhoneFormat,
				"Telephone %s could not be parsed", phone))
		}
	}
	return issues
}
