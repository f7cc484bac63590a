package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex       = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	sidRegex         = regexp.MustCompile(`^[A-Z]{3}\d+$`)
	serviceDateRegex = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	controlChars     = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	unsafeNameChars  = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateSID validates a survey identifier: three upper-case letters then digits
func ValidateSID(sid string) error {
	if !sidRegex.MatchString(sid) {
		return fmt.Errorf("invalid SID format: %s", sid)
	}
	return nil
}

// ValidateServiceDateFormat checks the MM/DD/YYYY shape without parsing the date
func ValidateServiceDateFormat(value string) error {
	if !serviceDateRegex.MatchString(value) {
		return fmt.Errorf("service date must be MM/DD/YYYY: %s", value)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeFileName strips control and path characters so the result is a
// single safe path element
func SanitizeFileName(name string) string {
	name = SanitizeString(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return "unnamed"
	}
	return name
}
