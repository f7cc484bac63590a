package models

// CheckStatus is the outcome of one named check
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckSkipped CheckStatus = "skipped"
	CheckError   CheckStatus = "error"
)

// CheckOutcome records how a check finished, for the report summary
type CheckOutcome struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Passed reports whether the check ran and found nothing
func (c CheckOutcome) Passed() bool {
	return c.Status == CheckPass
}

// OutcomeFor derives pass/fail from the number of findings a check produced
func OutcomeFor(name string, findings int) CheckOutcome {
	if findings > 0 {
		return CheckOutcome{Name: name, Status: CheckFail}
	}
	return CheckOutcome{Name: name, Status: CheckPass}
}
