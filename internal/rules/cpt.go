package rules

import (
	"strconv"
	"strings"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reference"
)

// Surgical categories
const (
	CategoryGastro        = 1
	CategoryOrthopedic    = 2
	CategoryOphthalmology = 3
	CategoryOtherSurgery  = 4
	CategoryOther         = 5
)

type categoryRange struct {
	low, high int
	category  int
}

// Order matters: the first matching range wins.
var categoryRanges = []categoryRange{
	{40490, 49999, CategoryGastro},
	{20000, 29999, CategoryOrthopedic},
	{65091, 68999, CategoryOphthalmology},
	{10004, 19999, CategoryOtherSurgery},
	{30000, 39999, CategoryOtherSurgery},
	{50000, 64999, CategoryOtherSurgery},
	{68900, 69990, CategoryOtherSurgery},
	{92920, 93986, CategoryOtherSurgery},
}

var categoryCodes = map[string]int{
	"g0105": CategoryGastro,
	"g0121": CategoryGastro,
	"g0104": CategoryGastro,
	"g0260": CategoryOrthopedic,
}

// ClassifyCPT maps a CPT code to its surgical category (1-5)
func ClassifyCPT(code string) int {
	code = strings.ToLower(strings.TrimSpace(code))
	if category, ok := categoryCodes[code]; ok {
		return category
	}
	n, ok := numericCode(code)
	if !ok {
		return CategoryOther
	}
	for _, r := range categoryRanges {
		if n >= r.low && n <= r.high {
			return r.category
		}
	}
	return CategoryOther
}

// CPTReason explains an eligibility decision
type CPTReason string

const (
	ReasonBlank             CPTReason = "blank CPT is OK"
	ReasonExplicitValid     CPTReason = "explicitly valid"
	ReasonExplicitInvalid   CPTReason = "explicitly invalid list"
	ReasonInvalidRange      CPTReason = "numeric in invalid range"
	ReasonValidRange        CPTReason = "numeric in valid range"
	ReasonOutsideRanges     CPTReason = "outside valid ranges"
	ReasonNotValidNotRanged CPTReason = "not explicitly valid, and not in ranges"
)

// CPTRules decides CPT eligibility from configured lists and ranges
type CPTRules struct {
	valid         map[string]struct{}
	invalid       map[string]struct{}
	validRanges   []reference.Range
	invalidRanges []reference.Range
}

// NewCPTRules builds the rule set from a configuration
func NewCPTRules(cfg reference.CPTConfig) *CPTRules {
	rules := &CPTRules{
		valid:         make(map[string]struct{}, len(cfg.ValidCodes)),
		invalid:       make(map[string]struct{}, len(cfg.InvalidCodes)),
		validRanges:   cfg.ValidRanges,
		invalidRanges: cfg.InvalidRanges,
	}
	for _, code := range cfg.ValidCodes {
		rules.valid[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	for _, code := range cfg.InvalidCodes {
		rules.invalid[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	return rules
}

// IsIneligible reports whether a code makes a reported row ineligible.
// Explicit lists take precedence over ranges, and invalid ranges over valid ones.
func (c *CPTRules) IsIneligible(code string) (bool, CPTReason) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, ReasonBlank
	}
	if _, ok := c.valid[code]; ok {
		return false, ReasonExplicitValid
	}
	if _, ok := c.invalid[code]; ok {
		return true, ReasonExplicitInvalid
	}

	n, ok := numericCode(code)
	if !ok {
		return true, ReasonNotValidNotRanged
	}
	for _, r := range c.invalidRanges {
		if r.Contains(n) {
			return true, ReasonInvalidRange
		}
	}
	for _, r := range c.validRanges {
		if r.Contains(n) {
			return false, ReasonValidRange
		}
	}
	return true, ReasonOutsideRanges
}

// numericCode parses an all-digit code. A code too long for an int is still
// numeric and comes back as -1, which lies outside every range.
func numericCode(code string) (int, bool) {
	if code == "" {
		return 0, false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return -1, true
	}
	return n, true
}

// CheckSurgicalCategory compares each row's SURGICAL CATEGORY with the category of its CPT
func CheckSurgicalCategory(rec Records) []models.Issue {
	var issues []models.Issue
	for _, row := range rec.Rows() {
		cpt := rec.Get(row, columns.CPT)
		raw := rec.Get(row, columns.SurgicalCategory)
		expected := ClassifyCPT(cpt)

		if got, ok := ParseIndicator(raw); ok && got == expected {
			continue
		}
		issues = append(issues, rec.Issue(row, models.IssueSurgicalCategoryMismatch,
			"CPT %s has category %s, expected %d", cpt, displayValue(raw), expected))
	}
	return issues
}

// CheckIneligibleCPT flags reported rows whose CPT code is not survey-eligible
func (c *CPTRules) CheckIneligibleCPT(rec Records) ([]models.Issue, []models.IneligibleCPT) {
	var (
		issues []models.Issue
		rows   []models.IneligibleCPT
	)
	for _, row := range rec.Rows() {
		if cms, ok := rec.CMS(row); !ok || cms != 1 {
			continue
		}
		cpt := rec.Get(row, columns.CPT)
		ineligible, reason := c.IsIneligible(cpt)
		if !ineligible {
			continue
		}
		issues = append(issues, rec.Issue(row, models.IssueCPTIneligible,
			"CPT %s ineligible (%s)", displayValue(cpt), reason))
		rows = append(rows, models.IneligibleCPT{
			Row:    row,
			MRN:    rec.Get(row, columns.MRN),
			CMS:    rec.Get(row, columns.CMSIndicator),
			CPT:    cpt,
			Reason: string(reason),
		})
	}
	return issues, rows
}

func displayValue(v string) string {
	if v == "" {
		return "(blank)"
	}
	return v
}
