// Package headerfooter pulls the submission metadata out of the OASCAPHS
// print header and footer. Extraction is best effort: anything that does not
// match is left unknown.
package headerfooter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

var (
	fontCodePattern  = regexp.MustCompile(`&"[^"]*"`)
	colorCodePattern = regexp.MustCompile(`&K[0-9A-Fa-f]{6}`)
	sizeCodePattern  = regexp.MustCompile(`&\d+`)
	sectionPattern   = regexp.MustCompile(`&[LCR]`)
	printCodePattern = regexp.MustCompile(`&[A-Z]`)
	whitespace       = regexp.MustCompile(`\s+`)

	submittedPattern = regexp.MustCompile(`SUBMITTED\s*=\s*(\d+)`)
	eligiblePattern  = regexp.MustCompile(`EL\s*=\s*(\d+)`)
	samplePattern    = regexp.MustCompile(`SS\s*=\s*(\d+)`)
	sidPattern       = regexp.MustCompile(`(?:^|[^A-Z])([A-Z]{3}\d+)`)
	upperRunPattern  = regexp.MustCompile(`[A-Z]+`)
)

// Clean strips print control codes and line-break markers from header text
func Clean(text string) string {
	text = strings.ReplaceAll(text, "&&", "\x00")
	text = fontCodePattern.ReplaceAllString(text, "")
	text = colorCodePattern.ReplaceAllString(text, "")
	text = sizeCodePattern.ReplaceAllString(text, "")
	text = sectionPattern.ReplaceAllString(text, " ")
	text = printCodePattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\x00", "&")
	text = strings.ReplaceAll(text, "_x000a_", " ")
	text = strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// PickHeader returns the first non-empty header among odd, even, first
func PickHeader(hf workbook.HeaderFooter) string {
	return firstNonEmpty(hf.OddHeader, hf.EvenHeader, hf.FirstHeader)
}

// PickFooter returns the first non-empty footer among odd, even, first
func PickFooter(hf workbook.HeaderFooter) string {
	return firstNonEmpty(hf.OddFooter, hf.EvenFooter, hf.FirstFooter)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Extract reads the metadata of a sheet's header/footer and assigns a fresh audit ID
func Extract(hf workbook.HeaderFooter) models.Metadata {
	meta := Parse(PickHeader(hf), PickFooter(hf))
	meta.AuditID = NewAuditID(meta.SiteCode)
	return meta
}

// Parse extracts the counts, site code and header SID from raw header and footer text
func Parse(rawHeader, rawFooter string) models.Metadata {
	header := Clean(rawHeader)
	footer := Clean(rawFooter)

	return models.Metadata{
		Header:            header,
		Footer:            footer,
		PatientsSubmitted: matchInt(submittedPattern, header),
		EligiblePatients:  matchInt(eligiblePattern, footer),
		SampleSize:        matchInt(samplePattern, footer),
		SiteCode:          SiteCode(header),
		HeaderSID:         headerSID(header),
	}
}

// headerSID finds the first three-letter SID token not embedded in a longer word
func headerSID(header string) string {
	m := sidPattern.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

func matchInt(pattern *regexp.Regexp, text string) *int {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// SiteCode returns the last run of exactly two upper-case letters
func SiteCode(header string) string {
	runs := upperRunPattern.FindAllString(header, -1)
	for i := len(runs) - 1; i >= 0; i-- {
		if len(runs[i]) == 2 {
			return runs[i]
		}
	}
	return ""
}
