package headerfooter

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const uuidHexLen = 32

// NewAuditID returns a random 32-hex identifier suffixed with the site code
// spelled as letter positions (A=1 .. Z=26).
func NewAuditID(siteCode string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id + SiteDigits(siteCode)
}

// SiteDigits spells each upper-case letter as its alphabet position
func SiteDigits(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= 'A' && r <= 'Z' {
			b.WriteString(strconv.Itoa(int(r-'A') + 1))
		}
	}
	return b.String()
}

// DecodeSiteCode recovers a two-letter site code from an audit ID suffix.
// It returns false when the suffix is absent or decodes more than one way.
func DecodeSiteCode(auditID string) (string, bool) {
	if len(auditID) <= uuidHexLen {
		return "", false
	}
	digits := auditID[uuidHexLen:]

	var found []string
	for split := 1; split < len(digits); split++ {
		first, ok1 := letterAt(digits[:split])
		second, ok2 := letterAt(digits[split:])
		if ok1 && ok2 {
			found = append(found, string([]byte{first, second}))
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}

func letterAt(s string) (byte, bool) {
	if s == "" || s[0] == '0' || len(s) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 26 {
		return 0, false
	}
	return byte('A' + n - 1), true
}
