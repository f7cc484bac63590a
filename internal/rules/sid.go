package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reference"
	"github.com/garyjia/oas-auditor/pkg/utils"
)

// SIDCheck is the outcome of the SID sequence scan
type SIDCheck struct {
	Issues []models.Issue
	// Prefix is the expected client prefix, empty when no seed was found
	Prefix string
	// Start is the number expected on the first reported row
	Start int
}

type sidSeed struct {
	prefix string
	start  int
	ok     bool
}

// ParseSID splits a well-formed SID into prefix and number
func ParseSID(sid string) (string, int, bool) {
	if utils.ValidateSID(sid) != nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(sid[3:])
	if err != nil {
		return "", 0, false
	}
	return sid[:3], n, true
}

// CheckSIDSequence validates the SIDs of reported (CMS=1) rows in a single
// forward pass. The header SID seeds the sequence; without one, the first
// well-formed row SID does. Each row gets at most one issue.
func CheckSIDSequence(rec Records, headerSID string) SIDCheck {
	var reported []int
	for _, row := range rec.SequenceRows() {
		if cms, ok := rec.CMS(row); ok && cms == 1 {
			reported = append(reported, row)
		}
	}

	seed := seedFromHeader(headerSID)
	if !seed.ok {
		seed = seedFromRows(rec, reported)
	}

	result := SIDCheck{Prefix: seed.prefix, Start: seed.start}
	seen := make(map[string]bool)

	for i, row := range reported {
		processed := i + 1
		sid := rec.Get(row, columns.SID)

		if sid == "" {
			result.Issues = append(result.Issues, rec.Issue(row, models.IssueSIDMissing, "SID is missing"))
			continue
		}
		prefix, number, ok := ParseSID(sid)
		if !ok {
			result.Issues = append(result.Issues, rec.Issue(row, models.IssueSIDFormat,
				"SID %s does not match three letters followed by digits", sid))
			continue
		}
		if seed.ok && prefix != seed.prefix {
			result.Issues = append(result.Issues, rec.Issue(row, models.IssueSIDPrefix,
				"SID %s has prefix %s, expected %s", sid, prefix, seed.prefix))
			continue
		}
		if seen[sid] {
			result.Issues = append(result.Issues, rec.Issue(row, models.IssueSIDDuplicate,
				"SID %s already used on an earlier row", sid))
			continue
		}
		seen[sid] = true

		if seed.ok {
			expected := seed.start + (processed - 1)
			if number != expected {
				result.Issues = append(result.Issues, rec.Issue(row, models.IssueSIDSequence,
					"SID %s out of sequence, expected %s%05d", sid, seed.prefix, expected))
			}
		}
	}
	return result
}

func seedFromHeader(headerSID string) sidSeed {
	prefix, number, ok := ParseSID(strings.TrimSpace(headerSID))
	if !ok {
		return sidSeed{}
	}
	return sidSeed{prefix: prefix, start: number + 1, ok: true}
}

// seedFromRows anchors the sequence on the first well-formed SID so that
// rows before it keep their expected positions.
func seedFromRows(rec Records, reported []int) sidSeed {
	for i, row := range reported {
		prefix, number, ok := ParseSID(rec.Get(row, columns.SID))
		if ok {
			return sidSeed{prefix: prefix, start: number - i, ok: true}
		}
	}
	return sidSeed{}
}

var registryDateSuffix = regexp.MustCompile(`\s*-?\s*\d{1,2}/\d{1,2}\s*$`)

// RegistryCheck is the outcome of looking the SID prefix up in the registry
type RegistryCheck struct {
	ClientName  string
	Registered  bool
	NameMatches bool
	Issues      []models.Issue
}

// CheckSIDRegistry looks the prefix up and compares the registered client name
// with the submission file name (text before any '#', extension removed).
// Nothing is checked when no registry was loaded.
func CheckSIDRegistry(prefix string, registry reference.Registry, fileName string) RegistryCheck {
	if prefix == "" || registry.Len() == 0 {
		return RegistryCheck{}
	}
	name, ok := registry.Lookup(prefix)
	if !ok {
		return RegistryCheck{Issues: []models.Issue{models.NewWorkbookIssue(models.IssueSIDPrefixUnregistered,
			"SID prefix "+prefix+" is not in the SID registry")}}
	}
	return RegistryCheck{
		ClientName:  name,
		Registered:  true,
		NameMatches: NormalizeClientName(name) == NormalizeClientName(FileClientName(fileName)),
	}
}

// NormalizeClientName drops a trailing "- 12/1" style date and lower-cases
func NormalizeClientName(name string) string {
	return strings.ToLower(strings.TrimSpace(registryDateSuffix.ReplaceAllString(name, "")))
}

// FileClientName is the part of a submission file name that names the client
func FileClientName(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "#"); i >= 0 {
		base = base[:i]
	} else if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return strings.TrimSpace(base)
}
