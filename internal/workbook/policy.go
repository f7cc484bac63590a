package workbook

import "fmt"

// BlankRowPolicy decides what a blank row inside the data region means
type BlankRowPolicy string

const (
	// BlankRowsMixed stops sequence scans at the first blank row and lets
	// every other check skip blanks.
	BlankRowsMixed BlankRowPolicy = "mixed"
	BlankRowsSkip  BlankRowPolicy = "skip"
	BlankRowsStop  BlankRowPolicy = "stop"
)

// ParseBlankRowPolicy validates a configured policy name
func ParseBlankRowPolicy(s string) (BlankRowPolicy, error) {
	switch p := BlankRowPolicy(s); p {
	case BlankRowsMixed, BlankRowsSkip, BlankRowsStop:
		return p, nil
	case "":
		return BlankRowsMixed, nil
	default:
		return "", fmt.Errorf("unknown blank row policy: %q", s)
	}
}

// ForSequence is the policy applied to ordered scans such as SID sequencing
func (p BlankRowPolicy) ForSequence() BlankRowPolicy {
	if p == BlankRowsSkip {
		return BlankRowsSkip
	}
	return BlankRowsStop
}

// ForRows is the policy applied to independent per-row checks
func (p BlankRowPolicy) ForRows() BlankRowPolicy {
	if p == BlankRowsStop {
		return BlankRowsStop
	}
	return BlankRowsSkip
}
