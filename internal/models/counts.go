package models

// AggregateCounts holds the header-derived and row-derived totals.
// A nil field means the value could not be determined.
type AggregateCounts struct {
	PatientsSubmitted *int `json:"patients_submitted"`
	EligiblePatients  *int `json:"eligible_patients"`
	SampleSize        *int `json:"sample_size"`
	Emails            *int `json:"emails"`
	Mailings          *int `json:"mailings"`
	NonReported       *int `json:"non_reported"`
	CMS1Count         *int `json:"cms1_count"`
	InelCount         *int `json:"inel_count"`
	FrameInelCount    *int `json:"frame_inel_count"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// IntValue returns the pointed-to value and whether it was known
func IntValue(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// CombinedIneligible is InelCount + FrameInelCount with unknown terms as zero
func (c AggregateCounts) CombinedIneligible() int {
	inel, _ := IntValue(c.InelCount)
	frame, _ := IntValue(c.FrameInelCount)
	return inel + frame
}
