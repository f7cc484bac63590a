package audit

import (
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/rules"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Options tunes an Auditor
type Options struct {
	// Workers bounds how many checks run at once
	Workers      int
	BlankRows    workbook.BlankRowPolicy
	POPTolerance int
	// POPNetOfHighlightedInel subtracts service-date-highlighted INEL rows
	// from the submitted count before comparing with POP
	POPNetOfHighlightedInel bool
	MinAge                  int
	Frame                   crosstab.FrameParams
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		Workers:      4,
		BlankRows:    workbook.BlankRowsMixed,
		POPTolerance: crosstab.DefaultPOPTolerance,
		MinAge:       rules.DefaultMinAge,
		Frame:        crosstab.DefaultFrameParams(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.BlankRows == "" {
		o.BlankRows = d.BlankRows
	}
	if o.POPTolerance < 0 {
		o.POPTolerance = d.POPTolerance
	}
	if o.MinAge <= 0 {
		o.MinAge = d.MinAge
	}
	if o.Frame.DenseThreshold <= 0 || o.Frame.MinBlockRows <= 0 || o.Frame.MaxBlankWithinBlock < 0 {
		o.Frame = d.Frame
	}
	return o
}
