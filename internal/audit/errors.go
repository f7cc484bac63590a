package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrPrimarySheetMissing means the workbook has no OASCAPHS tab
	ErrPrimarySheetMissing = errors.New("OASCAPHS tab not found")
	// ErrCountFailed means the submission totals could not be computed
	ErrCountFailed = errors.New("failed to compute submission counts")
)

// Stages at which an audit can fail outright
const (
	StageOpen    = "open workbook"
	StagePrimary = "locate primary sheet"
	StageCounts  = "compute counts"
)

// FatalError stops an audit before any check runs. The caller writes a
// failure report instead of an audit report.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err ended an audit before validation
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
