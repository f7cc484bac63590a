package workbook

import "errors"

var (
	// ErrUnreadableWorkbook is returned when the file cannot be opened as xlsx
	ErrUnreadableWorkbook = errors.New("workbook could not be read")

	// ErrSheetNotFound is returned when a named sheet is absent
	ErrSheetNotFound = errors.New("sheet not found")
)
