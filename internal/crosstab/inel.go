package crosstab

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

const repeatMarker = "REPEAT"

// IsRed reports whether a font color belongs to the red family
func IsRed(color string) bool {
	r, g, b, ok := workbook.RGB(color)
	return ok && r >= 0xC0 && g <= 0x40 && b <= 0x40
}

// IsYellow reports whether a fill color belongs to the yellow family,
// including the light and amber highlighter shades
func IsYellow(color string) bool {
	r, g, b, ok := workbook.RGB(color)
	return ok && r >= 0xE0 && g >= 0xC0 && b <= 0xA0
}

func yellowFilled(cell workbook.Cell) bool {
	return cell.Style.HasFill() && IsYellow(cell.Style.FillColor)
}

// CheckInelFormatting requires every INEL row to show why it is ineligible:
// either a REPEAT marker in its last populated cell, formatted in red with a
// bold yellow REPEAT cell, or a yellow highlight on some other cell.
func CheckInelFormatting(inel *workbook.Sheet) []models.Issue {
	mrnCol, hasMRN := findColumn(inel, "MRN")

	var issues []models.Issue
	for _, row := range inel.DataRows(workbook.BlankRowsSkip) {
		cells := inel.Row(row)
		issue := func(t models.IssueType, format string, args ...any) models.Issue {
			i := models.Issue{
				Row:         models.AtRow(SheetInel, row),
				Type:        t,
				Description: fmt.Sprintf(format, args...),
			}
			if hasMRN {
				i.MRN = inel.Value(row, mrnCol)
			}
			return i
		}

		last := lastPopulated(cells)
		if strings.EqualFold(strings.TrimSpace(cells[last].Value), repeatMarker) {
			var notRed, conflicting []string
			for i, cell := range cells {
				if cell.IsEmpty() {
					continue
				}
				if !IsRed(cell.Style.FontColor) {
					notRed = append(notRed, columnName(i+1))
				}
				if i != last && yellowFilled(cell) {
					conflicting = append(conflicting, columnName(i+1))
				}
			}
			if len(notRed) > 0 {
				issues = append(issues, issue(models.IssueInelRepeatFormatting,
					"REPEAT row has cells without red font in columns %s", strings.Join(notRed, ", ")))
			}
			marker := cells[last]
			if !marker.Style.Bold || !yellowFilled(marker) {
				issues = append(issues, issue(models.IssueInelRepeatFormatting,
					"REPEAT cell %s%d must be bold with a yellow fill", columnName(last+1), row))
			}
			if len(conflicting) > 0 {
				issues = append(issues, issue(models.IssueInelConflicting,
					"REPEAT row also highlights columns %s", strings.Join(conflicting, ", ")))
			}
			continue
		}

		highlighted := false
		for _, cell := range cells {
			if yellowFilled(cell) {
				highlighted = true
				break
			}
		}
		if !highlighted {
			issues = append(issues, issue(models.IssueInelMissingIndicator,
				"Row has no REPEAT marker and no highlighted cell explaining the exclusion"))
		}
	}
	return issues
}

// lastPopulated is the 0-based index of the rightmost non-blank cell.
// Callers only pass non-blank rows.
func lastPopulated(cells []workbook.Cell) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if !cells[i].IsEmpty() {
			return i
		}
	}
	return 0
}

func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return fmt.Sprintf("#%d", col)
	}
	return name
}
