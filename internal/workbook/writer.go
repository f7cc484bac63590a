package workbook

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// Write serializes the workbook as xlsx. Values are written as text.
func (w *Workbook) Write(out io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if len(w.sheets) == 0 {
		_, err := f.WriteTo(out)
		return err
	}

	styleIDs := make(map[Style]int)
	for i, sheet := range w.sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.name, err)
		}

		if err := writeSheet(f, sheet, styleIDs); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(out)
	return err
}

// SaveAs writes the workbook to a file
func (w *Workbook) SaveAs(path string) error {
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet *Sheet, styleIDs map[Style]int) error {
	for r, row := range sheet.rows {
		for c, cell := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if cell.Value != "" {
				if err := f.SetCellStr(sheet.name, ref, cell.Value); err != nil {
					return fmt.Errorf("failed to set %s!%s: %w", sheet.name, ref, err)
				}
			}
			if cell.Style == (Style{}) {
				continue
			}
			id, ok := styleIDs[cell.Style]
			if !ok {
				id, err = f.NewStyle(toExcelStyle(cell.Style))
				if err != nil {
					return fmt.Errorf("failed to create style: %w", err)
				}
				styleIDs[cell.Style] = id
			}
			if err := f.SetCellStyle(sheet.name, ref, ref, id); err != nil {
				return fmt.Errorf("failed to style %s!%s: %w", sheet.name, ref, err)
			}
		}
	}

	hf := sheet.headerFooter
	if hf != (HeaderFooter{}) {
		err := f.SetHeaderFooter(sheet.name, &excelize.HeaderFooterOptions{
			OddHeader:   hf.OddHeader,
			OddFooter:   hf.OddFooter,
			EvenHeader:  hf.EvenHeader,
			EvenFooter:  hf.EvenFooter,
			FirstHeader: hf.FirstHeader,
			FirstFooter: hf.FirstFooter,
		})
		if err != nil {
			return fmt.Errorf("failed to set header/footer on %s: %w", sheet.name, err)
		}
	}
	return nil
}

func toExcelStyle(s Style) *excelize.Style {
	style := &excelize.Style{
		Font: &excelize.Font{Bold: s.Bold, Color: s.FontColor},
	}
	if s.FillColor != "" {
		pattern := s.FillPattern
		if pattern == 0 {
			pattern = 1
		}
		style.Fill = excelize.Fill{Type: "pattern", Pattern: pattern, Color: []string{s.FillColor}}
	}
	return style
}
