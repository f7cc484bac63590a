package workbook

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const displayDateLayout = "01/02/2006"

// Workbook is an in-memory copy of a submission spreadsheet
type Workbook struct {
	path     string
	modified time.Time
	sheets   []*Sheet
}

// New builds a workbook from already loaded sheets
func New(sheets ...*Sheet) *Workbook {
	return &Workbook{sheets: sheets}
}

// Open loads an xlsx file from disk
func Open(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}

	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	wb, err := load(f)
	if err != nil {
		return nil, err
	}
	wb.path = path
	wb.modified = info.ModTime()
	return wb, nil
}

// OpenReader loads an xlsx stream, e.g. an uploaded file
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	return load(f)
}

// WithSource records where a streamed or in-memory workbook came from
func (w *Workbook) WithSource(path string, modified time.Time) *Workbook {
	w.path = path
	w.modified = modified
	return w
}

// Path is the file the workbook was read from, if any
func (w *Workbook) Path() string {
	return w.path
}

// Modified is the file modification time, zero for in-memory workbooks
func (w *Workbook) Modified() time.Time {
	return w.modified
}

// SheetNames lists sheet names in workbook order
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.sheets))
	for _, s := range w.sheets {
		names = append(names, s.name)
	}
	return names
}

// Sheet finds a sheet by name, ignoring case and surrounding whitespace
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for _, s := range w.sheets {
		if strings.ToUpper(strings.TrimSpace(s.name)) == want {
			return s, true
		}
	}
	return nil, false
}

// HasSheets reports whether every named sheet is present
func (w *Workbook) HasSheets(names ...string) bool {
	for _, name := range names {
		if _, ok := w.Sheet(name); !ok {
			return false
		}
	}
	return true
}

type loader struct {
	f        *excelize.File
	date1904 bool
	styles   map[int]cellFormat
}

type cellFormat struct {
	style  Style
	isDate bool
}

func load(f *excelize.File) (*Workbook, error) {
	l := &loader{f: f, styles: make(map[int]cellFormat)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		l.date1904 = *props.Date1904
	}

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		sheet, err := l.sheet(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", ErrUnreadableWorkbook, name, err)
		}
		wb.sheets = append(wb.sheets, sheet)
	}
	return wb, nil
}

func (l *loader) sheet(name string) (*Sheet, error) {
	raw, err := l.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]Cell, len(raw))
	for r, values := range raw {
		cells := make([]Cell, len(values))
		for c, value := range values {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			format := l.format(name, ref)
			cells[c] = Cell{Value: l.display(value, format), Style: format.style}
		}
		rows[r] = cells
	}

	sheet := NewSheet(name, rows)
	if opts, err := l.f.GetHeaderFooter(name); err == nil && opts != nil {
		sheet.headerFooter = HeaderFooter{
			OddHeader:   opts.OddHeader,
			OddFooter:   opts.OddFooter,
			EvenHeader:  opts.EvenHeader,
			EvenFooter:  opts.EvenFooter,
			FirstHeader: opts.FirstHeader,
			FirstFooter: opts.FirstFooter,
		}
	}
	return sheet, nil
}

func (l *loader) format(sheet, ref string) cellFormat {
	idx, err := l.f.GetCellStyle(sheet, ref)
	if err != nil {
		return cellFormat{}
	}
	if cached, ok := l.styles[idx]; ok {
		return cached
	}

	var format cellFormat
	st, err := l.f.GetStyle(idx)
	if err == nil && st != nil {
		if st.Font != nil {
			format.style.Bold = st.Font.Bold
			color := st.Font.Color
			if color == "" && (st.Font.ColorTheme != nil || st.Font.ColorIndexed > 0) {
				color = l.f.GetBaseColor("", st.Font.ColorIndexed, st.Font.ColorTheme)
			}
			format.style.FontColor = NormalizeColor(color)
		}
		if st.Fill.Type == "pattern" && st.Fill.Pattern > 0 && len(st.Fill.Color) > 0 {
			format.style.FillPattern = st.Fill.Pattern
			format.style.FillColor = NormalizeColor(st.Fill.Color[0])
		}
		format.isDate = isDateFormat(st.NumFmt, st.CustomNumFmt)
	}
	l.styles[idx] = format
	return format
}

func (l *loader) display(value string, format cellFormat) string {
	if value == "" {
		return value
	}
	if format.isDate {
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			if t, err := excelize.ExcelDateToTime(serial, l.date1904); err == nil {
				return t.Format(displayDateLayout)
			}
		}
	}
	return trimIntegralFloat(value)
}

var integralFloat = regexp.MustCompile(`^-?\d+\.0+$`)

// trimIntegralFloat turns "1.0" into "1" so numeric codes compare as text
func trimIntegralFloat(v string) string {
	if integralFloat.MatchString(v) {
		return v[:strings.Index(v, ".")]
	}
	return v
}

// Built-in number formats that render a calendar date
var builtInDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 30: true, 36: true, 50: true, 57: true,
}

var quotedLiteral = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]`)

func isDateFormat(numFmt int, custom *string) bool {
	if builtInDateFormats[numFmt] {
		return true
	}
	if custom == nil {
		return false
	}
	code := strings.ToLower(quotedLiteral.ReplaceAllString(*custom, ""))
	return strings.Contains(code, "y") || strings.Contains(code, "d")
}

// NormalizeColor reduces ARGB or RGB hex to upper-case RRGGBB.
// Anything that is not 6 or 8 hex digits normalizes to "".
func NormalizeColor(color string) string {
	color = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(color), "#"))
	switch len(color) {
	case 8:
		color = color[2:]
	case 6:
	default:
		return ""
	}
	if _, err := strconv.ParseUint(color, 16, 32); err != nil {
		return ""
	}
	return color
}

// RGB splits a normalized color into its components
func RGB(color string) (r, g, b uint8, ok bool) {
	color = NormalizeColor(color)
	if color == "" {
		return 0, 0, 0, false
	}
	v, _ := strconv.ParseUint(color, 16, 32)
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
