package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reference"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

var primaryHeader = append(append([]string{}, columns.Required...), columns.CPT, columns.SID)

type patient map[string]string

func (p patient) row(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = p[h]
	}
	return out
}

func basePatients() []patient {
	return []patient{
		{
			columns.PatientName: "Maria Lopez", columns.Address1: "123 Main St", columns.City: "Austin",
			columns.State: "TX", columns.Zip: "78701", columns.Telephone: "512-555-0101",
			columns.ServiceDate: "01/05/2025", columns.Gender: "F", columns.Age: "45",
			columns.ProviderName: "Dr Reyes", columns.MRN: "1001", columns.PType: "1",
			columns.SurgicalCategory: "1", columns.EM: "E", columns.EmailAddress: "maria@example.com",
			columns.CMSIndicator: "1", columns.SurveyLanguage: "en", columns.CPT: "45378", columns.SID: "ABC00011",
		},
		{
			columns.PatientName: "James Carter", columns.Address1: "45 Oak Ave", columns.City: "Austin",
			columns.State: "TX", columns.Zip: "78702", columns.Telephone: "512-555-0102",
			columns.ServiceDate: "01/12/2025", columns.Gender: "M", columns.Age: "62",
			columns.ProviderName: "Dr Reyes", columns.MRN: "1002", columns.PType: "1",
			columns.SurgicalCategory: "2", columns.EM: "E", columns.EmailAddress: "james@example.com",
			columns.CMSIndicator: "1", columns.SurveyLanguage: "en", columns.CPT: "27447", columns.SID: "ABC00012",
		},
		{
			columns.PatientName: "Ana Silva", columns.Address1: "9 Elm Rd", columns.City: "Round Rock",
			columns.State: "TX", columns.Zip: "78664", columns.Telephone: "512-555-0103",
			columns.ServiceDate: "01/20/2025", columns.Gender: "F", columns.Age: "38",
			columns.ProviderName: "Dr Chen", columns.MRN: "1003", columns.PType: "1",
			columns.SurgicalCategory: "3", columns.EM: "M", columns.EmailAddress: "",
			columns.CMSIndicator: "1", columns.SurveyLanguage: "es", columns.CPT: "66984", columns.SID: "ABC00013",
		},
		{
			columns.PatientName: "Omar Haddad", columns.Address1: "77 Lake Dr", columns.City: "Austin",
			columns.State: "TX", columns.Zip: "78703", columns.Telephone: "512-555-0104",
			columns.ServiceDate: "01/22/2025", columns.Gender: "M", columns.Age: "50",
			columns.ProviderName: "Dr Chen", columns.MRN: "1004", columns.PType: "1",
			columns.SurgicalCategory: "5", columns.EM: "", columns.EmailAddress: "",
			columns.CMSIndicator: "2", columns.SurveyLanguage: "en", columns.CPT: "99213", columns.SID: "",
		},
	}
}

// submission describes a test workbook; the zero-modification fixture is clean
type submission struct {
	header   []string
	patients []patient
	omit     map[string]bool
}

func cleanSubmission() *submission {
	return &submission{header: primaryHeader, patients: basePatients(), omit: map[string]bool{}}
}

func (s *submission) build() *workbook.Workbook {
	rows := [][]string{s.header}
	for _, p := range s.patients {
		rows = append(rows, p.row(s.header))
	}
	primary := workbook.NewTextSheet(models.PrimarySheet, rows...).WithHeaderFooter(workbook.HeaderFooter{
		OddHeader: "&CSUBMITTED = 8 &RABC00010 Sunrise TX",
		OddFooter: "&LEL=4&RSS=3",
	})

	sheets := []*workbook.Sheet{primary}
	if !s.omit[crosstab.SheetPOP] {
		sheets = append(sheets, workbook.NewTextSheet(crosstab.SheetPOP,
			[]string{"MRN", "EMAIL"},
			[]string{"1001", "Maria@Example.com"},
			[]string{"1002", "james@example.com"},
			[]string{"1003", ""},
			[]string{"1004", ""},
			[]string{"2001", "lee@example.com"},
			[]string{"3001", ""},
		))
	}
	if !s.omit[crosstab.SheetUpload] {
		sheets = append(sheets, workbook.NewTextSheet(crosstab.SheetUpload, rows...))
	}
	if !s.omit[crosstab.SheetInel] {
		yellow := workbook.Style{FillColor: "FFFF00", FillPattern: 1}
		sheets = append(sheets, workbook.NewSheet(crosstab.SheetInel, [][]workbook.Cell{
			{{Value: "MRN"}, {Value: "NAME"}, {Value: "SERVICE DATE"}, {Value: "REASON"}},
			{{Value: "2001"}, {Value: "Lee Park"}, {Value: "01/03/2025"}, {Value: "Deceased", Style: yellow}},
		}))
	}
	if !s.omit[crosstab.SheetFrame] {
		sheets = append(sheets, workbook.NewTextSheet(crosstab.SheetFrame,
			[]string{"MRN", "NAME", "DATE", "PROVIDER"},
			[]string{"1001", "Maria Lopez", "01/05/2025", "Dr Reyes"},
			[]string{"1002", "James Carter", "01/12/2025", "Dr Reyes"},
			[]string{},
			[]string{"", "3001"},
			[]string{"", "3002"},
			[]string{"", "3003"},
		))
	}
	return workbook.New(sheets...)
}

func (s *submission) save(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, s.build().SaveAs(path))
	return path
}

type okPhones struct{}

func (okPhones) Validate(string, string) error { return nil }

type panicPhones struct{}

func (panicPhones) Validate(string, string) error { panic("phone metadata unavailable") }

func newTestAuditor(opts Options) *Auditor {
	return NewAuditor(opts, Dependencies{
		Registry: reference.NewSIDRegistry(map[string]string{"ABC": "Sunrise Surgery - 1/15"}),
		Phones:   okPhones{},
		Logger:   zap.NewNop(),
		Clock:    func() time.Time { return fixedNow },
	})
}
