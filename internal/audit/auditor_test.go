package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/columns"
	"github.com/garyjia/oas-auditor/internal/crosstab"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/reconcile"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

func outcomeOf(t *testing.T, result *models.Result, name string) models.CheckOutcome {
	t.Helper()
	for _, c := range result.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in result", name)
	return models.CheckOutcome{}
}

func TestAuditor_Run_CleanSubmission(t *testing.T) {
	path := cleanSubmission().save(t, t.TempDir(), "Sunrise Surgery#2025Q1.xlsx")

	result, err := newTestAuditor(DefaultOptions()).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.True(t, result.Clean())
	assert.Equal(t, "Sunrise Surgery#2025Q1.xlsx", result.FileName)
	assert.Equal(t, "Sunrise Surgery - 1/15", result.ClientName)
	assert.True(t, result.RegistryMatch)
	assert.Equal(t, "ABC", result.SIDPrefix)
	assert.Equal(t, "TX", result.Metadata.SiteCode)
	assert.NotEmpty(t, result.AuditID)
	assert.Empty(t, result.MissingColumns)

	counts := result.Counts
	assert.Equal(t, 8, *counts.PatientsSubmitted)
	assert.Equal(t, 3, *counts.CMS1Count)
	assert.Equal(t, 2, *counts.Emails)
	assert.Equal(t, 1, *counts.Mailings)
	assert.Equal(t, 1, *counts.NonReported)
	assert.Equal(t, 1, *counts.InelCount)
	assert.Equal(t, 3, *counts.FrameInelCount)
	require.NotNil(t, result.SelectionPercent)
	assert.Equal(t, 75, *result.SelectionPercent)

	require.NotNil(t, result.ServiceDates)
	assert.Equal(t, "Jan", result.ServiceDates.MonthLabel())

	for _, c := range result.Checks {
		if c.Name == CheckDOB {
			assert.Equal(t, models.CheckSkipped, c.Status)
			continue
		}
		assert.True(t, c.Passed(), "check %s: %s %s", c.Name, c.Status, c.Detail)
	}
}

func TestAuditor_Run_Fatal(t *testing.T) {
	auditor := newTestAuditor(DefaultOptions())

	t.Run("unreadable workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

		_, err := auditor.Run(context.Background(), path)
		require.Error(t, err)
		assert.True(t, IsFatal(err))
		assert.ErrorIs(t, err, workbook.ErrUnreadableWorkbook)
	})

	t.Run("no primary sheet", func(t *testing.T) {
		wb := workbook.New(workbook.NewTextSheet(crosstab.SheetPOP, []string{"MRN"}))

		_, err := auditor.RunWorkbook(context.Background(), wb)
		var fatal *FatalError
		require.ErrorAs(t, err, &fatal)
		assert.Equal(t, StagePrimary, fatal.Stage)
		assert.ErrorIs(t, err, ErrPrimarySheetMissing)
	})
}

func TestAuditor_MissingTabs(t *testing.T) {
	sub := cleanSubmission()
	sub.omit[crosstab.SheetUpload] = true
	sub.omit[crosstab.SheetInel] = true

	result, err := newTestAuditor(DefaultOptions()).RunWorkbook(context.Background(), sub.build())
	require.NoError(t, err)

	var tabIssues []string
	for _, issue := range result.Issues {
		if issue.Type == models.IssueTabMissing {
			tabIssues = append(tabIssues, issue.Description)
		}
	}
	assert.Equal(t, []string{"UPLOAD tab missing", "INEL tab missing"}, tabIssues)

	assert.Equal(t, models.CheckSkipped, outcomeOf(t, result, CheckUploadCount).Status)
	assert.Equal(t, models.CheckSkipped, outcomeOf(t, result, CheckUploadValues).Status)
	assert.Equal(t, models.CheckSkipped, outcomeOf(t, result, CheckEmailConsistent).Status)
	assert.Equal(t, models.CheckSkipped, outcomeOf(t, result, CheckInelFormatting).Status)
	assert.Nil(t, result.Counts.InelCount)

	// Without INEL the combined ineligible count drops to the FRAME repeats
	math := outcomeOf(t, result, reconcile.CheckIneligibleMath)
	assert.Equal(t, models.CheckFail, math.Status)
}

func TestAuditor_MissingFrameTab(t *testing.T) {
	sub := cleanSubmission()
	sub.omit[crosstab.SheetFrame] = true

	result, err := newTestAuditor(DefaultOptions()).RunWorkbook(context.Background(), sub.build())
	require.NoError(t, err)

	var tabIssues []string
	for _, issue := range result.Issues {
		if issue.Type == models.IssueTabMissing {
			tabIssues = append(tabIssues, issue.Description)
		}
	}
	assert.Equal(t, []string{"FRAME tab missing"}, tabIssues)
	assert.Nil(t, result.Counts.FrameInelCount)

	math := outcomeOf(t, result, reconcile.CheckIneligibleMath)
	assert.NotEqual(t, models.CheckSkipped, math.Status)
	assert.Contains(t, math.Detail, "missing tab FRAME")
}

func TestAuditor_MissingColumn(t *testing.T) {
	sub := cleanSubmission()
	var header []string
	for _, h := range primaryHeader {
		if h != columns.Gender {
			header = append(header, h)
		}
	}
	sub.header = header

	result, err := newTestAuditor(DefaultOptions()).RunWorkbook(context.Background(), sub.build())
	require.NoError(t, err)

	assert.Equal(t, []string{columns.Gender}, result.MissingColumns)
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, models.IssueMissingRequiredHeader, result.Issues[0].Type)
	assert.Equal(t, "Required column GENDER not found in OASCAPHS header", result.Issues[0].Description)

	gender := outcomeOf(t, result, CheckGender)
	assert.Equal(t, models.CheckSkipped, gender.Status)
	assert.Equal(t, "missing column GENDER", gender.Detail)
	assert.True(t, outcomeOf(t, result, CheckSIDs).Passed())
}

func TestAuditor_CheckPanicIsContained(t *testing.T) {
	auditor := NewAuditor(DefaultOptions(), Dependencies{
		Phones: panicPhones{},
		Logger: zap.NewNop(),
		Clock:  func() time.Time { return fixedNow },
	})

	result, err := auditor.RunWorkbook(context.Background(), cleanSubmission().build())
	require.NoError(t, err)

	phone := outcomeOf(t, result, CheckTelephone)
	assert.Equal(t, models.CheckError, phone.Status)
	assert.Contains(t, phone.Detail, "phone metadata unavailable")

	counts := models.CountByType(result.Issues)
	assert.Equal(t, 1, counts[models.IssueCheckNotEvaluated])
	assert.True(t, outcomeOf(t, result, CheckGender).Passed())
}

func TestAuditor_DeterministicAcrossWorkerCounts(t *testing.T) {
	sub := cleanSubmission()
	sub.patients[0][columns.Gender] = "X"
	sub.patients[1][columns.SID] = "ABC00099"
	sub.patients[2][columns.EmailAddress] = "bad-email"
	sub.patients[3][columns.MRN] = "1001"
	wb := sub.build()

	serial := newTestAuditor(Options{Workers: 1})
	parallel := newTestAuditor(Options{Workers: 8})

	first, err := serial.RunWorkbook(context.Background(), wb)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := parallel.RunWorkbook(context.Background(), wb)
		require.NoError(t, err)
		assert.Equal(t, first.Issues, again.Issues)
		assert.Equal(t, first.Checks, again.Checks)
		assert.Equal(t, first.Counts, again.Counts)
	}

	assert.Equal(t, 1, models.CountByType(first.Issues)[models.IssueInvalidGender])
	assert.Equal(t, 1, models.CountByType(first.Issues)[models.IssueSIDSequence])
	assert.Equal(t, 2, models.CountByType(first.Issues)[models.IssueDuplicateMRN])
}

func TestAuditor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAuditor(DefaultOptions()).RunWorkbook(ctx, cleanSubmission().build())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsFatal(err))
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	cleanSubmission().save(t, dir, "b.xlsx")
	cleanSubmission().save(t, dir, "a.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$a.xlsx"), []byte("lock"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.xlsx"), []byte("corrupt"), 0644))

	items, err := newTestAuditor(DefaultOptions()).RunDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "a.xlsx", filepath.Base(items[0].Path))
	assert.NoError(t, items[0].Err)
	assert.NotNil(t, items[1].Result)
	assert.Equal(t, "c.xlsx", filepath.Base(items[2].Path))
	assert.True(t, IsFatal(items[2].Err))
}
