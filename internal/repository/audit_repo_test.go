package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/pkg/database"
)

func newTestRepo(t *testing.T) *AuditRepository {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db, err := database.Open(ctx, database.Config{
		Path:            filepath.Join(t.TempDir(), "history.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(ctx, database.Migrations()))
	return NewAuditRepository(db, logger)
}

func completedRun(auditID string, started time.Time) *models.AuditRun {
	completed := started.Add(2 * time.Second)
	return &models.AuditRun{
		AuditID:           auditID,
		FileName:          "Sunrise.xlsx",
		FilePath:          "/data/Sunrise.xlsx",
		Status:            models.RunStatusCompleted,
		ClientName:        "Sunrise Surgery",
		SIDPrefix:         "ABC",
		PatientsSubmitted: models.IntPtr(8),
		SampleSize:        models.IntPtr(3),
		IssueCount:        2,
		ReportPath:        "/data/audits/Sunrise_20250301-000000.html",
		StartedAt:         started,
		CompletedAt:       &completed,
	}
}

func TestAuditRepository_SaveRunAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	issues := []models.Issue{
		{Row: models.AtRow(models.PrimarySheet, 4), MRN: "1003", CMS: "1", Type: models.IssueSIDSequence, Description: "out of sequence"},
		models.NewWorkbookIssue(models.IssueTabMissing, "FRAME tab missing"),
	}
	run := completedRun("ABC-1", started)

	require.NoError(t, repo.SaveRun(ctx, run, issues))
	assert.NotZero(t, run.ID)

	got, err := repo.GetByAuditID(ctx, "ABC-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, "Sunrise Surgery", got.ClientName)
	require.NotNil(t, got.PatientsSubmitted)
	assert.Equal(t, 8, *got.PatientsSubmitted)
	assert.Nil(t, got.EligiblePatients)
	assert.True(t, started.Equal(got.StartedAt))
	require.NotNil(t, got.CompletedAt)

	records, err := repo.IssuesFor(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].Position)
	assert.Equal(t, "OASCAPHS", records[0].Sheet)
	assert.Equal(t, 4, records[0].Row)
	assert.Equal(t, "1003", records[0].MRN)
	assert.Equal(t, string(models.IssueSIDSequence), records[0].Type)
	assert.Equal(t, 0, records[1].Row)
	assert.Equal(t, string(models.IssueTabMissing), records[1].Type)
}

func TestAuditRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetByAuditID(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuditRepository_FailedRun(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	run := models.NewFailedRun("FAIL-1", "/data/Broken.xlsx", "unreadable workbook", at, at)
	require.NoError(t, repo.SaveRun(ctx, run, nil))

	got, err := repo.GetByAuditID(ctx, "FAIL-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "unreadable workbook", got.FailureReason)
	assert.Equal(t, "Broken.xlsx", got.FileName)

	records, err := repo.IssuesFor(ctx, got.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAuditRepository_DuplicateAuditIDRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveRun(ctx, completedRun("DUP", started), nil))
	err := repo.SaveRun(ctx, completedRun("DUP", started), []models.Issue{
		models.NewWorkbookIssue(models.IssueTabMissing, "POP tab missing"),
	})
	require.Error(t, err)

	var issues int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM audit_issues").Scan(&issues))
	assert.Equal(t, 0, issues)
}

func TestAuditRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, repo.SaveRun(ctx, completedRun(id, base.Add(time.Duration(i)*time.Hour)), nil))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"newest first", 10, []string{"C", "B", "A"}},
		{"limited", 2, []string{"C", "B"}},
		{"non-positive limit uses default", 0, []string{"C", "B", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.List(ctx, tt.limit)
			require.NoError(t, err)
			var ids []string
			for _, run := range runs {
				ids = append(ids, run.AuditID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
