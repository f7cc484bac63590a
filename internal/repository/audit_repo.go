package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/pkg/database"
)

// DefaultListLimit caps List when no positive limit is given
const DefaultListLimit = 50

// AuditRepository handles audit run and issue database operations
type AuditRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// SaveRun stores a run and its issues in one transaction and sets run.ID
func (r *AuditRepository) SaveRun(ctx context.Context, run *models.AuditRun, issues []models.Issue) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		runQuery := `
			INSERT INTO audit_runs (
				audit_id, file_name, file_path, status, failure_reason,
				client_name, sid_prefix, patients_submitted, eligible_patients,
				sample_size, issue_count, report_path, started_at, completed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := tx.ExecContext(ctx, runQuery,
			run.AuditID,
			run.FileName,
			run.FilePath,
			run.Status,
			run.FailureReason,
			run.ClientName,
			run.SIDPrefix,
			run.PatientsSubmitted,
			run.EligiblePatients,
			run.SampleSize,
			run.IssueCount,
			run.ReportPath,
			run.StartedAt,
			run.CompletedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create audit run", zap.String("audit_id", run.AuditID), zap.Error(err))
			return fmt.Errorf("failed to create audit run: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		issueQuery := `
			INSERT INTO audit_issues (
				run_id, position, sheet, row_num, mrn, cms, issue_type, description
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		stmt, err := tx.PrepareContext(ctx, issueQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare issue insert: %w", err)
		}
		defer stmt.Close()

		for i, issue := range issues {
			_, err := stmt.ExecContext(ctx,
				id,
				i,
				issue.Row.Sheet,
				issue.Row.Row,
				issue.MRN,
				issue.CMS,
				string(issue.Type),
				issue.Description,
			)
			if err != nil {
				r.logger.Error("Failed to create audit issue", zap.String("audit_id", run.AuditID), zap.Int("position", i), zap.Error(err))
				return fmt.Errorf("failed to create audit issue: %w", err)
			}
		}

		run.ID = id
		return nil
	})
}

const runColumns = `
	id, audit_id, file_name, file_path, status, failure_reason,
	client_name, sid_prefix, patients_submitted, eligible_patients,
	sample_size, issue_count, report_path, started_at, completed_at, created_at
`

// List returns the most recent runs first
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*models.AuditRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT ` + runColumns + ` FROM audit_runs ORDER BY started_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list audit runs", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AuditRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetByAuditID retrieves a run by its audit ID. Returns nil when none exists.
func (r *AuditRepository) GetByAuditID(ctx context.Context, auditID string) (*models.AuditRun, error) {
	query := `SELECT ` + runColumns + ` FROM audit_runs WHERE audit_id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, auditID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get audit run", zap.String("audit_id", auditID), zap.Error(err))
		return nil, err
	}
	return run, nil
}

// IssuesFor returns a run's issues in the order they were reported
func (r *AuditRepository) IssuesFor(ctx context.Context, runID int64) ([]*models.AuditIssueRecord, error) {
	query := `
		SELECT id, run_id, position, sheet, row_num, mrn, cms, issue_type, description
		FROM audit_issues
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		r.logger.Error("Failed to get audit issues", zap.Int64("run_id", runID), zap.Error(err))
		return nil, fmt.Errorf("failed to get audit issues: %w", err)
	}
	defer rows.Close()

	var records []*models.AuditIssueRecord
	for rows.Next() {
		var record models.AuditIssueRecord
		var sheet, mrn, cms sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Position,
			&sheet,
			&record.Row,
			&mrn,
			&cms,
			&record.Type,
			&record.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit issue: %w", err)
		}
		record.Sheet = sheet.String
		record.MRN = mrn.String
		record.CMS = cms.String
		records = append(records, &record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*models.AuditRun, error) {
	var run models.AuditRun
	var failureReason, clientName, sidPrefix, reportPath sql.NullString
	var submitted, eligible, sampleSize sql.NullInt64
	var completedAt sql.NullTime

	err := s.Scan(
		&run.ID,
		&run.AuditID,
		&run.FileName,
		&run.FilePath,
		&run.Status,
		&failureReason,
		&clientName,
		&sidPrefix,
		&submitted,
		&eligible,
		&sampleSize,
		&run.IssueCount,
		&reportPath,
		&run.StartedAt,
		&completedAt,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit run: %w", err)
	}

	run.FailureReason = failureReason.String
	run.ClientName = clientName.String
	run.SIDPrefix = sidPrefix.String
	run.ReportPath = reportPath.String
	run.PatientsSubmitted = nullableInt(submitted)
	run.EligiblePatients = nullableInt(eligible)
	run.SampleSize = nullableInt(sampleSize)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.IntPtr(int(v.Int64))
}
