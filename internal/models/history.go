package models

import (
	"path/filepath"
	"time"
)

// Audit run status constants
const (
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// AuditRun is the persisted summary of one audit invocation
type AuditRun struct {
	ID                int64      `json:"id"`
	AuditID           string     `json:"audit_id"`
	FileName          string     `json:"file_name"`
	FilePath          string     `json:"file_path"`
	Status            string     `json:"status"` // COMPLETED, FAILED
	FailureReason     string     `json:"failure_reason,omitempty"`
	ClientName        string     `json:"client_name,omitempty"`
	SIDPrefix         string     `json:"sid_prefix,omitempty"`
	PatientsSubmitted *int       `json:"patients_submitted"`
	EligiblePatients  *int       `json:"eligible_patients"`
	SampleSize        *int       `json:"sample_size"`
	IssueCount        int        `json:"issue_count"`
	ReportPath        string     `json:"report_path,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// AuditIssueRecord is one persisted issue belonging to an AuditRun
type AuditIssueRecord struct {
	ID          int64  `json:"id"`
	RunID       int64  `json:"run_id"`
	Position    int    `json:"position"`
	Sheet       string `json:"sheet,omitempty"`
	Row         int    `json:"row"`
	MRN         string `json:"mrn,omitempty"`
	CMS         string `json:"cms,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// NewRunFromResult builds the history summary of a completed audit
func NewRunFromResult(result *Result, reportPath string) *AuditRun {
	completed := result.CompletedAt
	return &AuditRun{
		AuditID:           result.AuditID,
		FileName:          result.FileName,
		FilePath:          result.FilePath,
		Status:            RunStatusCompleted,
		ClientName:        result.ClientName,
		SIDPrefix:         result.SIDPrefix,
		PatientsSubmitted: result.Counts.PatientsSubmitted,
		EligiblePatients:  result.Counts.EligiblePatients,
		SampleSize:        result.Counts.SampleSize,
		IssueCount:        len(result.Issues),
		ReportPath:        reportPath,
		StartedAt:         result.StartedAt,
		CompletedAt:       &completed,
	}
}

// NewFailedRun builds the history entry of an audit that could not run
func NewFailedRun(auditID, filePath, reason string, startedAt, completedAt time.Time) *AuditRun {
	return &AuditRun{
		AuditID:       auditID,
		FileName:      filepath.Base(filePath),
		FilePath:      filePath,
		Status:        RunStatusFailed,
		FailureReason: reason,
		StartedAt:     startedAt,
		CompletedAt:   &completedAt,
	}
}
