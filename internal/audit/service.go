package audit

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/headerfooter"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// Renderer turns results into report documents
type Renderer interface {
	Render(result *models.Result) ([]byte, error)
	RenderFailure(path, reason string, at time.Time) ([]byte, error)
}

// ReportStore persists rendered reports and returns where they were written
type ReportStore interface {
	Save(sourcePath string, body []byte, failed bool, dates *models.DateRange) (string, error)
}

// HistoryStore records audit runs
type HistoryStore interface {
	SaveRun(ctx context.Context, run *models.AuditRun, issues []models.Issue) error
}

// Outcome is one audited file and the report written for it
type Outcome struct {
	Path       string
	Result     *models.Result
	ReportPath string
	// Err is set when the audit could not run; a failure report was written
	Err error
}

// Failed reports whether the audit could not run
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Service runs audits and writes their reports and history
type Service struct {
	auditor  *Auditor
	renderer Renderer
	store    ReportStore
	history  HistoryStore
	logger   *zap.Logger

	uploadDir string
}

// NewService creates a Service. history may be nil when persistence is disabled.
func NewService(auditor *Auditor, renderer Renderer, store ReportStore, history HistoryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		auditor:  auditor,
		renderer: renderer,
		store:    store,
		history:  history,
		logger:   logger,
	}
}

// WithUploadDir places uploaded workbooks under dir, so their reports land
// in dir's audits folder unless the store has its own output directory.
func (s *Service) WithUploadDir(dir string) *Service {
	s.uploadDir = dir
	return s
}

// AuditFile audits one workbook and saves its report. A workbook that cannot
// be audited yields a failed Outcome with a failure report, not an error;
// errors are reserved for reports that could not be written and cancellation.
func (s *Service) AuditFile(ctx context.Context, path string) (*Outcome, error) {
	started := s.auditor.now()
	result, err := s.auditor.Run(ctx, path)
	return s.finish(ctx, path, started, result, err)
}

// AuditUpload audits a workbook streamed from a client. name stands in for
// the file path in the result and the report file name.
func (s *Service) AuditUpload(ctx context.Context, name string, r io.Reader) (*Outcome, error) {
	started := s.auditor.now()
	path := s.uploadPath(name)
	wb, err := workbook.OpenReader(r)
	if err != nil {
		return s.finish(ctx, path, started, nil, &FatalError{Stage: StageOpen, Err: err})
	}
	result, err := s.auditor.RunWorkbook(ctx, wb.WithSource(path, started))
	return s.finish(ctx, path, started, result, err)
}

// uploadPath keeps only the base of a client-supplied name
func (s *Service) uploadPath(name string) string {
	if s.uploadDir == "" {
		return name
	}
	return filepath.Join(s.uploadDir, filepath.Base(name))
}

func (s *Service) finish(ctx context.Context, path string, started time.Time, result *models.Result, err error) (*Outcome, error) {
	if err != nil {
		if !IsFatal(err) {
			return nil, err
		}
		return s.fail(ctx, path, err, started)
	}

	body, err := s.renderer.Render(result)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	reportPath, err := s.store.Save(path, body, false, result.ServiceDates)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Info("Report saved",
		zap.String("file", path),
		zap.String("report", reportPath),
		zap.Int("issues", len(result.Issues)),
	)
	s.record(ctx, models.NewRunFromResult(result, reportPath), result.Issues)

	return &Outcome{Path: path, Result: result, ReportPath: reportPath}, nil
}

func (s *Service) fail(ctx context.Context, path string, cause error, started time.Time) (*Outcome, error) {
	now := s.auditor.now()
	s.logger.Error("Audit could not run", zap.String("file", path), zap.Error(cause))

	body, err := s.renderer.RenderFailure(path, cause.Error(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to render failure report: %w", err)
	}
	reportPath, err := s.store.Save(path, body, true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to save failure report: %w", err)
	}

	run := models.NewFailedRun(headerfooter.NewAuditID(""), path, cause.Error(), started, now)
	run.ReportPath = reportPath
	s.record(ctx, run, nil)

	return &Outcome{Path: path, ReportPath: reportPath, Err: cause}, nil
}

// record stores the run in history. History is best effort and never fails an audit.
func (s *Service) record(ctx context.Context, run *models.AuditRun, issues []models.Issue) {
	if s.history == nil {
		return
	}
	if err := s.history.SaveRun(ctx, run, issues); err != nil {
		s.logger.Warn("Failed to record audit history",
			zap.String("audit_id", run.AuditID),
			zap.Error(err),
		)
	}
}

// AuditDir audits every workbook in a directory, one at a time
func (s *Service) AuditDir(ctx context.Context, dir string) ([]*Outcome, error) {
	paths, err := ListWorkbooks(dir)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*Outcome, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome, err := s.AuditFile(ctx, path)
		if err != nil {
			s.logger.Error("Failed to audit file", zap.String("file", path), zap.Error(err))
			outcome = &Outcome{Path: path, Err: err}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
