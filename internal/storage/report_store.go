package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/pkg/utils"
)

const (
	// ReportExt is the extension of every report file
	ReportExt = ".html"

	reportTimestampLayout = "20060102-150405"

	// maxNameAttempts bounds the numbered names tried when a report name is taken
	maxNameAttempts = 100
)

// ReportStore writes rendered reports into an audits folder
type ReportStore struct {
	outputDir string
	now       func() time.Time
	logger    *zap.Logger
}

// NewReportStore creates a ReportStore. An empty outputDir places each
// report's audits folder next to the audited file.
func NewReportStore(outputDir string, logger *zap.Logger) *ReportStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportStore{
		outputDir: outputDir,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the clock used to timestamp report names
func (s *ReportStore) WithClock(now func() time.Time) *ReportStore {
	s.now = now
	return s
}

// Save writes a report for sourcePath and returns the path written
func (s *ReportStore) Save(sourcePath string, body []byte, failed bool, dates *models.DateRange) (string, error) {
	baseDir := s.outputDir
	if baseDir == "" {
		baseDir = filepath.Dir(sourcePath)
	}

	folder, err := NewFolderManager(baseDir, s.logger).CreateReportFolder(failed)
	if err != nil {
		return "", err
	}

	files := NewLocalFileStorage(baseDir, s.logger)
	name := ReportName(sourcePath, dates, s.now())

	var reportPath string
	for attempt := 1; ; attempt++ {
		reportPath = filepath.Join(folder, numberedName(name, attempt))
		err = files.SaveFile(reportPath, body)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrReportExists) || attempt == maxNameAttempts {
			return "", err
		}
	}

	s.logger.Info("Report written",
		zap.String("source", sourcePath),
		zap.String("report", reportPath),
		zap.Bool("failed", failed))

	return reportPath, nil
}

// ReportName builds "<base>[_Mon|_Mon-Mon]_YYYYmmdd-HHMMSS.html" for a source file
func ReportName(sourcePath string, dates *models.DateRange, at time.Time) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = utils.SanitizeFileName(base)

	month := ""
	if dates != nil {
		month = "_" + dates.MonthLabel()
	}
	return fmt.Sprintf("%s%s_%s%s", base, month, at.Format(reportTimestampLayout), ReportExt)
}

// numberedName leaves the first attempt unchanged and suffixes later ones
// with "-N" before the extension.
func numberedName(name string, attempt int) string {
	if attempt <= 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), attempt, ext)
}
