package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	// AuditsFolder holds the reports of audits that ran
	AuditsFolder = "audits"
	// FailedFolder, under AuditsFolder, holds the reports of audits that could not run
	FailedFolder = "unable_to_run_audit"
)

// FolderManager manages the report folders under a base directory
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// ReportFolderPath returns the folder a report belongs in.
// Does not create the folder if it doesn't exist
func (m *FolderManager) ReportFolderPath(failed bool) string {
	if failed {
		return filepath.Join(m.baseDir, AuditsFolder, FailedFolder)
	}
	return filepath.Join(m.baseDir, AuditsFolder)
}

// CreateReportFolder creates the report folder and returns its path
func (m *FolderManager) CreateReportFolder(failed bool) (string, error) {
	folderPath := m.ReportFolderPath(failed)

	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create report folder",
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	m.logger.Debug("Created report folder", zap.String("folder_path", folderPath))
	return folderPath, nil
}

// ListReports returns the report files in a folder, sorted by name
func (m *FolderManager) ListReports(failed bool) ([]string, error) {
	entries, err := os.ReadDir(m.ReportFolderPath(failed))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report folder: %w", err)
	}

	var reports []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ReportExt {
			continue
		}
		reports = append(reports, filepath.Join(m.ReportFolderPath(failed), entry.Name()))
	}
	return reports, nil
}
