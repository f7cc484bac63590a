package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFolderManager_ReportFolderPath(t *testing.T) {
	tempDir := t.TempDir()
	fm := NewFolderManager(tempDir, zap.NewNop())

	assert.Equal(t, filepath.Join(tempDir, "audits"), fm.ReportFolderPath(false))
	assert.Equal(t, filepath.Join(tempDir, "audits", "unable_to_run_audit"), fm.ReportFolderPath(true))
	assert.NoDirExists(t, fm.ReportFolderPath(false), "path lookup must not create the folder")
}

func TestFolderManager_CreateReportFolder(t *testing.T) {
	tempDir := t.TempDir()
	fm := NewFolderManager(tempDir, zap.NewNop())

	t.Run("creates the audits folder", func(t *testing.T) {
		folderPath, err := fm.CreateReportFolder(false)

		require.NoError(t, err)
		assert.DirExists(t, folderPath)
		assert.Equal(t, fm.ReportFolderPath(false), folderPath)
	})

	t.Run("creates the failure folder under audits", func(t *testing.T) {
		folderPath, err := fm.CreateReportFolder(true)

		require.NoError(t, err)
		assert.DirExists(t, folderPath)
		assert.Equal(t, filepath.Join(tempDir, "audits"), filepath.Dir(folderPath))
	})

	t.Run("returns existing folder path if folder already exists", func(t *testing.T) {
		first, err := fm.CreateReportFolder(false)
		require.NoError(t, err)
		second, err := fm.CreateReportFolder(false)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("fails when the base is a file", func(t *testing.T) {
		base := filepath.Join(tempDir, "plain-file")
		require.NoError(t, os.WriteFile(base, []byte("x"), 0644))

		_, err := NewFolderManager(base, zap.NewNop()).CreateReportFolder(false)
		assert.Error(t, err)
	})
}

func TestFolderManager_ListReports(t *testing.T) {
	tempDir := t.TempDir()
	fm := NewFolderManager(tempDir, zap.NewNop())

	t.Run("missing folder lists nothing", func(t *testing.T) {
		reports, err := fm.ListReports(false)
		require.NoError(t, err)
		assert.Empty(t, reports)
	})

	t.Run("lists only html files", func(t *testing.T) {
		folder, err := fm.CreateReportFolder(false)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(folder, "b_20250101-000000.html"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(folder, "a_20250101-000000.html"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), nil, 0644))
		_, err = fm.CreateReportFolder(true)
		require.NoError(t, err)

		reports, err := fm.ListReports(false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(folder, "a_20250101-000000.html"),
			filepath.Join(folder, "b_20250101-000000.html"),
		}, reports)
	})
}
