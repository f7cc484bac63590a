// internal/storage/file_storage_test.go
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveFile(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("saves file successfully", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "audits", "report.html")
		content := []byte("<html></html>")

		err := fs.SaveFile(fullPath, content)

		require.NoError(t, err)
		savedContent, err := os.ReadFile(fullPath)
		require.NoError(t, err)
		assert.Equal(t, content, savedContent)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "deep", "nested", "dir", "report.html")

		err := fs.SaveFile(fullPath, []byte("content"))

		require.NoError(t, err)
		assert.FileExists(t, fullPath)
	})

	t.Run("refuses to overwrite an existing file", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "once", "report.html")
		require.NoError(t, fs.SaveFile(fullPath, []byte("original")))

		err := fs.SaveFile(fullPath, []byte("updated"))

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrReportExists))
		content, _ := os.ReadFile(fullPath)
		assert.Equal(t, []byte("original"), content)
	})

	t.Run("saves empty file", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "empty.html")
		require.NoError(t, fs.SaveFile(fullPath, []byte{}))

		info, err := os.Stat(fullPath)
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Size())
	})

	t.Run("rejects a path outside the base directory", func(t *testing.T) {
		err := fs.SaveFile(filepath.Join(tempDir, "..", "escaped.html"), []byte("x"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "escapes base directory")
	})
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"accepts valid path within base", filepath.Join(tempDir, "audits", "r.html"), false},
		{"accepts the base itself", tempDir, false},
		{"rejects path outside base directory", "/etc/passwd", true},
		{"rejects path traversal attempt", filepath.Join(tempDir, "..", "..", "etc", "passwd"), true},
		{"rejects path with similar prefix", tempDir + "_malicious/file.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidatePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "escapes base directory")
				return
			}
			assert.NoError(t, err)
		})
	}
}
