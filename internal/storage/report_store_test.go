package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/storage"
)

var fixedNow = time.Date(2025, 12, 3, 14, 5, 9, 0, time.UTC)

func TestReportName(t *testing.T) {
	nov := &models.DateRange{
		Start: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}
	novDec := &models.DateRange{
		Start: time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		source string
		dates  *models.DateRange
		want   string
	}{
		{"no service dates", "/data/Sunrise#Nov.xlsx", nil, "Sunrise#Nov_20251203-140509.html"},
		{"single month", "/data/Sunrise.xlsx", nov, "Sunrise_Nov_20251203-140509.html"},
		{"month range", "Sunrise.xlsx", novDec, "Sunrise_Nov-Dec_20251203-140509.html"},
		{"unsafe upload name", `C:\uploads\bad:name.xlsx`, nil, "C__uploads_bad_name_20251203-140509.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, storage.ReportName(tt.source, tt.dates, fixedNow))
		})
	}
}

func TestReportStore_Save(t *testing.T) {
	t.Run("writes next to the audited file", func(t *testing.T) {
		dir := t.TempDir()
		source := filepath.Join(dir, "Sunrise.xlsx")
		store := storage.NewReportStore("", zap.NewNop()).WithClock(func() time.Time { return fixedNow })

		path, err := store.Save(source, []byte("<html>ok</html>"), false, nil)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "audits", "Sunrise_20251203-140509.html"), path)
		body, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", string(body))
	})

	t.Run("failure reports go to their own folder", func(t *testing.T) {
		dir := t.TempDir()
		store := storage.NewReportStore(dir, zap.NewNop()).WithClock(func() time.Time { return fixedNow })

		path, err := store.Save("upload.xlsx", []byte("failed"), true, nil)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "audits", "unable_to_run_audit", "upload_20251203-140509.html"), path)

		reports, err := storage.NewFolderManager(dir, zap.NewNop()).ListReports(true)
		require.NoError(t, err)
		assert.Equal(t, []string{path}, reports)
	})

	t.Run("numbers a report whose name is taken", func(t *testing.T) {
		dir := t.TempDir()
		store := storage.NewReportStore(dir, zap.NewNop()).WithClock(func() time.Time { return fixedNow })

		first, err := store.Save("Sunrise.xlsx", []byte("first"), false, nil)
		require.NoError(t, err)
		second, err := store.Save("Sunrise.xlsx", []byte("second"), false, nil)
		require.NoError(t, err)
		third, err := store.Save("Sunrise.xlsx", []byte("third"), false, nil)
		require.NoError(t, err)

		folder := filepath.Join(dir, "audits")
		assert.Equal(t, filepath.Join(folder, "Sunrise_20251203-140509.html"), first)
		assert.Equal(t, filepath.Join(folder, "Sunrise_20251203-140509-2.html"), second)
		assert.Equal(t, filepath.Join(folder, "Sunrise_20251203-140509-3.html"), third)

		body, err := os.ReadFile(first)
		require.NoError(t, err)
		assert.Equal(t, "first", string(body), "an existing report is never overwritten")
	})

	t.Run("gives up once every numbered name is taken", func(t *testing.T) {
		dir := t.TempDir()
		store := storage.NewReportStore(dir, zap.NewNop()).WithClock(func() time.Time { return fixedNow })

		var err error
		for i := 0; i < 100; i++ {
			_, err = store.Save("Sunrise.xlsx", []byte("x"), false, nil)
			require.NoError(t, err)
		}
		_, err = store.Save("Sunrise.xlsx", []byte("x"), false, nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrReportExists))
	})
}
