package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/models"
)

// BatchItem is the outcome of one file in a batch
type BatchItem struct {
	Path   string
	Result *models.Result
	Err    error
}

// ListWorkbooks returns the .xlsx files of a directory in name order,
// skipping Excel lock files
func ListWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".xlsx") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunBatch audits files one at a time. A failed file is logged and recorded;
// it never stops the batch. Only context cancellation ends it early.
func (a *Auditor) RunBatch(ctx context.Context, paths []string) ([]BatchItem, error) {
	items := make([]BatchItem, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		result, err := a.Run(ctx, path)
		if err != nil {
			a.logger.Warn("Audit failed", zap.String("file", path), zap.Error(err))
		}
		items = append(items, BatchItem{Path: path, Result: result, Err: err})
	}
	return items, nil
}

// RunDir audits every workbook in a directory
func (a *Auditor) RunDir(ctx context.Context, dir string) ([]BatchItem, error) {
	paths, err := ListWorkbooks(dir)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Starting batch audit", zap.String("dir", dir), zap.Int("files", len(paths)))
	return a.RunBatch(ctx, paths)
}
