// Package report renders audit results as standalone HTML documents.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/garyjia/oas-auditor/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	reportDateLayout   = "01/02/2006 15:04:05"
	fileModifiedLayout = "2006-01-02 15:04:05"
)

// Renderer renders audit results into HTML reports
type Renderer struct {
	tmpl    *template.Template
	version string
}

// NewRenderer parses the embedded report templates
func NewRenderer(version string) (*Renderer, error) {
	tmpl, err := template.New("root").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Renderer{tmpl: tmpl, version: version}, nil
}

// Render builds the full report for a completed audit
func (r *Renderer) Render(result *models.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to render")
	}
	return r.execute("report", buildView(result, r.version))
}

// RenderFailure builds the short report written when an audit could not run
func (r *Renderer) RenderFailure(path, reason string, at time.Time) ([]byte, error) {
	modified := "N/A"
	if info, err := os.Stat(path); err == nil {
		modified = info.ModTime().Format(fileModifiedLayout)
	}
	client := clientDisplay(path, "")
	view := &view{
		Title:        "Failed Audit - " + client,
		Version:      r.version,
		Client:       client,
		ReportDate:   at.Format(reportDateLayout),
		FileModified: modified,
		Reason:       reason,
	}
	return r.execute("failure", view)
}

func (r *Renderer) execute(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}
