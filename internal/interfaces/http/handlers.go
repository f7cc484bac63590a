package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/audit"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/workbook"
)

// UploadAuditor audits a workbook streamed from a client
type UploadAuditor interface {
	AuditUpload(ctx context.Context, name string, r io.Reader) (*audit.Outcome, error)
}

// HistoryReader reads recorded audit runs
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]*models.AuditRun, error)
	GetByAuditID(ctx context.Context, auditID string) (*models.AuditRun, error)
	IssuesFor(ctx context.Context, runID int64) ([]*models.AuditIssueRecord, error)
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	auditor UploadAuditor
	history HistoryReader
	config  ServerConfig
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(auditor UploadAuditor, history HistoryReader, config ServerConfig, logger *zap.Logger) *Handlers {
	return &Handlers{
		auditor: auditor,
		history: history,
		config:  config,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// AuditResponse is the outcome of an uploaded audit
type AuditResponse struct {
	Result     *models.Result `json:"result,omitempty"`
	ReportPath string         `json:"report_path"`
}

// RunResponse is a recorded run with its issues
type RunResponse struct {
	Run    *models.AuditRun           `json:"run"`
	Issues []*models.AuditIssueRecord `json:"issues"`
}

// ListAuditsRequest represents query parameters for listing runs
type ListAuditsRequest struct {
	Limit int `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.config.Version,
		},
	})
}

// CreateAudit handles POST /api/v1/audits with a multipart "file" field
func (h *Handlers) CreateAudit(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "multipart field \"file\" is required",
		})
		return
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "only .xlsx workbooks can be audited",
		})
		return
	}

	if h.config.MaxUploadBytes > 0 && header.Size > h.config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   "workbook exceeds the upload size limit",
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	outcome, err := h.auditor.AuditUpload(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.logger.Error("Failed to audit upload", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to run audit",
		})
		return
	}

	if outcome.Failed() {
		message := outcome.Err.Error()
		if errors.Is(outcome.Err, workbook.ErrUnreadableWorkbook) {
			message = "workbook could not be read"
		}
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Data:    AuditResponse{ReportPath: outcome.ReportPath},
			Error:   message,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: AuditResponse{
			Result:     outcome.Result,
			ReportPath: outcome.ReportPath,
		},
	})
}

// ListAudits handles GET /api/v1/audits
func (h *Handlers) ListAudits(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	var req ListAuditsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}
	if req.Limit <= 0 || req.Limit > maxListLimit {
		req.Limit = defaultListLimit
	}

	runs, err := h.history.List(c.Request.Context(), req.Limit)
	if err != nil {
		h.logger.Error("Failed to list audit runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve audit history",
		})
		return
	}
	if runs == nil {
		runs = []*models.AuditRun{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    runs,
	})
}

// GetAudit handles GET /api/v1/audits/:audit_id
func (h *Handlers) GetAudit(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	auditID := c.Param("audit_id")
	run, err := h.history.GetByAuditID(c.Request.Context(), auditID)
	if err != nil {
		h.logger.Error("Failed to get audit run", zap.String("audit_id", auditID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve audit",
		})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "audit not found",
		})
		return
	}

	issues, err := h.history.IssuesFor(c.Request.Context(), run.ID)
	if err != nil {
		h.logger.Error("Failed to get audit issues", zap.String("audit_id", auditID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve audit issues",
		})
		return
	}
	if issues == nil {
		issues = []*models.AuditIssueRecord{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    RunResponse{Run: run, Issues: issues},
	})
}

func (h *Handlers) historyEnabled(c *gin.Context) bool {
	if h.history != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, Response{
		Success: false,
		Error:   "audit history is disabled",
	})
	return false
}
