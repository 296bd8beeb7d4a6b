package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
	apperrors "github.com/yanqian/keto-dashboard/pkg/errors"
)

// Handler wires the HTTP transport to the dashboard service.
type Handler struct {
	svc          dashboard.Service
	maxFileBytes int64
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc dashboard.Service, maxFileBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		svc:          svc,
		maxFileBytes: maxFileBytes,
		logger:       logger.With("component", "http.handler"),
	}
}

type rejectedUpload struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type uploadResponse struct {
	Reports  []labreport.DatedReport `json:"reports"`
	Rejected []rejectedUpload        `json:"rejected"`
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartSession issues a new session and its bearer token.
func (h *Handler) StartSession(c *gin.Context) {
	view, err := h.svc.StartSession(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// EndSession discards the caller's session and its exports.
func (h *Handler) EndSession(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	if err := h.svc.EndSession(c.Request.Context(), sessionID); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadReports accepts one or more multipart "file" parts. Files that fail to
// load are reported back individually while the rest are kept.
func (h *Handler) UploadReports(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "expected a multipart form with file parts", err))
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "at least one file is required", nil))
		return
	}

	resp := uploadResponse{Reports: []labreport.DatedReport{}, Rejected: []rejectedUpload{}}
	for _, fh := range files {
		content, err := h.readUpload(fh)
		if err == nil {
			var report labreport.DatedReport
			report, err = h.svc.UploadReport(c.Request.Context(), sessionID, dashboard.UploadRequest{
				Filename: fh.Filename,
				Content:  content,
			})
			if err == nil {
				resp.Reports = append(resp.Reports, report)
				continue
			}
		}
		if !isFileError(err) {
			abortWithError(c, fromDomainError(err))
			return
		}
		h.logger.Warn("report rejected", "session_id", sessionID, "filename", fh.Filename, "error", err)
		resp.Rejected = append(resp.Rejected, rejectedUpload{
			Filename: fh.Filename,
			Code:     apperrors.CodeOf(err),
			Message:  errMessage(err),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxFileBytes > 0 && fh.Size > h.maxFileBytes {
		return nil, apperrors.Wrap("invalid_input", fmt.Sprintf("file exceeds maximum allowed size of %d bytes", h.maxFileBytes), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap("invalid_input", "failed to open uploaded file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.Wrap("invalid_input", "failed to read uploaded file", err)
	}
	return data, nil
}

func isFileError(err error) bool {
	return apperrors.IsCode(err, "invalid_input") || apperrors.IsCode(err, "unsupported_file_type")
}

// ListReports returns the session's report series.
func (h *Handler) ListReports(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	series, err := h.svc.Reports(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	if series == nil {
		series = labreport.ReportSeries{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": series})
}

// Trends returns one chartable series per marker.
func (h *Handler) Trends(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	trends, err := h.svc.Trends(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// Recommendations evaluates the latest report.
func (h *Handler) Recommendations(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	rec, err := h.svc.Recommendations(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdatePreferences replaces the session's meal preferences.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	var req mealplan.Preferences
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", errMessage(err), err))
		return
	}
	prefs, err := h.svc.UpdatePreferences(c.Request.Context(), sessionID, req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// MealPlan generates a fresh weekly plan.
func (h *Handler) MealPlan(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	plan, err := h.svc.MealPlan(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ExportMealPlan stores a fresh plan as CSV and returns its download location.
func (h *Handler) ExportMealPlan(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	export, err := h.svc.ExportMealPlan(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	location := fmt.Sprintf("%s/%s", c.Request.URL.Path, export.ID)
	c.Header("Location", location)
	c.JSON(http.StatusCreated, gin.H{"export": export, "downloadUrl": location})
}

// DownloadExport streams a stored CSV export as an attachment.
func (h *Handler) DownloadExport(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	exportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "export id must be a UUID", err))
		return
	}
	download, err := h.svc.DownloadExport(c.Request.Context(), sessionID, exportID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Data(http.StatusOK, download.ContentType, download.Data)
}

// Dashboard recomputes every view of the session in one response.
func (h *Handler) Dashboard(c *gin.Context) {
	sessionID, ok := h.requireSession(c)
	if !ok {
		return
	}
	view, err := h.svc.Dashboard(c.Request.Context(), sessionID)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// Ingredients lists the pools preferences can refer to.
func (h *Handler) Ingredients(c *gin.Context) {
	pools := h.svc.Ingredients()
	c.JSON(http.StatusOK, gin.H{"pools": pools, "ingredients": pools.Ingredients()})
}

func (h *Handler) requireSession(c *gin.Context) (uuid.UUID, bool) {
	sessionID, ok := getSessionID(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", errors.New("session id not set")))
		return uuid.Nil, false
	}
	return sessionID, true
}
