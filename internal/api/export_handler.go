package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"cvstudio/internal/api/middleware"
	"cvstudio/internal/database"
	"cvstudio/internal/pdf"
	"cvstudio/internal/render"
	"cvstudio/internal/storage"
	"cvstudio/internal/tasks"
)

// ExportHandler serves synchronous document rendering (html, pdf, docx),
// the live preview endpoint, and async PDF export enqueueing.
type ExportHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
	logger      *slog.Logger
}

func NewExportHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		logger:      logger,
	}
}

// loadTemplate fetches a template row, falling back to the default when the
// id is unknown. The permanent catalog guarantees the default exists.
func loadTemplate(ctx context.Context, db *gorm.DB, templateID string) (*database.Template, error) {
	if templateID == "" {
		templateID = render.DefaultTemplateID
	}

	var tpl database.Template
	err := db.WithContext(ctx).First(&tpl, "id = ?", templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && templateID != render.DefaultTemplateID {
		err = db.WithContext(ctx).First(&tpl, "id = ?", render.DefaultTemplateID).Error
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func recordFromCV(cv *database.CV) (render.Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(cv.Data, &raw); err != nil {
		return render.Record{}, fmt.Errorf("decode cv data: %w", err)
	}
	return render.Normalize(raw), nil
}

// Export renders one stored CV in the requested format.
// GET /v1/cvs/:id/export/:format with format html | pdf | docx.
func (h *ExportHandler) Export(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	cv, err := findCVForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	rec, err := recordFromCV(cv)
	if err != nil {
		h.loggerFromContext(c).Error("decode stored cv failed", slog.Any("error", err))
		Internal(c, "stored cv data is unreadable")
		return
	}

	format := c.Param("format")
	switch format {
	case "docx":
		// Template-agnostic; no catalog lookup needed.
		data, err := render.RenderDOCX(rec)
		if err != nil {
			h.loggerFromContext(c).Error("docx render failed", slog.Any("error", err))
			Internal(c, "failed to render docx")
			return
		}
		h.serveAttachment(c, cv, "docx",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)
	case "html":
		tpl, err := loadTemplate(ctx, h.db, cv.TemplateID)
		if err != nil {
			Internal(c, "failed to load template")
			return
		}
		doc := render.RenderHTML(tpl.HTML, tpl.CSS, rec)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
	case "pdf":
		tpl, err := loadTemplate(ctx, h.db, cv.TemplateID)
		if err != nil {
			Internal(c, "failed to load template")
			return
		}
		data, err := pdf.Render(ctx, tpl.HTML, tpl.CSS, rec)
		if err != nil {
			h.loggerFromContext(c).Error("pdf render failed", slog.Any("error", err))
			Internal(c, "failed to render pdf")
			return
		}
		h.serveAttachment(c, cv, "pdf", "application/pdf", data)
	default:
		BadRequest(c, "unsupported export format")
	}
}

func (h *ExportHandler) serveAttachment(c *gin.Context, cv *database.CV, ext, contentType string, data []byte) {
	filename := fmt.Sprintf("cv-%d.%s", cv.ID, ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, contentType, data)
}

type previewRequest struct {
	Data       map[string]any `json:"data" binding:"required"`
	TemplateID string         `json:"template_id"`
	HTML       *string        `json:"html"`
	CSS        *string        `json:"css"`
}

// Preview renders a live payload to a full HTML document without persisting
// anything. Expansion failures come back as a diagnostic document, so this
// endpoint answers 200 for any payload that parses.
func (h *ExportHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	rec := render.Normalize(req.Data)

	var htmlTmpl, cssTmpl string
	if req.HTML != nil {
		// Ad-hoc markup preview, used by the template editor.
		htmlTmpl = *req.HTML
		if req.CSS != nil {
			cssTmpl = *req.CSS
		}
	} else {
		tpl, err := loadTemplate(c.Request.Context(), h.db, req.TemplateID)
		if err != nil {
			Internal(c, "failed to load template")
			return
		}
		htmlTmpl, cssTmpl = tpl.HTML, tpl.CSS
	}

	doc := render.RenderHTML(htmlTmpl, cssTmpl, rec)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// ExportPDFAsync enqueues a background PDF export and answers 202.
func (h *ExportHandler) ExportPDFAsync(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	cv, err := findCVForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewPDFExportTask(cv.ID, userID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue pdf export")
		return
	}

	if err := h.db.WithContext(ctx).Model(cv).
		Update("export_status", database.ExportStatusQueued).Error; err != nil {
		h.loggerFromContext(c).Error("mark export queued failed", slog.Any("error", err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "pdf export accepted",
		"task_id": info.ID,
	})
}

// DownloadLink returns a presigned URL for the last async export.
func (h *ExportHandler) DownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cv, err := findCVForUser(c.Request.Context(), h.db, c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	if cv.PdfObjectKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), cv.PdfObjectKey, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

func (h *ExportHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
