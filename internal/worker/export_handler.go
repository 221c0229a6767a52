package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cvstudio/internal/database"
	"cvstudio/internal/errcode"
	"cvstudio/internal/pdf"
	"cvstudio/internal/render"
	"cvstudio/internal/storage"
	"cvstudio/internal/tasks"
)

// PDFExportHandler consumes pdf:export tasks: render the CV with its
// template, upload the result to object storage, record the object key on
// the row and notify the owner over redis pub/sub.
type PDFExportHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewPDFExportHandler(db *gorm.DB, storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger) *PDFExportHandler {
	return &PDFExportHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *PDFExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("cv_id", int(payload.CVID)),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)
	log.Info("starting pdf export task")

	var cv database.CV
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", payload.CVID, payload.UserID).
		First(&cv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("cv not found, skipping task")
			return nil
		}
		log.Error("query cv failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		_ = h.db.WithContext(ctx).Model(&cv).
			Update("export_status", database.ExportStatusFailed).Error
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := PDFExportNotifyMessage{
			Status:        "error",
			CVID:          cv.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, payload.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	if err := h.db.WithContext(ctx).Model(&cv).
		Update("export_status", database.ExportStatusProcessing).Error; err != nil {
		log.Error("mark export processing failed", slog.Any("error", err))
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(cv.Data, &raw); err != nil {
		log.Error("decode cv data failed", slog.Any("error", err))
		return err
	}
	rec := render.Normalize(raw)

	tpl, err := h.loadTemplate(ctx, cv.TemplateID)
	if err != nil {
		log.Error("load template failed", slog.Any("error", err))
		return err
	}

	pdfBytes, err := pdf.Render(ctx, tpl.HTML, tpl.CSS, rec)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("exports/%d/%s.pdf", payload.UserID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"pdf_object_key": objectName,
		"export_status":  database.ExportStatusDone,
	}
	if err := h.db.WithContext(ctx).Model(&cv).Updates(update).Error; err != nil {
		log.Error("update cv failed", slog.Any("error", err))
		return err
	}

	notify := PDFExportNotifyMessage{
		Status:        "completed",
		CVID:          cv.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, payload.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("pdf export task completed")
	return nil
}

// loadTemplate mirrors the API-side fallback: unknown ids render with the
// default template.
func (h *PDFExportHandler) loadTemplate(ctx context.Context, templateID string) (*database.Template, error) {
	if templateID == "" {
		templateID = render.DefaultTemplateID
	}
	var tpl database.Template
	err := h.db.WithContext(ctx).First(&tpl, "id = ?", templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && templateID != render.DefaultTemplateID {
		err = h.db.WithContext(ctx).First(&tpl, "id = ?", render.DefaultTemplateID).Error
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (h *PDFExportHandler) publishNotify(ctx context.Context, userID uint, notify PDFExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
