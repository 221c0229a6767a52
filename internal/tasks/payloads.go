package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names shared by producer and consumer.
const (
	TypePDFExport = "pdf:export"
)

// PDFExportPayload carries the minimum data the worker needs to render and
// upload one CV.
type PDFExportPayload struct {
	CVID          uint   `json:"cv_id"`
	UserID        uint   `json:"user_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPDFExportTask builds an export task for a CV.
func NewPDFExportTask(cvID, userID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFExportPayload{
		CVID:          cvID,
		UserID:        userID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePDFExport, payload), nil
}
