package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvstudio/internal/cvdata"
	"cvstudio/internal/database"
	"cvstudio/internal/render"
)

// CVHandler serves the CV CRUD endpoints.
type CVHandler struct {
	db     *gorm.DB
	maxCVs int
}

func NewCVHandler(db *gorm.DB, maxCVs int) *CVHandler {
	return &CVHandler{db: db, maxCVs: maxCVs}
}

var errInvalidCVID = errors.New("invalid cv id")

type saveCVRequest struct {
	Title      string         `json:"title" binding:"required,max=255"`
	Data       map[string]any `json:"data" binding:"required"`
	TemplateID string         `json:"template_id"`
}

type cvListItem struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	TemplateID   string    `json:"template_id"`
	ExportStatus string    `json:"export_status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type cvResponse struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	Data         datatypes.JSON `json:"data"`
	TemplateID   string         `json:"template_id"`
	ExportStatus string         `json:"export_status,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// normalizeAndValidate schema-checks the canonicalized payload, then stores
// the normalized form, never the input. Validation runs before normalization
// because normalization repairs everything it touches.
func normalizeAndValidate(raw map[string]any) (datatypes.JSON, error) {
	if err := cvdata.Validate(render.Canonical(raw)); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(render.Normalize(raw).TemplateContext())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func respondCVDataError(c *gin.Context, err error) {
	var verr *cvdata.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "cv data failed validation",
			"fields": verr.Fields,
		})
		return
	}
	Internal(c, "failed to process cv data")
}

// CreateCV normalizes and stores a new CV. Malformed data is a 422.
func (h *CVHandler) CreateCV(c *gin.Context) {
	var req saveCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.CV{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count cvs")
		return
	}
	if h.maxCVs > 0 && count >= int64(h.maxCVs) {
		Forbidden(c, "cv limit reached")
		return
	}

	data, err := normalizeAndValidate(req.Data)
	if err != nil {
		respondCVDataError(c, err)
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = render.DefaultTemplateID
	}

	cv := database.CV{
		Title:      req.Title,
		Data:       data,
		TemplateID: templateID,
		UserID:     userID,
	}

	if err := h.db.WithContext(ctx).Create(&cv).Error; err != nil {
		Internal(c, "failed to create cv")
		return
	}

	c.JSON(http.StatusCreated, newCVResponse(cv))
}

// ListCVs lists the user's CVs, newest first.
func (h *CVHandler) ListCVs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var cvs []database.CV
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&cvs).Error; err != nil {
		Internal(c, "failed to list cvs")
		return
	}

	items := make([]cvListItem, 0, len(cvs))
	for _, cv := range cvs {
		items = append(items, cvListItem{
			ID:           cv.ID,
			Title:        cv.Title,
			TemplateID:   cv.TemplateID,
			ExportStatus: cv.ExportStatus,
			CreatedAt:    cv.CreatedAt,
			UpdatedAt:    cv.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetCV returns one CV owned by the user.
func (h *CVHandler) GetCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cv, err := h.getCVForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCVResponse(*cv))
}

type updateCVRequest struct {
	Title      *string        `json:"title"`
	Data       map[string]any `json:"data"`
	TemplateID *string        `json:"template_id"`
}

// UpdateCV merges an allow-listed set of fields. Unknown body fields are
// ignored; data goes through the same normalize-validate path as create.
func (h *CVHandler) UpdateCV(c *gin.Context) {
	var req updateCVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cv, err := h.getCVForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			BadRequest(c, "title must not be empty")
			return
		}
		updates["title"] = *req.Title
	}
	if req.Data != nil {
		data, err := normalizeAndValidate(req.Data)
		if err != nil {
			respondCVDataError(c, err)
			return
		}
		updates["data"] = data
	}
	if req.TemplateID != nil {
		templateID := *req.TemplateID
		if templateID == "" {
			templateID = render.DefaultTemplateID
		}
		updates["template_id"] = templateID
	}

	if len(updates) == 0 {
		BadRequest(c, "no updatable fields in request")
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(cv).Updates(updates).Error; err != nil {
		Internal(c, "failed to update cv")
		return
	}
	if err := h.db.WithContext(ctx).First(cv, cv.ID).Error; err != nil {
		Internal(c, "failed to reload cv")
		return
	}

	c.JSON(http.StatusOK, newCVResponse(*cv))
}

// DeleteCV removes a CV.
func (h *CVHandler) DeleteCV(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cv, err := h.getCVForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCVLookupError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.CV{}, cv.ID).Error; err != nil {
		Internal(c, "failed to delete cv")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CVHandler) getCVForUser(ctx context.Context, idParam string, userID uint) (*database.CV, error) {
	return findCVForUser(ctx, h.db, idParam, userID)
}

func findCVForUser(ctx context.Context, db *gorm.DB, idParam string, userID uint) (*database.CV, error) {
	cvID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidCVID
	}

	var cv database.CV
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(cvID), userID).
		First(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func respondCVLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidCVID):
		BadRequest(c, "invalid cv id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "cv not found")
	default:
		Internal(c, "failed to query cv")
	}
}

func newCVResponse(cv database.CV) cvResponse {
	return cvResponse{
		ID:           cv.ID,
		Title:        cv.Title,
		Data:         cv.Data,
		TemplateID:   cv.TemplateID,
		ExportStatus: cv.ExportStatus,
		CreatedAt:    cv.CreatedAt,
		UpdatedAt:    cv.UpdatedAt,
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
