package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cvstudio/internal/database"
	"cvstudio/internal/render"
)

// TemplateHandler serves the public catalog and the admin management
// endpoints. Admin access is tied to a single configured email.
type TemplateHandler struct {
	db         *gorm.DB
	adminEmail string
}

func NewTemplateHandler(db *gorm.DB, adminEmail string) *TemplateHandler {
	return &TemplateHandler{db: db, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

type templateListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Premium   bool   `json:"premium"`
	Permanent bool   `json:"permanent"`
}

type templateDetailResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Premium   bool   `json:"premium"`
	Permanent bool   `json:"permanent"`
	HTML      string `json:"html"`
	CSS       string `json:"css"`
}

// ListTemplates returns the whole catalog without markup bodies.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var templates []database.Template
	if err := h.db.WithContext(c.Request.Context()).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:        t.ID,
			Name:      t.Name,
			Category:  t.Category,
			Premium:   t.Premium,
			Permanent: t.Permanent,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GetTemplate returns one template including its HTML and CSS.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id := c.Param("id")
	var tpl database.Template
	if err := h.db.WithContext(c.Request.Context()).First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to load template")
		return
	}
	c.JSON(http.StatusOK, newTemplateDetail(tpl))
}

type saveTemplateRequest struct {
	ID       string `json:"id" binding:"required,max=64"`
	Name     string `json:"name" binding:"required,max=255"`
	Category string `json:"category" binding:"max=64"`
	Premium  bool   `json:"premium"`
	HTML     string `json:"html" binding:"required"`
	CSS      string `json:"css"`
}

// vetTemplateMarkup rejects templates whose markup cannot expand against a
// sample record. Broken section markers fail here, at write time, instead of
// at every later render.
func vetTemplateMarkup(htmlTmpl, cssTmpl string) error {
	sample := render.Normalize(map[string]any{
		"full_name": "Sample Person",
		"skills":    []any{"one", "two"},
	})
	_, _, err := render.Expand(htmlTmpl, cssTmpl, sample)
	return err
}

func (h *TemplateHandler) requireAdmin(c *gin.Context) bool {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return false
	}
	if h.adminEmail == "" {
		Forbidden(c, "admin access is not configured")
		return false
	}

	var user database.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		AbortUnauthorized(c)
		return false
	}
	if !strings.EqualFold(user.Email, h.adminEmail) {
		Forbidden(c, "admin access required")
		return false
	}
	return true
}

// CreateTemplate adds a catalog entry (admin only).
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := vetTemplateMarkup(req.HTML, req.CSS); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "template markup rejected: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	var existing database.Template
	if err := h.db.WithContext(ctx).First(&existing, "id = ?", req.ID).Error; err == nil {
		Conflict(c, "template id already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "failed to check template id")
		return
	}

	tpl := database.Template{
		ID:       req.ID,
		Name:     req.Name,
		Category: req.Category,
		Premium:  req.Premium,
		HTML:     req.HTML,
		CSS:      req.CSS,
	}
	if err := h.db.WithContext(ctx).Create(&tpl).Error; err != nil {
		Internal(c, "failed to create template")
		return
	}
	c.JSON(http.StatusCreated, newTemplateDetail(tpl))
}

// UpdateTemplate replaces a non-permanent catalog entry (admin only).
// Permanent templates are code-defined and resynced at startup, so edits to
// them would silently vanish; reject instead.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id := c.Param("id")
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.ID != id {
		BadRequest(c, "template id in body must match path")
		return
	}

	if err := vetTemplateMarkup(req.HTML, req.CSS); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "template markup rejected: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	var tpl database.Template
	if err := h.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to load template")
		return
	}
	if tpl.Permanent {
		Forbidden(c, "permanent templates cannot be edited")
		return
	}

	updates := map[string]any{
		"name":     req.Name,
		"category": req.Category,
		"premium":  req.Premium,
		"html":     req.HTML,
		"css":      req.CSS,
	}
	if err := h.db.WithContext(ctx).Model(&tpl).Updates(updates).Error; err != nil {
		Internal(c, "failed to update template")
		return
	}
	if err := h.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		Internal(c, "failed to reload template")
		return
	}
	c.JSON(http.StatusOK, newTemplateDetail(tpl))
}

// DeleteTemplate removes a non-permanent catalog entry (admin only).
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()

	var tpl database.Template
	if err := h.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to load template")
		return
	}
	if tpl.Permanent {
		Forbidden(c, "permanent templates cannot be deleted")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&database.Template{}, "id = ?", id).Error; err != nil {
		Internal(c, "failed to delete template")
		return
	}
	c.Status(http.StatusNoContent)
}

func newTemplateDetail(t database.Template) templateDetailResponse {
	return templateDetailResponse{
		ID:        t.ID,
		Name:      t.Name,
		Category:  t.Category,
		Premium:   t.Premium,
		Permanent: t.Permanent,
		HTML:      t.HTML,
		CSS:       t.CSS,
	}
}
