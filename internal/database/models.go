package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Export lifecycle values for CV.ExportStatus.
const (
	ExportStatusNone       = ""
	ExportStatusQueued     = "queued"
	ExportStatusProcessing = "processing"
	ExportStatusDone       = "done"
	ExportStatusFailed     = "failed"
)

// User is an account. Email doubles as the login identifier.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	FullName     string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255"`
	CVs          []CV   `gorm:"constraint:OnDelete:CASCADE"`
}

// CV is one stored resume. Data holds the normalized field map as JSON;
// TemplateID references the catalog entry used for rendering.
type CV struct {
	gorm.Model
	Title        string         `gorm:"size:255"`
	Data         datatypes.JSON `gorm:"type:jsonb"`
	TemplateID   string         `gorm:"size:64;index"`
	UserID       uint           `gorm:"index"`
	User         User           `gorm:"constraint:OnDelete:CASCADE"`
	PdfObjectKey string         `gorm:"size:512"`
	ExportStatus string         `gorm:"size:32"`
}

// Template is a renderable template: a Mustache-style HTML fragment plus its
// stylesheet. Permanent rows form the built-in catalog and are reseeded at
// startup; admin-created rows have Permanent false.
type Template struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255"`
	Category  string `gorm:"size:64"`
	Premium   bool   `gorm:"default:false"`
	Permanent bool   `gorm:"default:false"`
	HTML      string `gorm:"type:text"`
	CSS       string `gorm:"type:text"`
}
