package catalog

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cvstudio/internal/database"
	"cvstudio/internal/render"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Template{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPermanentSet(t *testing.T) {
	templates := Permanent()
	want := map[string]bool{"modern": false, "classic": false, "startup_bold": true}
	if len(templates) != len(want) {
		t.Fatalf("got %d templates, want %d", len(templates), len(want))
	}
	for _, tpl := range templates {
		premium, ok := want[tpl.ID]
		if !ok {
			t.Errorf("unexpected template %q", tpl.ID)
			continue
		}
		if tpl.Premium != premium {
			t.Errorf("%s premium = %v, want %v", tpl.ID, tpl.Premium, premium)
		}
		if !tpl.Permanent {
			t.Errorf("%s must be marked permanent", tpl.ID)
		}
		if tpl.HTML == "" || tpl.CSS == "" {
			t.Errorf("%s missing html or css", tpl.ID)
		}
	}
}

func TestPermanentTemplatesExpandCleanly(t *testing.T) {
	rec := render.Normalize(map[string]any{
		"full_name":     "Ana Lee",
		"email":         "ana@example.com",
		"phone":         "555-0100",
		"job_title":     "Engineer",
		"summary":       "<p>Builds things.</p>",
		"experience":    "<p>Led team.</p>",
		"education":     "<p>BSc.</p>",
		"skills":        []any{"Go", "SQL"},
		"profile_image": "https://img.example/p.png",
		"accentColor":   "#ABC",
	})
	for _, tpl := range Permanent() {
		body, css, err := render.Expand(tpl.HTML, tpl.CSS, rec)
		if err != nil {
			t.Fatalf("%s: expand: %v", tpl.ID, err)
		}
		for name, out := range map[string]string{"html": body, "css": css} {
			if strings.Contains(out, "{{") {
				t.Errorf("%s: unexpanded placeholder in %s", tpl.ID, name)
			}
		}
		if strings.Contains(css, "##") {
			t.Errorf("%s: double hash in css", tpl.ID)
		}
		if !strings.Contains(body, "Ana Lee") {
			t.Errorf("%s: name missing from body", tpl.ID)
		}
	}
}

func TestSyncSeedsAndHealsRows(t *testing.T) {
	db := openTestDB(t)

	if err := Sync(db); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	var count int64
	db.Model(&database.Template{}).Count(&count)
	if count != 3 {
		t.Fatalf("template count = %d, want 3", count)
	}

	// Corrupt a permanent row; the next sync must restore it.
	if err := db.Model(&database.Template{}).Where("id = ?", "modern").
		Update("html", "broken").Error; err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	if err := Sync(db); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	var tpl database.Template
	if err := db.First(&tpl, "id = ?", "modern").Error; err != nil {
		t.Fatalf("load template: %v", err)
	}
	if tpl.HTML == "broken" {
		t.Error("sync did not heal the corrupted row")
	}
	if tpl.Name != "Modern Blue" {
		t.Errorf("Name = %q", tpl.Name)
	}
}

func TestSyncPreservesAdminTemplates(t *testing.T) {
	db := openTestDB(t)
	custom := database.Template{ID: "custom", Name: "Custom", HTML: "<div>{{full_name}}</div>", CSS: ""}
	if err := db.Create(&custom).Error; err != nil {
		t.Fatalf("create custom template: %v", err)
	}

	if err := Sync(db); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var got database.Template
	if err := db.First(&got, "id = ?", "custom").Error; err != nil {
		t.Fatalf("custom template lost: %v", err)
	}
}
