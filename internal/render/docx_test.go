package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

func readDocxPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open docx package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open part %q: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read part %q: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %q not in package", name)
	return ""
}

func TestRenderDOCXPackageShape(t *testing.T) {
	data, err := RenderDOCX(testRecord())
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	// DOCX is a zip; PK magic is the cheapest end-to-end sanity check.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("output is not a zip archive")
	}
	for _, part := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		readDocxPart(t, data, part)
	}
}

func TestRenderDOCXDocumentContent(t *testing.T) {
	rec := Normalize(map[string]any{
		"full_name":  "Ana Lee",
		"email":      "ana@example.com",
		"phone":      "555-0100",
		"summary":    "Builds things.",
		"experience": "Led team<br/>Shipped product",
		"skills":     []any{"Go", "SQL"},
	})
	data, err := RenderDOCX(rec)
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	doc := readDocxPart(t, data, "word/document.xml")

	for _, want := range []string{
		"Ana Lee",
		"ana@example.com | 555-0100",
		"Summary", "Builds things.",
		"Experience", "Led team", "Shipped product",
		"Skills", "Go, SQL",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestRenderDOCXOmitsEmptySections(t *testing.T) {
	rec := Normalize(map[string]any{"full_name": "Ana"})
	data, err := RenderDOCX(rec)
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	doc := readDocxPart(t, data, "word/document.xml")
	for _, heading := range []string{"Summary", "Experience", "Education", "Skills"} {
		if strings.Contains(doc, heading) {
			t.Errorf("empty section %q should be omitted", heading)
		}
	}
}

func TestRenderDOCXStripsMarkup(t *testing.T) {
	rec := Normalize(map[string]any{
		"full_name":  "Ana",
		"experience": `<div class="x"><ul><li>first</li><li>second</li></ul></div>`,
	})
	data, err := RenderDOCX(rec)
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	doc := readDocxPart(t, data, "word/document.xml")

	if strings.Contains(doc, "&lt;div") || strings.Contains(doc, "&lt;ul") || strings.Contains(doc, "&lt;li") {
		t.Errorf("html tags leaked into document text:\n%s", doc)
	}
	if !strings.Contains(doc, "• first") || !strings.Contains(doc, "• second") {
		t.Errorf("list items should become bullet lines:\n%s", doc)
	}
}

func TestRenderDOCXEscapesReservedCharacters(t *testing.T) {
	rec := Normalize(map[string]any{
		"full_name": "A&B",
		"summary":   `uses "quotes" & ampersands`,
	})
	data, err := RenderDOCX(rec)
	if err != nil {
		t.Fatalf("RenderDOCX: %v", err)
	}
	doc := readDocxPart(t, data, "word/document.xml")
	if !strings.Contains(doc, "A&amp;B") {
		t.Errorf("ampersand not escaped in document text")
	}
}

func TestHTMLToLines(t *testing.T) {
	lines := htmlToLines("one<br/>two<br>  <p>ignored open</p>three")
	want := []string{"one", "two", "ignored open", "three"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
