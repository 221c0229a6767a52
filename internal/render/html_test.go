package render

import (
	"strings"
	"testing"
)

func TestRenderHTMLFullDocument(t *testing.T) {
	rec := Normalize(map[string]any{
		"fullName":    "Ana Lee",
		"jobTitle":    "Engineer",
		"skills":      []any{"Go", "SQL"},
		"accentColor": "#ABC",
	})
	doc := RenderHTML(
		"<h1>{{full_name}}</h1><p>{{job_title}}</p><ul>{{#skills}}<li>{{.}}</li>{{/skills}}</ul>",
		"h1 { color: #{{accent_color}}; font-family: {{font_family}}; }",
		rec,
	)

	if !strings.HasPrefix(doc, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %q", doc[:min(len(doc), 40)])
	}
	for _, want := range []string{
		"<h1>Ana Lee</h1>",
		"<p>Engineer</p>",
		"<li>Go</li><li>SQL</li>",
		"#AABBCC",
		DefaultFontFamily,
		"print-color-adjust: exact",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "{{") {
		t.Errorf("unexpanded placeholder left in document:\n%s", doc)
	}
	if strings.Contains(doc, "##") {
		t.Errorf("double hash left in document:\n%s", doc)
	}
}

func TestRenderHTMLMissingListRendersClean(t *testing.T) {
	rec := Normalize(map[string]any{"full_name": "Ana"})
	doc := RenderHTML("<ul>{{#skills}}<li>{{.}}</li>{{/skills}}</ul>", "", rec)
	if !strings.Contains(doc, "<ul></ul>") {
		t.Errorf("empty list section should collapse: %q", doc)
	}
	if strings.Contains(doc, "{{") {
		t.Errorf("unexpanded placeholder: %q", doc)
	}
}

func TestRenderHTMLDegradesToDiagnostic(t *testing.T) {
	doc := RenderHTML("{{#skills}}no close", "", testRecord())
	if !strings.Contains(doc, "Error generating preview") {
		t.Fatalf("diagnostic body missing: %q", doc)
	}
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") {
		t.Errorf("diagnostic should still be a full document")
	}
}

func TestDiagnosticHTMLEscapesErrorText(t *testing.T) {
	got := DiagnosticHTML(errFake("<script>boom</script>"))
	if strings.Contains(got, "<script>") {
		t.Fatalf("error text not escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped entities: %q", got)
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }
