package render

import (
	"strings"
	"testing"
)

func testRecord() Record {
	return Normalize(map[string]any{
		"full_name":  "Ana Lee",
		"email":      "a@x.com",
		"phone":      "555",
		"job_title":  "Engineer",
		"summary":    "S",
		"experience": "E",
		"education":  "Ed",
		"skills":     []any{"Go", "SQL"},
	})
}

func TestExpandLiteralTemplateUnchanged(t *testing.T) {
	html := "<div class=\"cv\"><p>static</p></div>"
	css := ".cv { margin: 0; }"
	gotHTML, gotCSS, err := Expand(html, css, testRecord())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != html {
		t.Errorf("html changed: %q", gotHTML)
	}
	if gotCSS != css {
		t.Errorf("css changed: %q", gotCSS)
	}
}

func TestExpandScalarSubstitution(t *testing.T) {
	gotHTML, _, err := Expand("<h1>{{full_name}}</h1>", "", testRecord())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "<h1>Ana Lee</h1>" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandEscapesHTMLButNotCSS(t *testing.T) {
	rec := Normalize(map[string]any{"summary": `<b>&"bold"</b>`})
	gotHTML, gotCSS, err := Expand("{{summary}}", "/* {{summary}} */", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if strings.Contains(gotHTML, "<b>") {
		t.Errorf("html not escaped: %q", gotHTML)
	}
	if !strings.Contains(gotCSS, `<b>&"bold"</b>`) {
		t.Errorf("css should be raw: %q", gotCSS)
	}
}

func TestExpandTripleRaw(t *testing.T) {
	rec := Normalize(map[string]any{"experience": "<ul><li>shipped</li></ul>"})
	gotHTML, _, err := Expand("{{{experience}}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "<ul><li>shipped</li></ul>" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandListSection(t *testing.T) {
	gotHTML, _, err := Expand("{{#skills}}<li>{{.}}</li>{{/skills}}", "", testRecord())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "<li>Go</li><li>SQL</li>" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandEmptyListSectionOmitted(t *testing.T) {
	rec := Normalize(map[string]any{"skills": []any{}})
	gotHTML, _, err := Expand("before{{#skills}}<li>{{.}}</li>{{/skills}}after", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "beforeafter" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandTruthyScalarSectionRendersOnce(t *testing.T) {
	rec := Normalize(map[string]any{"profile_image": "https://img.example/p.png"})
	gotHTML, _, err := Expand("{{#profile_image}}<img src=\"{{profile_image}}\"/>{{/profile_image}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != `<img src="https://img.example/p.png"/>` {
		t.Errorf("got %q", gotHTML)
	}

	empty := Normalize(map[string]any{})
	gotHTML, _, err = Expand("{{#profile_image}}<img/>{{/profile_image}}", "", empty)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "" {
		t.Errorf("falsy section should be omitted, got %q", gotHTML)
	}
}

func TestExpandNestedSection(t *testing.T) {
	rec := Normalize(map[string]any{
		"profile_image": "p.png",
		"skills":        "Go",
	})
	tmpl := "{{#profile_image}}{{#skills}}[{{.}}]{{/skills}}{{/profile_image}}"
	gotHTML, _, err := Expand(tmpl, "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "[Go]" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandUnknownPlaceholderIsEmpty(t *testing.T) {
	gotHTML, _, err := Expand("a{{no_such_field}}b{{{also_missing}}}c", "", testRecord())
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "abc" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandUnbalancedSectionFails(t *testing.T) {
	if _, _, err := Expand("{{#skills}}<li>{{.}}</li>", "", testRecord()); err == nil {
		t.Error("missing closing tag should fail")
	}
	if _, _, err := Expand("<li>{{.}}</li>{{/skills}}", "", testRecord()); err == nil {
		t.Error("stray closing tag should fail")
	}
}

func TestExpandValueTextStaysLiteral(t *testing.T) {
	rec := Normalize(map[string]any{
		"email":      "a@x.com",
		"experience": "worked on {{email}} parsing",
		"summary":    "see {{{experience}}} above",
		"skills":     []any{"Go {{email}}"},
	})

	gotHTML, _, err := Expand("{{#skills}}<li>{{.}}</li>{{/skills}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "<li>Go {{email}}</li>" {
		t.Errorf("list item was rewritten: %q", gotHTML)
	}

	gotHTML, _, err = Expand("{{{experience}}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "worked on {{email}} parsing" {
		t.Errorf("raw value was rewritten: %q", gotHTML)
	}

	gotHTML, _, err = Expand("{{summary}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "see {{{experience}}} above" {
		t.Errorf("scalar value was rewritten: %q", gotHTML)
	}
}

func TestExpandSectionMarkersInValuesDoNotFail(t *testing.T) {
	rec := Normalize(map[string]any{"skills": []any{"{{#oops}}"}})
	gotHTML, _, err := Expand("{{#skills}}<li>{{.}}</li>{{/skills}}", "", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if gotHTML != "<li>{{#oops}}</li>" {
		t.Errorf("got %q", gotHTML)
	}
}

func TestExpandColorsIntoCSS(t *testing.T) {
	rec := Normalize(map[string]any{"accentColor": "#ABC"})
	_, gotCSS, err := Expand("", "h2 { color: #{{accent_color}}; }", rec)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if strings.Count(gotCSS, "#AABBCC")+strings.Count(gotCSS, "#aabbcc") != 1 {
		t.Errorf("css = %q, want exactly one #aabbcc", gotCSS)
	}
	if strings.Contains(gotCSS, "##") {
		t.Errorf("css contains double hash: %q", gotCSS)
	}
}

func TestCleanCSSCollapsesHashRuns(t *testing.T) {
	if got := CleanCSS("color: ##2c3e50;"); got != "color: #2c3e50;" {
		t.Errorf("got %q", got)
	}
	if got := CleanCSS("color: ####fff;"); got != "color: #fff;" {
		t.Errorf("got %q", got)
	}
}

func TestCleanCSSRepairsEmptyColorValues(t *testing.T) {
	if got := CleanCSS("color: ;"); !strings.Contains(got, "#"+DefaultTextColor) {
		t.Errorf("empty value not repaired: %q", got)
	}
	if got := CleanCSS("color:#;"); !strings.Contains(got, "#"+DefaultTextColor) {
		t.Errorf("empty hash value not repaired: %q", got)
	}
}
