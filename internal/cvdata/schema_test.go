package cvdata

import (
	"errors"
	"testing"

	"cvstudio/internal/render"
)

func fullPayload() map[string]any {
	return map[string]any{
		"full_name":  "Ana Lee",
		"email":      "ana@example.com",
		"phone":      "555-0100",
		"job_title":  "Engineer",
		"summary":    "Builds things.",
		"experience": "Acme, 2020-2024",
		"education":  "BSc",
		"skills":     []any{"Go", "SQL"},
	}
}

func TestValidateAcceptsCompletePayload(t *testing.T) {
	if err := Validate(render.Canonical(fullPayload())); err != nil {
		t.Fatalf("complete payload should validate, got %v", err)
	}
}

func TestValidateAcceptsCamelCaseAliases(t *testing.T) {
	doc := fullPayload()
	delete(doc, "full_name")
	delete(doc, "job_title")
	doc["fullName"] = "Ana Lee"
	doc["jobTitle"] = "Engineer"

	if err := Validate(render.Canonical(doc)); err != nil {
		t.Fatalf("camelCase aliases should validate, got %v", err)
	}
}

func TestValidateAcceptsCommaJoinedSkills(t *testing.T) {
	doc := fullPayload()
	doc["skills"] = "Go, SQL"

	if err := Validate(render.Canonical(doc)); err != nil {
		t.Fatalf("comma-joined skills should validate, got %v", err)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	doc := fullPayload()
	delete(doc, "email")

	var verr *ValidationError
	if err := Validate(render.Canonical(doc)); !errors.As(err, &verr) {
		t.Fatalf("missing required field should be a ValidationError, got %v", err)
	} else if len(verr.Fields) == 0 {
		t.Error("validation error should name the failing field")
	}
}

func TestValidateRejectsWrongTypes(t *testing.T) {
	doc := fullPayload()
	doc["skills"] = map[string]any{"oops": true}

	err := Validate(render.Canonical(doc))
	if err == nil {
		t.Fatal("wrong skills type should be rejected")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %T", err)
	}
}

func TestValidateRejectsNonStringSummary(t *testing.T) {
	doc := fullPayload()
	doc["summary"] = 12345

	if err := Validate(render.Canonical(doc)); err == nil {
		t.Fatal("numeric summary should be rejected")
	}
}

func TestValidateIgnoresUnknownKeys(t *testing.T) {
	doc := fullPayload()
	doc["favorite_color"] = map[string]any{"nested": true}

	if err := Validate(render.Canonical(doc)); err != nil {
		t.Fatalf("unknown keys should be dropped before validation, got %v", err)
	}
}
