// Package cvdata validates CV payloads before they are persisted.
// Validation failures map to 422 responses.
package cvdata

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// The schema runs against the canonicalized input, before normalization
// fills defaults. Textual fields must arrive as strings; list fields accept
// either a list of strings or one comma-joined string. The color and font
// fields are plain strings here since the sanitizer repairs those later
// rather than rejecting them.
const recordSchema = `{
	"type": "object",
	"properties": {
		"full_name":     {"type": "string"},
		"email":         {"type": "string"},
		"phone":         {"type": "string"},
		"job_title":     {"type": "string"},
		"summary":       {"type": "string"},
		"experience":    {"type": "string"},
		"education":     {"type": "string"},
		"location":      {"type": "string"},
		"linkedin":      {"type": "string"},
		"github":        {"type": "string"},
		"portfolio":     {"type": "string"},
		"profile_image": {"type": "string"},
		"accent_color":  {"type": "string"},
		"text_color":    {"type": "string"},
		"font_family":   {"type": "string"},
		"skills":         {"anyOf": [{"type": "array", "items": {"type": "string"}}, {"type": "string"}]},
		"languages":      {"anyOf": [{"type": "array", "items": {"type": "string"}}, {"type": "string"}]},
		"certifications": {"anyOf": [{"type": "array", "items": {"type": "string"}}, {"type": "string"}]},
		"hobbies":        {"anyOf": [{"type": "array", "items": {"type": "string"}}, {"type": "string"}]}
	},
	"required": ["full_name", "email", "phone", "job_title", "summary", "experience", "education", "skills"]
}`

var compiledSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		panic(fmt.Sprintf("compile cv record schema: %v", err))
	}
	compiledSchema = schema
}

// ValidationError carries the per-field messages for a rejected payload.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "cv data validation failed: " + strings.Join(e.Fields, "; ")
}

// Validate checks a canonicalized CV document. A non-nil error is always a
// *ValidationError unless the schema engine itself failed.
func Validate(doc map[string]any) error {
	result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("run schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Fields = append(verr.Fields, desc.String())
	}
	return verr
}
