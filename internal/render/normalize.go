package render

import (
	"strconv"
	"strings"
)

// Record is the normalized form of a CV's content. Every string field is
// guaranteed non-nil and every list field is a (possibly empty) slice; the
// color fields hold bare 6-digit hex values.
type Record struct {
	FullName   string
	Email      string
	Phone      string
	JobTitle   string
	Summary    string
	Experience string
	Education  string

	Skills         []string
	Languages      []string
	Certifications []string
	Hobbies        []string

	Location     string
	LinkedIn     string
	GitHub       string
	Portfolio    string
	ProfileImage string

	AccentColor string
	TextColor   string
	FontFamily  string

	Initials string
}

// stringFields maps each logical string field to its accepted source keys,
// canonical snake_case first. The snake_case key wins when both are present.
var stringFields = map[string][]string{
	"full_name":     {"full_name", "fullName"},
	"email":         {"email"},
	"phone":         {"phone"},
	"job_title":     {"job_title", "jobTitle"},
	"summary":       {"summary"},
	"experience":    {"experience"},
	"education":     {"education"},
	"location":      {"location"},
	"linkedin":      {"linkedin", "linkedIn"},
	"github":        {"github", "gitHub"},
	"portfolio":     {"portfolio"},
	"profile_image": {"profile_image", "profileImage"},
	"accent_color":  {"accent_color", "accentColor"},
	"text_color":    {"text_color", "textColor"},
	"font_family":   {"font_family", "fontFamily"},
}

var listFields = map[string][]string{
	"skills":         {"skills"},
	"languages":      {"languages"},
	"certifications": {"certifications"},
	"hobbies":        {"hobbies"},
}

// Normalize converts an arbitrarily-shaped payload (camelCase or snake_case
// keys, lists or comma-joined strings) into a Record. It never fails: missing
// or malformed fields collapse to empty strings, empty lists or the default
// style values, and unrecognized keys are dropped.
func Normalize(raw map[string]any) Record {
	strs := make(map[string]string, len(stringFields))
	for field, keys := range stringFields {
		strs[field] = pickString(raw, keys)
	}

	rec := Record{
		FullName:   strs["full_name"],
		Email:      strs["email"],
		Phone:      strs["phone"],
		JobTitle:   strs["job_title"],
		Summary:    strs["summary"],
		Experience: strs["experience"],
		Education:  strs["education"],

		Skills:         pickList(raw, listFields["skills"]),
		Languages:      pickList(raw, listFields["languages"]),
		Certifications: pickList(raw, listFields["certifications"]),
		Hobbies:        pickList(raw, listFields["hobbies"]),

		Location:     strs["location"],
		LinkedIn:     strs["linkedin"],
		GitHub:       strs["github"],
		Portfolio:    strs["portfolio"],
		ProfileImage: strs["profile_image"],

		AccentColor: SanitizeHex(strs["accent_color"], DefaultAccentColor),
		TextColor:   SanitizeHex(strs["text_color"], DefaultTextColor),
		FontFamily:  SanitizeFontFamily(strs["font_family"]),
	}

	rec.Initials = initialsOf(rec.FullName)
	return rec
}

// Canonical maps a raw payload onto canonical snake_case keys without
// coercing, defaulting or dropping values. The result is what schema
// validation runs against, so wrongly-typed input is still visible there.
func Canonical(raw map[string]any) map[string]any {
	doc := make(map[string]any, len(stringFields)+len(listFields))
	for field, keys := range stringFields {
		for _, key := range keys {
			if v, ok := raw[key]; ok {
				doc[field] = v
				break
			}
		}
	}
	for field, keys := range listFields {
		for _, key := range keys {
			if v, ok := raw[key]; ok {
				doc[field] = v
				break
			}
		}
	}
	return doc
}

func initialsOf(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultInitials
	}
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func pickString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return coerceString(v)
		}
	}
	return ""
}

// pickList accepts a list (elements coerced to trimmed strings), a
// comma-joined string (split, trimmed, empty segments dropped), or anything
// else (empty list).
func pickList(raw map[string]any, keys []string) []string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case []string:
			return trimAll(val)
		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				if s := strings.TrimSpace(coerceString(item)); s != "" {
					items = append(items, s)
				}
			}
			return items
		case string:
			return splitList(val)
		}
	}
	return []string{}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// TemplateContext exposes the record as the flat snake_case mapping consumed
// by the template expander and by the stored-data schema validation.
func (r Record) TemplateContext() map[string]any {
	return map[string]any{
		"full_name":          r.FullName,
		"email":              r.Email,
		"phone":              r.Phone,
		"job_title":          r.JobTitle,
		"summary":            r.Summary,
		"experience":         r.Experience,
		"education":          r.Education,
		"skills":             r.Skills,
		"languages":          r.Languages,
		"certifications":     r.Certifications,
		"hobbies":            r.Hobbies,
		"location":           r.Location,
		"linkedin":           r.LinkedIn,
		"github":             r.GitHub,
		"portfolio":          r.Portfolio,
		"profile_image":      r.ProfileImage,
		"accent_color":       r.AccentColor,
		"text_color":         r.TextColor,
		"font_family":        r.FontFamily,
		"full_name_initials": r.Initials,
	}
}
