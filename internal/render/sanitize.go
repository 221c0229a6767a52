package render

import (
	"regexp"
	"strings"
)

var (
	hexColorRe = regexp.MustCompile(`^[0-9a-fA-F]{3}([0-9a-fA-F]{3})?$`)

	fontFamilyNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _.-]*$`)
)

// SanitizeHex canonicalizes a user-supplied color into a bare six-digit hex
// string. Quotes and any number of "#" prefixes are stripped; 3-digit values
// are expanded by doubling each digit. Anything that is not a 3- or 6-digit
// hex value (CSS functions, var() references, empty input) yields the
// fallback. The result never contains "#", so stylesheets are expected to
// write the prefix themselves, e.g. `color: #{{accent_color}}`.
func SanitizeHex(value, fallback string) string {
	v := strings.TrimSpace(value)
	v = strings.Trim(v, `"'`)
	v = strings.ReplaceAll(v, "#", "")
	v = strings.TrimSpace(v)

	if !hexColorRe.MatchString(v) {
		fb := strings.ReplaceAll(strings.TrimSpace(fallback), "#", "")
		if fb == "" {
			return DefaultTextColor
		}
		return fb
	}

	if len(v) == 3 {
		var b strings.Builder
		b.Grow(6)
		for _, r := range v {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return b.String()
	}
	return v
}

// SanitizeFontFamily validates a comma-separated font stack. Each family may
// carry one pair of surrounding quotes; after unquoting, a name is accepted
// only if it consists of letters, digits, spaces, hyphens, underscores and
// dots. Anything else (semicolons, braces, parentheses, embedded quotes) is
// dropped outright rather than stripped, so a hostile value can never be
// reassembled into something that escapes the declaration. Accepted
// multi-word names are re-quoted; an empty result yields the default stack.
func SanitizeFontFamily(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return DefaultFontFamily
	}

	families := strings.Split(v, ",")
	cleaned := make([]string, 0, len(families))
	for _, f := range families {
		f = strings.TrimSpace(trimMatchingQuotes(strings.TrimSpace(f)))
		if f == "" || !fontFamilyNameRe.MatchString(f) {
			continue
		}
		if strings.Contains(f, " ") {
			f = `"` + f + `"`
		}
		cleaned = append(cleaned, f)
	}
	if len(cleaned) == 0 {
		return DefaultFontFamily
	}
	return strings.Join(cleaned, ", ")
}

func trimMatchingQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
