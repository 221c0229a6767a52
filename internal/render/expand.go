package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Placeholder grammar:
//
//	{{field}}            scalar, HTML-escaped in markup, raw in CSS
//	{{{field}}}          scalar, never escaped
//	{{#field}}…{{/field}} repeated for list fields ({{.}} is the element),
//	                     rendered once for truthy scalars, dropped otherwise
//
// Unknown fields expand to the empty string. Unbalanced section markers are
// the only expansion error, and only template text can raise it: substituted
// values go straight to the output and are never rescanned, so
// placeholder-looking text inside record data stays literal.
var (
	tripleVarRe    = regexp.MustCompile(`^\{\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}\}`)
	sectionOpenRe  = regexp.MustCompile(`^\{\{#\s*([a-zA-Z0-9_.]+)\s*\}\}`)
	sectionCloseRe = regexp.MustCompile(`\{\{/\s*([a-zA-Z0-9_.]+)\s*\}\}`)
	dotVarRe       = regexp.MustCompile(`^\{\{\s*\.\s*\}\}`)
	doubleVarRe    = regexp.MustCompile(`^\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

	multiHashRe  = regexp.MustCompile(`#{2,}`)
	emptyColorRe = regexp.MustCompile(`:\s*#?\s*;`)
)

// Expand substitutes a normalized record into an HTML template and a CSS
// template. HTML output is entity-escaped per placeholder rules; CSS output is
// substituted raw and then repaired so that template/data mismatches can
// never leave syntactically broken declarations behind.
func Expand(htmlTmpl, cssTmpl string, rec Record) (string, string, error) {
	ctx := rec.TemplateContext()

	body, err := expandFragment(htmlTmpl, ctx, true, nil)
	if err != nil {
		return "", "", fmt.Errorf("expand html template: %w", err)
	}

	css, err := expandFragment(cssTmpl, ctx, false, nil)
	if err != nil {
		return "", "", fmt.Errorf("expand css template: %w", err)
	}

	return body, CleanCSS(css), nil
}

// CleanCSS is the post-substitution repair pass: runs of "#" collapse to one,
// and declarations whose value ended up empty (`color: ;`, `color: #;`) are
// rewritten to the default text color.
func CleanCSS(css string) string {
	css = multiHashRe.ReplaceAllString(css, "#")
	css = emptyColorRe.ReplaceAllString(css, ": #"+DefaultTextColor+";")
	return css
}

// expandFragment walks the template left to right, splicing record values
// directly into the output. dot carries the current list element inside a
// section body; it is nil outside of sections.
func expandFragment(tmpl string, ctx map[string]any, escape bool, dot *string) (string, error) {
	var out strings.Builder

	for {
		i := strings.Index(tmpl, "{{")
		if i < 0 {
			out.WriteString(tmpl)
			return out.String(), nil
		}
		out.WriteString(tmpl[:i])
		tmpl = tmpl[i:]

		if m := tripleVarRe.FindStringSubmatch(tmpl); m != nil {
			out.WriteString(scalarValue(ctx, m[1]))
			tmpl = tmpl[len(m[0]):]
			continue
		}

		if m := sectionOpenRe.FindStringSubmatchIndex(tmpl); m != nil {
			name := tmpl[m[2]:m[3]]
			rest := tmpl[m[1]:]
			closeLoc := findSectionClose(rest, name)
			if closeLoc == nil {
				return "", fmt.Errorf("unbalanced section: {{#%s}} has no closing tag", name)
			}
			rendered, err := renderSection(name, rest[:closeLoc[0]], ctx, escape, dot)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			tmpl = rest[closeLoc[1]:]
			continue
		}

		if loc := sectionCloseRe.FindStringIndex(tmpl); loc != nil && loc[0] == 0 {
			return "", fmt.Errorf("unbalanced section: %s has no opening tag", tmpl[:loc[1]])
		}

		if loc := dotVarRe.FindStringIndex(tmpl); loc != nil {
			if dot != nil {
				value := *dot
				if escape {
					value = html.EscapeString(value)
				}
				out.WriteString(value)
			}
			tmpl = tmpl[loc[1]:]
			continue
		}

		if m := doubleVarRe.FindStringSubmatch(tmpl); m != nil {
			value := scalarValue(ctx, m[1])
			if escape {
				value = html.EscapeString(value)
			}
			out.WriteString(value)
			tmpl = tmpl[len(m[0]):]
			continue
		}

		// A "{{" that opens no recognized token stays literal.
		out.WriteString("{{")
		tmpl = tmpl[2:]
	}
}

// findSectionClose locates the close tag for name, skipping close tags that
// belong to other sections.
func findSectionClose(s, name string) []int {
	for _, loc := range sectionCloseRe.FindAllStringSubmatchIndex(s, -1) {
		if s[loc[2]:loc[3]] == name {
			return []int{loc[0], loc[1]}
		}
	}
	return nil
}

func renderSection(name, body string, ctx map[string]any, escape bool, dot *string) (string, error) {
	value, ok := ctx[name]
	if !ok || value == nil {
		return "", nil
	}

	switch v := value.(type) {
	case []string:
		if len(v) == 0 {
			return "", nil
		}
		var b strings.Builder
		for i := range v {
			expanded, err := expandFragment(body, ctx, escape, &v[i])
			if err != nil {
				return "", err
			}
			b.WriteString(expanded)
		}
		return b.String(), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		return expandFragment(body, ctx, escape, dot)
	case bool:
		if !v {
			return "", nil
		}
		return expandFragment(body, ctx, escape, dot)
	default:
		return "", nil
	}
}

// scalarValue renders a context entry as text; list fields referenced as
// scalars join with ", ".
func scalarValue(ctx map[string]any, name string) string {
	value, ok := ctx[name]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
