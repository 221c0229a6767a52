package render

import (
	"fmt"
	"html"
	"strings"
)

// printColorAdjust keeps background colors intact when the document is later
// rasterized to PDF.
const printColorAdjust = "body { -webkit-print-color-adjust: exact; print-color-adjust: exact; margin: 0; }"

// RenderHTML expands the template pair against the record and wraps the
// result in a complete document shell. It never fails: if expansion errors
// (malformed section markers), the body is replaced with a diagnostic
// fragment describing the problem.
func RenderHTML(htmlTmpl, cssTmpl string, rec Record) string {
	body, css, err := Expand(htmlTmpl, cssTmpl, rec)
	if err != nil {
		body = DiagnosticHTML(err)
		css = ""
	}
	return WrapDocument(body, css)
}

// WrapDocument builds the standalone HTML document around an expanded body
// and stylesheet.
func WrapDocument(body, css string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString(css)
	if css != "" && !strings.HasSuffix(css, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(printColorAdjust)
	b.WriteString("\n</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// DiagnosticHTML renders an expansion error as a visible document body so
// export endpoints degrade to "this failed, here's why" instead of a 500.
func DiagnosticHTML(err error) string {
	return fmt.Sprintf("<h1>Error generating preview</h1>\n<pre>%s</pre>", html.EscapeString(err.Error()))
}
