package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// The DOCX emitter is template-agnostic: it lays the normalized record out as
// a flowed document (name heading, contact line, then summary / experience /
// education / skills) regardless of which HTML template the CV uses.
//
// The package is a minimal OOXML container: [Content_Types].xml, the package
// relationships, and word/document.xml, zipped in that order.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

var (
	lineBreakTagRe = regexp.MustCompile(`(?i)<\s*(?:br\s*/?|/p|/div|/ul|/ol)\s*>`)
	listItemTagRe  = regexp.MustCompile(`(?i)<\s*li[^>]*>`)

	stripTagsPolicy = bluemonday.StrictPolicy()
)

// RenderDOCX produces the record as DOCX bytes. HTML markup embedded in the
// string fields (line-break tags, list items) is translated to paragraphs and
// bullet lines; no raw tags survive into the document text.
func RenderDOCX(rec Record) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	name := rec.FullName
	if strings.TrimSpace(name) == "" {
		name = "Name"
	}
	writeDocxParagraph(&doc, name, 40, true)

	var contactParts []string
	for _, part := range []string{rec.Email, rec.Phone} {
		if part = strings.TrimSpace(part); part != "" {
			contactParts = append(contactParts, part)
		}
	}
	if len(contactParts) > 0 {
		writeDocxParagraph(&doc, strings.Join(contactParts, " | "), 22, false)
	}

	sections := []struct {
		heading string
		text    string
	}{
		{"Summary", rec.Summary},
		{"Experience", rec.Experience},
		{"Education", rec.Education},
	}
	for _, section := range sections {
		lines := htmlToLines(section.text)
		if len(lines) == 0 {
			continue
		}
		writeDocxParagraph(&doc, section.heading, 28, true)
		for _, line := range lines {
			writeDocxParagraph(&doc, line, 22, false)
		}
	}

	if len(rec.Skills) > 0 {
		writeDocxParagraph(&doc, "Skills", 28, true)
		writeDocxParagraph(&doc, strings.Join(rec.Skills, ", "), 22, false)
	}

	doc.WriteString(`<w:sectPr/></w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", doc.String()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create docx part %q: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write docx part %q: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx package: %w", err)
	}
	return buf.Bytes(), nil
}

// writeDocxParagraph emits one <w:p>; size is in half-points.
func writeDocxParagraph(doc *strings.Builder, text string, size int, bold bool) {
	doc.WriteString(`<w:p><w:r><w:rPr>`)
	if bold {
		doc.WriteString(`<w:b/>`)
	}
	fmt.Fprintf(doc, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, size, size)
	doc.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	doc.WriteString(escapeXML(text))
	doc.WriteString(`</w:t></w:r></w:p>`)
}

// htmlToLines flattens rich-text field content into plain paragraph lines.
// Break and list tags become line boundaries, list items keep a bullet
// marker, and every other tag is stripped.
func htmlToLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	text = lineBreakTagRe.ReplaceAllString(text, "\n")
	text = listItemTagRe.ReplaceAllString(text, "\n• ")
	text = stripTagsPolicy.Sanitize(text)
	text = html.UnescapeString(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
