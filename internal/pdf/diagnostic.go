package pdf

import (
	"bytes"
	"fmt"
	"sort"

	gofpdf "github.com/lvillar/gofpdf"
)

// Diagnostic builds a single-page PDF describing a failed render. Export
// callers return it in place of the real document so the user downloads an
// explanation instead of getting a 500.
func Diagnostic(reason string, details map[string]string) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, "PDF generation failed", "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, reason, "", "L", false)
	doc.Ln(4)

	if len(details) > 0 {
		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(0, 8, "Render context", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		for _, key := range sortedKeys(details) {
			doc.MultiCell(0, 5, fmt.Sprintf("%s: %s", key, details[key]), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write diagnostic pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
