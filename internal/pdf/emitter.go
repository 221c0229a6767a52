package pdf

import (
	"context"
	"log/slog"
	"strconv"

	"cvstudio/internal/render"
)

// Render turns a template pair plus a normalized record into PDF bytes. The
// happy path goes through headless Chromium; if the browser is unavailable or
// the print fails, a diagnostic page is produced instead so the export always
// yields a valid PDF.
func Render(ctx context.Context, htmlTmpl, cssTmpl string, rec render.Record) ([]byte, error) {
	doc := render.RenderHTML(htmlTmpl, cssTmpl, rec)

	data, err := FromHTML(ctx, doc)
	if err == nil {
		return data, nil
	}

	slog.Error("chromium render failed, falling back to diagnostic page", "error", err)
	return Diagnostic(err.Error(), map[string]string{
		"accent_color": "#" + rec.AccentColor,
		"text_color":   "#" + rec.TextColor,
		"font_family":  rec.FontFamily,
		"template_len": strconv.Itoa(len(htmlTmpl)),
	})
}
