package render

// Single source of truth for fallback style and content values. Both the
// HTML and PDF paths read from here, so a malformed record degrades the same
// way regardless of the output format.
const (
	DefaultAccentColor = "2c3e50"
	DefaultTextColor   = "333333"
	DefaultFontFamily  = "Arial, sans-serif"
	DefaultTemplateID  = "modern"

	defaultInitials = "??"
)
