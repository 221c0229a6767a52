package render

import (
	"regexp"
	"testing"
)

var bareHexRe = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

func TestSanitizeHexAcceptsPrefixedAndQuoted(t *testing.T) {
	cases := map[string]string{
		"#2c3e50":   "2c3e50",
		"2c3e50":    "2c3e50",
		`"#2c3e50"`: "2c3e50",
		"'1a2b3c'":  "1a2b3c",
		"##2c3e50":  "2c3e50",
		" #ABCDEF ": "ABCDEF",
	}
	for input, want := range cases {
		if got := SanitizeHex(input, DefaultTextColor); got != want {
			t.Errorf("SanitizeHex(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizeHexExpandsShorthand(t *testing.T) {
	if got := SanitizeHex("#abc", DefaultTextColor); got != "aabbcc" {
		t.Fatalf("SanitizeHex(#abc) = %q, want aabbcc", got)
	}
	if got := SanitizeHex("F0A", DefaultTextColor); got != "FF00AA" {
		t.Fatalf("SanitizeHex(F0A) = %q, want FF00AA", got)
	}
}

func TestSanitizeHexFallsBackOnGarbage(t *testing.T) {
	for _, input := range []string{
		"", "#", "red", "var(--primary)", "rgb(1,2,3)", "12345", "1234567", "#zzz", "abcd",
	} {
		if got := SanitizeHex(input, DefaultAccentColor); got != DefaultAccentColor {
			t.Errorf("SanitizeHex(%q) = %q, want fallback %q", input, got, DefaultAccentColor)
		}
	}
}

func TestSanitizeHexIsTotalAndIdempotent(t *testing.T) {
	inputs := []string{"", "#abc", "##fff", "not a color", "var(--x)", "123456", `"#ABCDEF"`}
	for _, input := range inputs {
		once := SanitizeHex(input, DefaultTextColor)
		if !bareHexRe.MatchString(once) {
			t.Errorf("SanitizeHex(%q) = %q, not a bare 6-digit hex value", input, once)
		}
		if twice := SanitizeHex(once, DefaultTextColor); twice != once {
			t.Errorf("SanitizeHex not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestSanitizeHexNeverReturnsHashInFallback(t *testing.T) {
	if got := SanitizeHex("nope", "#2c3e50"); got != "2c3e50" {
		t.Fatalf("fallback with hash prefix leaked through: %q", got)
	}
}

func TestSanitizeFontFamilyStripsBreakoutCharacters(t *testing.T) {
	got := SanitizeFontFamily(`Arial"; background: url(evil)`)
	if regexp.MustCompile(`[";]`).MatchString(got) {
		t.Fatalf("breakout characters survived: %q", got)
	}
	if got != DefaultFontFamily {
		t.Fatalf("unsafe family should fall back to the default stack, got %q", got)
	}
}

func TestSanitizeFontFamilyDropsOnlyUnsafeFamilies(t *testing.T) {
	got := SanitizeFontFamily(`Helvetica, Evil("x), serif`)
	if got != "Helvetica, serif" {
		t.Fatalf("SanitizeFontFamily = %q, want safe families kept", got)
	}
}

func TestSanitizeFontFamilyQuotesMultiWordNames(t *testing.T) {
	if got := SanitizeFontFamily("Segoe UI, sans-serif"); got != `"Segoe UI", sans-serif` {
		t.Fatalf("SanitizeFontFamily = %q", got)
	}
	if got := SanitizeFontFamily(`'Times New Roman', serif`); got != `"Times New Roman", serif` {
		t.Fatalf("SanitizeFontFamily = %q", got)
	}
	if got := SanitizeFontFamily("Arial, sans-serif"); got != "Arial, sans-serif" {
		t.Fatalf("single-word families should pass through, got %q", got)
	}
}

func TestSanitizeFontFamilyDefaultsWhenEmpty(t *testing.T) {
	if got := SanitizeFontFamily("  "); got != DefaultFontFamily {
		t.Fatalf("SanitizeFontFamily(blank) = %q, want default", got)
	}
	if got := SanitizeFontFamily(`";;"`); got != DefaultFontFamily {
		t.Fatalf("SanitizeFontFamily(only breakout chars) = %q, want default", got)
	}
}
