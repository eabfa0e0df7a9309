package util

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// TruncateWidth shortens s to at most width terminal cells, appending an
// ellipsis when content was cut. Used for quoting transcript fragments in
// diagnostics without flooding the error log.
func TruncateWidth(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// SanitizeFilename maps a session identifier to a safe filename component.
// Alphanumerics plus "-", "_" and "." pass through; everything else becomes
// an underscore.
func SanitizeFilename(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, ch := range value {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' || ch == '_' || ch == '.' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
