package turn

import (
	"strings"
)

// IsPlanUpdate reports whether a reasoning summary looks like a checklist or
// plan mutation rather than free-form reasoning. Best-effort string matching;
// misclassifications only move text between two arrays of the same record.
func IsPlanUpdate(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "updated plan") || strings.Contains(lowered, "plan updated") {
		return true
	}
	if strings.HasPrefix(lowered, "plan:") || strings.HasPrefix(lowered, "updated checklist") {
		return true
	}
	if strings.Contains(lowered, "checklist") || strings.Contains(lowered, "todo") {
		return true
	}
	// Checkbox markers: markdown task lists and the box-drawing glyph the
	// runtime renders plan items with.
	if strings.Contains(text, "- [") || strings.Contains(text, "□") {
		return true
	}
	return false
}
