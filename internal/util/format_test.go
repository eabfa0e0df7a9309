package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateWidth(t *testing.T) {
	assert.Equal(t, "short", TruncateWidth("short", 20))
	assert.Equal(t, "a\\nb", TruncateWidth("a\nb", 20), "newlines are escaped for single-line logs")

	long := strings.Repeat("x", 200)
	got := TruncateWidth(long, 120)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 120)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple-session", "simple-session"},
		{"2025-08-23T10.00.00-abc", "2025-08-23T10.00.00-abc"},
		{"a/b:c d", "a_b_c_d"},
		{"über-Session", "über-Session"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input: %q", tt.in)
	}
}
