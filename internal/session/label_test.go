package session

import (
	"strings"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"control chars dropped", " A\nB\rC\tD\x00 ", 100, "ABCD"},
		{"allowed chars kept", "Clip 01 (9:16) - v2.final", 100, "Clip 01 (9:16) - v2.final"},
		{"unsafe replaced", "a/b\\c<d>", 100, "a_b_c_d_"},
		{"truncated", "abcdefghijklmnopqrstuvwxyz", 10, "abcdefghij"},
		{"unicode letters", "영상 편집", 100, "영상 편집"},
		{"unlimited", strings.Repeat("x", 300), 0, strings.Repeat("x", 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("SanitizeLabel(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
