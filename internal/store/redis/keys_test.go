package redis

import "testing"

func TestTitleKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"movie:438631", "homedash:title:movie:438631"},
		{"tv:1399", "homedash:title:tv:1399"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := TitleKey(tt.key); got != tt.expected {
				t.Errorf("TitleKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}
