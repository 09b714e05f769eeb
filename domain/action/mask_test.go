package action

import "testing"

func TestMaskIdentity(t *testing.T) {
	tests := []struct {
		identity string
		expected string
	}{
		{"johndoe123", "joh***23"},
		{"alice", "ali***ce"},
		{"bob", "****"},
		{"ab", "****"},
		{"", "****"},
		{"abcd", "****"},
		{"abcde", "abc***de"},
		{"pi_user_42", "pi_***42"},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			if got := MaskIdentity(tt.identity); got != tt.expected {
				t.Errorf("MaskIdentity(%q) = %q, want %q", tt.identity, got, tt.expected)
			}
		})
	}
}
