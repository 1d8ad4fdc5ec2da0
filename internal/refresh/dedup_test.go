package refresh

import "testing"

func TestShouldRefresh(t *testing.T) {
	tests := []struct {
		name         string
		lastObserved string
		candidate    string
		want         bool
	}{
		{"empty last observed", "", "abc123", true},
		{"identical heads", "abc123", "abc123", false},
		{"candidate is abbreviation", "abc123def456", "abc123", false},
		{"last observed is abbreviation", "abc123", "abc123def456", false},
		{"different heads", "abc123", "abd999", true},
		{"diverges past the prefix", "abc123", "abc999", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRefresh(tt.lastObserved, tt.candidate); got != tt.want {
				t.Fatalf("ShouldRefresh(%q, %q) = %v, want %v", tt.lastObserved, tt.candidate, got, tt.want)
			}
		})
	}
}
