package version

import "testing"

func TestString(t *testing.T) {
	defer func(v, sha string) { Version, GitSHA = v, sha }(Version, GitSHA)

	tests := []struct {
		version, sha     string
		wantShort, wantS string
	}{
		{"", "dev", "dev", "devhub dev"},
		{"", "1a2b3c4", "1a2b3c4", "devhub 1a2b3c4"},
		{"v0.3.0", "1a2b3c4", "v0.3.0", "devhub v0.3.0 (1a2b3c4)"},
	}
	for _, tt := range tests {
		Version, GitSHA = tt.version, tt.sha
		if got := Short(); got != tt.wantShort {
			t.Errorf("Short() = %q, want %q", got, tt.wantShort)
		}
		if got := String(); got != tt.wantS {
			t.Errorf("String() = %q, want %q", got, tt.wantS)
		}
	}
}
