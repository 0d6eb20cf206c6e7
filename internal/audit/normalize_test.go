package audit

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw, prefix, want string
	}{
		{"8", "", "CHR008"},
		{"  42 ", "CHR", "CHR042"},
		{"123", "CHR", "CHR123"},
		{"1234", "CHR", "CHR1234"},
		{"chr005", "CHR", "CHR005"},
		{"Chr12a", "CHR", "CHR12A"},
		{"SN-ABC123", "CHR", "SN-ABC123"},
		{"7", "lab", "LAB007"},
		{"", "CHR", ""},
		{"   ", "CHR", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw, tt.prefix); got != tt.want {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.prefix, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, raw := range []string{"8", "chr005", "CHR123", "SN-1", "0", "99999", "patri 9"} {
		once := Normalize(raw, DefaultPrefix)
		if twice := Normalize(once, DefaultPrefix); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}
