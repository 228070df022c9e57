package textmatch

import "testing"

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"git status", "git status"},
		{"Git  STATUS ", "git status"},
		{"Café Crème", "cafe creme"},
		{"naïve résumé", "naive resume"},
		{"Straße", "strasse"},
		{"Øresund Łódź", "oresund lodz"},
		{"tab\tand\nnewline", "tab and newline"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
