package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		limit int
		want  string
	}{
		{name: "zero limit", input: "Jane Doe, Senior Go Engineer", limit: 0, want: ""},
		{name: "fits", input: "Jane Doe", limit: 20, want: "Jane Doe"},
		{name: "exact length", input: "Jane", limit: 4, want: "Jane"},
		{name: "cut with ellipsis", input: "Senior Go Engineer", limit: 6, want: "Senior..."},
		{name: "whitespace trimmed first", input: "\n  cv text  \n", limit: 7, want: "cv text"},
		{name: "counts runes", input: "\u0418\u0432\u0430\u043d \u041f\u0435\u0442\u0440\u043e\u0432", limit: 4, want: "\u0418\u0432\u0430\u043d..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
