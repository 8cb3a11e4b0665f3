package text

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already clean", "one two three", "one two three"},
		{"collapse spaces", "one   two\t\tthree", "one two three"},
		{"crlf to lf", "line one\r\nline two", "line one\nline two"},
		{"bare cr to lf", "line one\rline two", "line one\nline two"},
		{"collapse blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"preserve double newline", "a\n\nb", "a\n\nb"},
		{"strip control chars", "a\x00b\x07c\x1Fd", "abcd"},
		{"strip del", "a\x7Fb", "ab"},
		{"trim leading", "   hello", "hello"},
		{"trim trailing", "hello   \n\n", "hello"},
		{"space around newline", "one \n two", "one\ntwo"},
		{"only whitespace", " \t\n \r\n ", ""},
		{"unicode preserved", "café naïve", "café naïve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain sentence.",
		"a\r\n\r\n\r\nb\t\tc   d",
		"  messy \x00 input \n\n\n\n with controls \x1F ",
		"unicode: café\r\nnaïve\r\n\r\n\r\nend",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
