package detect

import "testing"

func TestMatchesEmptyQueryMatchesEverything(t *testing.T) {
	for _, mode := range []MatchMode{MatchContains, MatchExact} {
		for _, candidate := range []string{"", "anything", "New York"} {
			if !Matches(candidate, "", mode) {
				t.Errorf("Matches(%q, \"\", %v) = false, want true", candidate, mode)
			}
		}
	}
}

func TestMatchesExact(t *testing.T) {
	tests := []struct {
		candidate, query string
		want             bool
	}{
		{"Apple", "apple", true},
		{"APPLE", "Apple", true},
		{"Apples", "apple", false},
		{"apple", "apples", false},
		{"Straße", "straße", true},
	}
	for _, tt := range tests {
		if got := Matches(tt.candidate, tt.query, MatchExact); got != tt.want {
			t.Errorf("Matches(%q, %q, Exact) = %v, want %v", tt.candidate, tt.query, got, tt.want)
		}
	}
}

func TestMatchesContains(t *testing.T) {
	tests := []struct {
		candidate, query string
		want             bool
	}{
		{"New York", "york", true},
		{"New York", "YORK", true},
		{"York", "new york", false},
		{"OKLAHOMA", "ok", true},
		{"paris", "rome", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.candidate, tt.query, MatchContains); got != tt.want {
			t.Errorf("Matches(%q, %q, Contains) = %v, want %v", tt.candidate, tt.query, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, New York!")
	want := []Token{
		{Text: "Hello", Start: 0, End: 5},
		{Text: "New", Start: 7, End: 10},
		{Text: "York", Start: 11, End: 15},
	}
	if len(got) != len(want) {
		t.Fatalf("Tokenize returned %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTokenizeSkipsPunctuationOnlySegments(t *testing.T) {
	if got := Tokenize("... --- !!!"); len(got) != 0 {
		t.Errorf("Tokenize of punctuation = %v, want none", got)
	}
}

func TestTokenizeNonASCII(t *testing.T) {
	got := Tokenize("café 42")
	if len(got) != 2 || got[0].Text != "café" || got[1].Text != "42" {
		t.Fatalf("Tokenize = %v", got)
	}
	// Offsets are rune-based, not byte-based.
	if got[1].Start != 5 || got[1].End != 7 {
		t.Errorf("token %q range = [%d,%d), want [5,7)", got[1].Text, got[1].Start, got[1].End)
	}
}
