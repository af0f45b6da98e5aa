package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextUnchanged(t *testing.T) {
	inputs := []string{
		"Hello world",
		"  Hello   world  ",
		"line one\n\n\nline two",
		strings.Repeat("a", 100),
	}

	for _, in := range inputs {
		got := Split(in, 100, 20)
		if !reflect.DeepEqual(got, []string{in}) {
			t.Errorf("Split(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestSplit_TextShorterThanOverlap(t *testing.T) {
	got := Split("abc", 100, 50)
	if !reflect.DeepEqual(got, []string{"abc"}) {
		t.Errorf("expected single chunk, got %q", got)
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", " ", "\n\t\n"} {
		if got := Split(in, 10, 2); got != nil {
			t.Errorf("Split(%q) = %q, want nil", in, got)
		}
	}
}

func TestSplit_HardCut(t *testing.T) {
	got := Split(strings.Repeat("x", 250), 100, 20)

	want := []int{100, 100, 90}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i, n := range want {
		if len(got[i]) != n {
			t.Errorf("chunk %d: expected length %d, got %d", i, n, len(got[i]))
		}
	}
}

func TestSplit_Overlap(t *testing.T) {
	got := Split("0123456789ABCDEFGHIJ", 10, 3)

	want := []string{"0123456789", "789ABCDEFG", "EFGHIJ"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestSplit_PrefersSentenceBreak(t *testing.T) {
	text := "First sentence is here. Second sentence follows here and goes on."

	got := Split(text, 30, 0)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %q", got)
	}
	if got[0] != "First sentence is here." {
		t.Errorf("expected break after the sentence, got %q", got[0])
	}
}

func TestSplit_PrefersParagraphOverSentence(t *testing.T) {
	text := "Alpha beta gamma delta.\n\nHi. Epsilon zeta eta theta iota kappa lambda mu."

	got := Split(text, 30, 0)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %q", got)
	}
	if got[0] != "Alpha beta gamma delta." {
		t.Errorf("expected break at paragraph, got %q", got[0])
	}
	if !strings.HasPrefix(got[1], "Hi. Epsilon") {
		t.Errorf("expected second chunk to start the next paragraph, got %q", got[1])
	}
}

func TestSplit_PrefersWordBreak(t *testing.T) {
	text := strings.Repeat("abcd ", 20)

	got := Split(text, 23, 0)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %q", got)
	}
	if got[0] != "abcd abcd abcd abcd" {
		t.Errorf("unexpected first chunk %q", got[0])
	}
	for i, c := range got {
		for _, w := range strings.Fields(c) {
			if w != "abcd" {
				t.Errorf("chunk %d split a word: %q", i, c)
			}
		}
	}
}

func TestSplit_CountsRunes(t *testing.T) {
	got := Split(strings.Repeat("é", 25), 10, 0)

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	if got[0] != strings.Repeat("é", 10) {
		t.Errorf("unexpected first chunk %q", got[0])
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := sampleText()

	first := Split(text, 120, 30)
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, Split(text, 120, 30)) {
			t.Fatal("expected identical output for identical input")
		}
	}
}

func TestSplitSpans_Coverage(t *testing.T) {
	text := sampleText()
	params := []struct{ max, overlap int }{
		{50, 0}, {50, 10}, {120, 30}, {200, 199}, {7, 3}, {3, 0},
	}

	for _, p := range params {
		spans := SplitSpans(text, p.max, p.overlap)
		norm := []rune(Normalize(text))

		if len(spans) == 0 || spans[0].Start != 0 {
			t.Fatalf("max=%d: spans must start at 0: %+v", p.max, spans)
		}

		var rebuilt strings.Builder
		prev := 0
		for _, s := range spans {
			if s.Start > prev {
				t.Fatalf("max=%d: gap between %d and %d", p.max, prev, s.Start)
			}
			if s.End <= prev {
				t.Fatalf("max=%d: span %+v does not advance past %d", p.max, s, prev)
			}
			if n := utf8.RuneCountInString(s.Text); n > p.max {
				t.Errorf("max=%d: chunk of %d characters", p.max, n)
			}
			rebuilt.WriteString(string(norm[prev:s.End]))
			prev = s.End
		}
		if rebuilt.String() != string(norm) {
			t.Errorf("max=%d overlap=%d: non-overlapping portions do not rebuild the normalised text", p.max, p.overlap)
		}
	}
}

func TestSplitSpans_Termination(t *testing.T) {
	inputs := []string{
		strings.Repeat("x", 10000),
		strings.Repeat("a ", 5000),
		strings.Repeat(". ", 5000),
		strings.Repeat("word\n\n", 2000),
	}
	params := []struct{ max, overlap int }{
		{7, 6}, {10, 9}, {1, 0}, {2, 1}, {100, 99},
	}

	for _, in := range inputs {
		n := utf8.RuneCountInString(Normalize(in))
		for _, p := range params {
			spans := SplitSpans(in, p.max, p.overlap)
			step := p.max - p.overlap
			if step < 1 {
				step = 1
			}
			if limit := n/step + 1; len(spans) > limit {
				t.Errorf("max=%d overlap=%d: %d spans exceeds bound %d", p.max, p.overlap, len(spans), limit)
			}
			if len(spans) == 0 {
				t.Errorf("max=%d overlap=%d: expected chunks", p.max, p.overlap)
			}
		}
	}
}

func TestSplitSpans_InvalidParameters(t *testing.T) {
	text := strings.Repeat("y", 1500)

	spans := SplitSpans(text, 0, -1)
	if len(spans) != 2 {
		t.Fatalf("expected default chunk size to apply, got %d spans", len(spans))
	}
	if spans[1].Start != 750 {
		t.Errorf("expected overlap clamped to 250, got start %d", spans[1].Start)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b\t c", "a b c"},
		{"line one\nline two", "line one line two"},
		{"para one\n\n\n  para two  ", "para one\n\npara two"},
		{"windows\r\n\r\nbreaks", "windows\n\nbreaks"},
		{"\n\n  leading and trailing \n\n", "leading and trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleText() string {
	return "Het huurcontract begint op 1 januari. De huur is €950 per maand!\n\n" +
		"Opzegtermijn is drie maanden. Betaling vindt plaats   voor de eerste van elke maand?\n" +
		"Bij    achterstand volgt een herinnering.\n\n\n" +
		strings.Repeat("Zonder interpunctie lopen deze woorden gewoon door ", 6) +
		strings.Repeat("x", 90) +
		"\n\nEinde."
}
