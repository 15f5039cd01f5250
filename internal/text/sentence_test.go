package text

import (
	"strings"
	"testing"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "   \n\t ",
			want:  nil,
		},
		{
			name:  "single sentence with period",
			input: "Hello world.",
			want:  []string{"Hello world."},
		},
		{
			name:  "no terminator",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:  "splits on period question exclamation",
			input: "One. Two? Three!",
			want:  []string{"One.", "Two?", "Three!"},
		},
		{
			name:  "keeps terminator attached",
			input: "First sentence. Second sentence.",
			want:  []string{"First sentence.", "Second sentence."},
		},
		{
			name:  "trailing text after last terminator",
			input: "Done. And then",
			want:  []string{"Done.", "And then"},
		},
		{
			name:  "ellipsis splits into dot segments",
			input: "Wait... what?",
			want:  []string{"Wait.", ".", ".", "what?"},
		},
		{
			name:  "trims surrounding whitespace per sentence",
			input: "  One.   Two.  ",
			want:  []string{"One.", "Two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Sentences(%q) = %v (%d), want %v (%d)",
					tt.input, got, len(got), tt.want, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Sentences(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSentencesLongText(t *testing.T) {
	// A paragraph of n sentences yields n segments in input order.
	const n = 40
	var b strings.Builder
	for i := range n {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("Sentence number ")
		b.WriteString(strings.Repeat("x", i%5+1))
		b.WriteByte('.')
	}

	got := Sentences(b.String())
	if len(got) != n {
		t.Fatalf("got %d sentences, want %d", len(got), n)
	}
	for i, s := range got {
		if !strings.HasSuffix(s, ".") {
			t.Errorf("sentence %d missing terminator: %q", i, s)
		}
	}
}
