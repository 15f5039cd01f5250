package kokoro

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTokensFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tokens.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadTokenizer(t *testing.T) {
	path := writeTokensFile(t, "$ 0\na 1\nb 2\nc 3\n  4\n")

	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	if got := tok.VocabSize(); got != 5 {
		t.Errorf("VocabSize = %d, want 5", got)
	}
}

func TestLoadTokenizer_SkipsMalformedLines(t *testing.T) {
	path := writeTokensFile(t, "a 1\n\nnospace\nb notanumber\nc 3\n")

	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	if got := tok.VocabSize(); got != 2 {
		t.Errorf("VocabSize = %d, want 2", got)
	}
}

func TestLoadTokenizer_EmptyVocabFails(t *testing.T) {
	path := writeTokensFile(t, "\n\n")

	if _, err := LoadTokenizer(path); err == nil {
		t.Fatal("expected error for empty vocabulary")
	}
}

func TestLoadTokenizer_MissingFile(t *testing.T) {
	if _, err := LoadTokenizer(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEncode_PadDelimited(t *testing.T) {
	path := writeTokensFile(t, "a 1\nb 2\nc 3\n")

	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	got := tok.Encode("abc")
	want := []int64{0, 1, 2, 3, 0}
	if len(got) != len(want) {
		t.Fatalf("Encode = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Encode = %v, want %v", got, want)
		}
	}
}

func TestEncode_SkipsUnknownRunes(t *testing.T) {
	path := writeTokensFile(t, "a 1\n")

	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	got := tok.Encode("xaÿ")
	if len(got) != 3 || got[1] != 1 {
		t.Errorf("Encode = %v, want [0 1 0]", got)
	}
}

func TestEncode_NoEncodableRunesYieldsNil(t *testing.T) {
	path := writeTokensFile(t, "a 1\n")

	tok, err := LoadTokenizer(path)
	if err != nil {
		t.Fatalf("LoadTokenizer: %v", err)
	}

	if got := tok.Encode("xyz"); got != nil {
		t.Errorf("Encode = %v, want nil", got)
	}
}
