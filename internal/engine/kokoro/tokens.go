package kokoro

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Tokenizer maps characters to Kokoro vocabulary ids. The vocab ships
// as a tokens.txt with one "token id" pair per line; id 0 is the pad
// token that delimits every sequence.
type Tokenizer struct {
	tokenToID map[string]int64
	padID     int64
}

// LoadTokenizer reads a tokens.txt vocabulary.
func LoadTokenizer(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tokens file: %w", err)
	}
	defer f.Close()

	t := &Tokenizer{
		tokenToID: make(map[string]int64),
		padID:     0,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
			continue
		}
		t.tokenToID[parts[0]] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}
	if len(t.tokenToID) == 0 {
		return nil, fmt.Errorf("tokens file %s holds no entries", path)
	}

	return t, nil
}

// Encode converts text to a pad-delimited id sequence. Characters
// outside the vocabulary are skipped. An input with no encodable
// characters yields nil.
func (t *Tokenizer) Encode(text string) []int64 {
	ids := make([]int64, 0, len(text)+2)
	ids = append(ids, t.padID)

	encoded := 0
	for _, r := range text {
		if id, ok := t.tokenToID[string(r)]; ok {
			ids = append(ids, id)
			encoded++
		}
	}
	if encoded == 0 {
		return nil
	}

	return append(ids, t.padID)
}

// VocabSize reports the number of known tokens.
func (t *Tokenizer) VocabSize() int {
	return len(t.tokenToID)
}
