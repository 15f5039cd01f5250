// Package text holds the small text utilities shared by the synthesis
// backends and the CLI.
package text

import "strings"

// Sentences splits text on sentence-ending punctuation (., !, ?),
// keeping the terminator attached to its sentence. Text after the last
// terminator forms a final sentence. Empty segments are dropped.
func Sentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if start < len(text) {
		s := strings.TrimSpace(text[start:])
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
