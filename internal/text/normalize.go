package text

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when the input holds nothing synthesizable.
var ErrEmptyText = errors.New("text is empty")

// Normalize flattens raw command-line input into a single line of
// synthesizable text. Text piped through stdin arrives hard-wrapped and
// sometimes carries stray control bytes; the Kokoro vocabulary has no
// tokens for either, so line breaks (and any whitespace run) collapse
// to one space and control characters are dropped. Empty input, or
// input reduced to nothing, is rejected. Request text arriving over
// HTTP is deliberately not normalized; the validator checks the raw
// payload.
func Normalize(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r):
			// Dropped without becoming a word boundary.
		default:
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" {
		return "", ErrEmptyText
	}
	return out, nil
}
