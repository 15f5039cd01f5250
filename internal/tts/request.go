package tts

import (
	"strings"
)

// MaxTextChars is the default request text length limit, in runes.
const MaxTextChars = 5000

// Speed bounds, inclusive.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// RawRequest is the decoded request body before validation. Pointer
// fields distinguish absent from zero-valued input.
type RawRequest struct {
	Text   *string  `json:"text"`
	Accent string   `json:"accent"`
	Voice  string   `json:"voice"`
	Speed  *float64 `json:"speed"`
}

// Request is a validated synthesis request. Every field has passed
// validation and carries its default where the raw input omitted it.
type Request struct {
	Text   string
	Accent string
	Voice  string
	Speed  float64
}

// AccentLister reports which accents currently have a loaded engine.
// The pool satisfies it; tests use stubs.
type AccentLister interface {
	Accents() []string
	Has(accent string) bool
}

// Validator normalizes and checks raw requests. Rules run in a fixed
// order and the first failure wins; validation has no side effects and
// only consults the pool for the accent existence check.
type Validator struct {
	pool          AccentLister
	defaultAccent string
	defaultVoice  string
	maxTextChars  int
}

// NewValidator builds a validator against a pool. A maxTextChars of
// zero or less falls back to MaxTextChars.
func NewValidator(pool AccentLister, defaultAccent, defaultVoice string, maxTextChars int) *Validator {
	if defaultAccent == "" {
		defaultAccent = "british"
	}
	if defaultVoice == "" {
		defaultVoice = "af_heart"
	}
	if maxTextChars <= 0 {
		maxTextChars = MaxTextChars
	}
	return &Validator{
		pool:          pool,
		defaultAccent: defaultAccent,
		defaultVoice:  defaultVoice,
		maxTextChars:  maxTextChars,
	}
}

// Validate applies the validation rules to a raw request and returns
// the normalized request or a typed *Error.
//
// A nil raw request means the body was absent or undecodable and is
// treated as a missing text field.
func (v *Validator) Validate(raw *RawRequest) (Request, error) {
	if raw == nil || raw.Text == nil {
		return Request{}, errMissingField()
	}

	text := *raw.Text
	if strings.TrimSpace(text) == "" {
		return Request{}, errEmptyText()
	}

	// The limit counts the raw, untrimmed text.
	if len([]rune(text)) > v.maxTextChars {
		return Request{}, errTextTooLong(v.maxTextChars)
	}

	speed := 1.0
	if raw.Speed != nil {
		speed = *raw.Speed
		if speed < MinSpeed || speed > MaxSpeed {
			return Request{}, errSpeedOutOfRange()
		}
	}

	accent := raw.Accent
	if accent == "" {
		accent = v.defaultAccent
	}
	if !v.pool.Has(accent) {
		return Request{}, errUnknownAccent(accent, v.pool.Accents())
	}

	voice := raw.Voice
	if voice == "" {
		voice = v.defaultVoice
	}

	return Request{
		Text:   text,
		Accent: accent,
		Voice:  voice,
		Speed:  speed,
	}, nil
}
