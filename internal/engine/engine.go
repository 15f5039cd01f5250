// Package engine defines the synthesis backend abstraction: an Engine
// is a loaded Kokoro voice model bound to one language, and a Stream is
// the ordered sequence of audio segments one synthesis call produces.
// Backends register themselves by name; construction goes through New.
package engine

import (
	"context"
	"log/slog"
)

// Segment is one synthesized unit of audio with its source alignment.
// Samples are float32 PCM in [-1, 1] at 24000 Hz, mono.
type Segment struct {
	Graphemes string
	Phonemes  string
	Samples   []float32
}

// Stream yields the segments of a single synthesis call in order.
// Next returns io.EOF after the final segment. A Stream is finite and
// cannot be restarted; Close releases any resources the producer holds
// and must be called exactly once.
type Stream interface {
	Next() (Segment, error)
	Close() error
}

// Engine is a synthesis backend loaded for one language. Engines are
// built once at startup and live for the process lifetime. Synthesize
// may serialize calls internally; callers must not assume concurrency.
type Engine interface {
	Synthesize(ctx context.Context, text, voice string, speed float64) (Stream, error)
	Voices() []string
	Info() Info
	Close() error
}

// Info describes a loaded engine.
type Info struct {
	Backend    string
	Lang       string
	SampleRate int
}

// Config carries everything a backend factory needs to load one engine.
// Paths a given backend does not use are ignored by it.
type Config struct {
	// Lang is the Kokoro language code ("a", "b", "e", "f", "i").
	Lang string

	ModelPath  string
	VoicesPath string
	TokensPath string

	// CLIBin is the helper binary driven by the cli backend.
	CLIBin string

	DefaultVoice string

	Logger *slog.Logger
}
