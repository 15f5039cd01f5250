// Package mock provides a deterministic offline synthesis backend.
// It emits one segment per sentence with a short tone burst instead of
// model output, so the full request path can run without Kokoro
// artifacts. It is the backend of choice for tests and demos.
package mock

import (
	"context"
	"log/slog"
	"math"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/engine"
	"github.com/example/go-kokoro-tts/internal/text"
)

const (
	// samplesPerRune sizes each burst so longer sentences take longer,
	// roughly 20 ms of audio per character at 24000 Hz.
	samplesPerRune = audio.SampleRate / 50

	toneHz    = 440.0
	amplitude = 0.3
)

func init() {
	engine.Register("mock", New)
}

// Engine synthesizes tone bursts in place of Kokoro output.
type Engine struct {
	lang         string
	defaultVoice string
	logger       *slog.Logger
}

// New builds a mock engine. It never fails.
func New(_ context.Context, cfg engine.Config) (engine.Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	voice := cfg.DefaultVoice
	if voice == "" {
		voice = "af_heart"
	}
	return &Engine{
		lang:         cfg.Lang,
		defaultVoice: voice,
		logger:       logger.With("component", "engine", "backend", "mock"),
	}, nil
}

func (e *Engine) Synthesize(ctx context.Context, input, voice string, speed float64) (engine.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if speed <= 0 {
		speed = 1.0
	}

	sentences := text.Sentences(input)
	segs := make([]engine.Segment, 0, len(sentences))
	for _, s := range sentences {
		segs = append(segs, engine.Segment{
			Graphemes: s,
			Samples:   tone(len([]rune(s)), speed),
		})
	}

	e.logger.Debug("mock synthesis", "lang", e.lang, "voice", voice, "segments", len(segs))
	return engine.SliceStream(segs), nil
}

// tone renders a sine burst sized by rune count, shortened or
// stretched by the speed factor the way the real model would be.
func tone(runes int, speed float64) []float32 {
	n := int(float64(runes*samplesPerRune) / speed)
	if n < 1 {
		n = 1
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*toneHz*float64(i)/audio.SampleRate))
	}
	return out
}

func (e *Engine) Voices() []string {
	return []string{e.defaultVoice}
}

func (e *Engine) Info() engine.Info {
	return engine.Info{Backend: "mock", Lang: e.lang, SampleRate: audio.SampleRate}
}

func (e *Engine) Close() error { return nil }
