// Package tts holds the synthesis core: request validation, the typed
// request-path error taxonomy, and the orchestrator that drives an
// engine's segment stream to completion and assembles the waveform.
package tts

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/engine"
)

// EnginePool is what the orchestrator needs from the accent pool.
type EnginePool interface {
	Lookup(accent string) (engine.Engine, bool)
	Accents() []string
}

// Result is one fully assembled synthesis output.
type Result struct {
	Samples    []float32
	SampleRate int
	Segments   int
	Duration   time.Duration
}

// Service orchestrates synthesis: engine lookup, stream draining, and
// waveform assembly. It is safe for concurrent use; engines serialize
// their own calls where needed.
type Service struct {
	pool   EnginePool
	logger *slog.Logger
}

func NewService(pool EnginePool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: logger.With("component", "tts"),
	}
}

// Synthesize runs one request to completion and returns the assembled
// waveform. The request is expected to be validated; the pool checks
// are re-done here so non-HTTP callers get the same typed errors.
func (s *Service) Synthesize(ctx context.Context, req Request) (Result, error) {
	if len(s.pool.Accents()) == 0 {
		return Result{}, errPipelineNotInitialized()
	}

	eng, ok := s.pool.Lookup(req.Accent)
	if !ok {
		return Result{}, errUnknownAccent(req.Accent, s.pool.Accents())
	}

	start := time.Now()

	stream, err := eng.Synthesize(ctx, req.Text, req.Voice, req.Speed)
	if err != nil {
		return Result{}, errEngineFailure(err)
	}

	parts, err := drain(ctx, stream)
	if err != nil {
		return Result{}, errEngineFailure(err)
	}

	samples := audio.Concat(parts)
	if len(samples) == 0 {
		return Result{}, errNoAudioGenerated()
	}

	elapsed := time.Since(start)
	s.logger.Info("synthesis complete",
		"accent", req.Accent,
		"voice", req.Voice,
		"speed", req.Speed,
		"text_len", len(req.Text),
		"segments", len(parts),
		"samples", len(samples),
		"duration_ms", elapsed.Milliseconds(),
	)

	return Result{
		Samples:    samples,
		SampleRate: audio.SampleRate,
		Segments:   len(parts),
		Duration:   elapsed,
	}, nil
}

// drain consumes a stream fully, in order, and always closes it. The
// context is checked between segments so cancellation does not wait
// for the whole sequence.
func drain(ctx context.Context, stream engine.Stream) (parts [][]float32, err error) {
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		seg, nerr := stream.Next()
		if nerr == io.EOF {
			return parts, nil
		}
		if nerr != nil {
			return nil, nerr
		}
		parts = append(parts, seg.Samples)
	}
}
