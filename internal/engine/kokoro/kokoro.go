package kokoro

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/engine"
)

func init() {
	engine.Register("onnx", New)
}

// Engine runs the Kokoro graph in-process. The ORT session handles one
// run at a time; calls are serialized with a mutex.
type Engine struct {
	lang         string
	defaultVoice string
	logger       *slog.Logger

	mu     sync.Mutex
	sess   *session
	tok    *Tokenizer
	voices *VoiceStore
}

// New loads the Kokoro graph, vocabulary, and voice embeddings.
// ModelPath may point at the .onnx file or its directory; tokens and
// voices paths default to siblings of the model.
func New(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	modelPath, modelDir, err := resolveModelPath(cfg.ModelPath)
	if err != nil {
		return nil, err
	}

	tokensPath := cfg.TokensPath
	if tokensPath == "" {
		tokensPath = filepath.Join(modelDir, "tokens.txt")
	}
	voicesPath := cfg.VoicesPath
	if voicesPath == "" {
		voicesPath = filepath.Join(modelDir, "voices.npz")
	}

	tok, err := LoadTokenizer(tokensPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	voices, err := LoadVoices(voicesPath)
	if err != nil {
		return nil, fmt.Errorf("load voices: %w", err)
	}

	sess, err := newSession(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	logger.Info("kokoro model loaded",
		"lang", cfg.Lang, "model", modelPath,
		"vocab", tok.VocabSize(), "voices", len(voices.List()))

	return &Engine{
		lang:         cfg.Lang,
		defaultVoice: cfg.DefaultVoice,
		logger:       logger.With("component", "engine", "backend", "onnx", "lang", cfg.Lang),
		sess:         sess,
		tok:          tok,
		voices:       voices,
	}, nil
}

func resolveModelPath(path string) (modelPath, modelDir string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("model path is required for the onnx backend")
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		return "", "", fmt.Errorf("stat model path: %w", statErr)
	}
	if info.IsDir() {
		return filepath.Join(path, "model.onnx"), path, nil
	}
	return path, filepath.Dir(path), nil
}

// Synthesize runs one inference pass and returns the waveform as a
// single segment.
func (e *Engine) Synthesize(ctx context.Context, text, voice string, speed float64) (engine.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if voice == "" {
		voice = e.defaultVoice
	}
	if speed <= 0 {
		speed = 1.0
	}

	ids := e.tok.Encode(text)
	if len(ids) == 0 {
		// Nothing encodable; an empty stream lets the caller report
		// the absence of audio.
		return engine.SliceStream(nil), nil
	}

	style, err := e.voices.Style(voice, len(ids))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	samples, err := e.sess.run(ctx, ids, style, float32(speed))
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("inference done", "voice", voice, "tokens", len(ids), "samples", len(samples))
	return engine.SliceStream([]engine.Segment{{
		Graphemes: text,
		Samples:   samples,
	}}), nil
}

func (e *Engine) Voices() []string {
	return e.voices.List()
}

func (e *Engine) Info() engine.Info {
	return engine.Info{Backend: "onnx", Lang: e.lang, SampleRate: audio.SampleRate}
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		e.sess.close()
		e.sess = nil
	}
	return nil
}
