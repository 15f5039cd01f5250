// Package cli drives a long-lived kokoro helper subprocess as a
// synthesis backend. The helper is spawned once per engine so the
// model loads once; requests then go over a line-delimited JSON
// protocol on stdin/stdout:
//
//	→ {"text": "...", "voice": "af_heart", "speed": 1.0}
//	← {"graphemes": "...", "phonemes": "...", "samples_base64": "..."}   (per segment)
//	← {"final": true}
//
// samples_base64 is little-endian float32 PCM. The helper announces
// itself with a ready line ({"ready": true, "voices": [...],
// "sample_rate": 24000}) after the model is loaded. The helper handles
// one request at a time, so calls are serialized with a mutex.
package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"sync"
	"time"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/engine"
)

const (
	// readyTimeout bounds the model load inside the helper.
	readyTimeout = 2 * time.Minute

	lineBufferSize = 16 * 1024 * 1024 // segments carry base64 PCM
)

// drainTimeout bounds how long an abandoned stream waits for the
// helper to finish the in-flight request before the engine is declared
// broken. Variable so tests can shorten it.
var drainTimeout = 10 * time.Second

// ErrHelperGone is returned when the helper process has exited or the
// protocol desynchronized.
var ErrHelperGone = errors.New("kokoro helper process gone")

func init() {
	engine.Register("cli", New)
}

// Engine owns one helper process bound to one language.
type Engine struct {
	lang         string
	bin          string
	defaultVoice string
	logger       *slog.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan []byte

	mu     sync.Mutex // serializes requests against the helper
	broken bool
	closed bool

	voices []string
}

// wire types for the helper protocol.
type readyLine struct {
	Ready      bool     `json:"ready"`
	Voices     []string `json:"voices"`
	SampleRate int      `json:"sample_rate"`
	Error      string   `json:"error"`
}

type requestLine struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

type segmentLine struct {
	Graphemes     string `json:"graphemes"`
	Phonemes      string `json:"phonemes"`
	SamplesBase64 string `json:"samples_base64"`
	Final         bool   `json:"final"`
	Error         string `json:"error"`
}

// New spawns the helper for cfg.Lang and waits for its ready line.
// The context bounds the spawn and model load.
func New(ctx context.Context, cfg engine.Config) (engine.Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bin := cfg.CLIBin
	if bin == "" {
		bin = "kokoro"
	}

	e := &Engine{
		lang:         cfg.Lang,
		bin:          bin,
		defaultVoice: cfg.DefaultVoice,
		logger:       logger.With("component", "engine", "backend", "cli", "lang", cfg.Lang),
		lines:        make(chan []byte, 64),
	}

	args := []string{"serve", "--lang", cfg.Lang}
	if cfg.ModelPath != "" {
		args = append(args, "--model", cfg.ModelPath)
	}
	if cfg.VoicesPath != "" {
		args = append(args, "--voices", cfg.VoicesPath)
	}

	cmd := exec.Command(bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	e.cmd = cmd
	e.stdin = stdin

	go e.readLoop(stdout)
	go e.logStderr(stderr)

	if err := e.awaitReady(ctx); err != nil {
		e.kill()
		e.drainLines(2 * time.Second)
		_ = cmd.Wait()
		return nil, err
	}

	e.logger.Info("helper ready", "voices", len(e.voices))
	return e, nil
}

// readLoop pumps helper stdout lines into the lines channel. It owns
// the channel and closes it when the helper stops producing output.
func (e *Engine) readLoop(stdout io.Reader) {
	defer close(e.lines)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), lineBufferSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		buf := make([]byte, len(line))
		copy(buf, line)
		e.lines <- buf
	}
	if err := scanner.Err(); err != nil {
		e.logger.Warn("helper stdout read failed", "error", err)
	}
}

func (e *Engine) logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			e.logger.Debug("helper stderr", "line", line)
		}
	}
}

// awaitReady consumes the handshake line the helper prints once its
// model is loaded.
func (e *Engine) awaitReady(ctx context.Context) error {
	timer := time.NewTimer(readyTimeout)
	defer timer.Stop()

	select {
	case line, ok := <-e.lines:
		if !ok {
			return fmt.Errorf("%w: exited during startup", ErrHelperGone)
		}
		var ready readyLine
		if err := json.Unmarshal(line, &ready); err != nil {
			return fmt.Errorf("malformed ready line from helper: %w", err)
		}
		if ready.Error != "" {
			return fmt.Errorf("helper startup failed: %s", ready.Error)
		}
		if !ready.Ready {
			return fmt.Errorf("unexpected first line from helper (no ready flag)")
		}
		if ready.SampleRate != 0 && ready.SampleRate != audio.SampleRate {
			return fmt.Errorf("helper sample rate %d, want %d", ready.SampleRate, audio.SampleRate)
		}
		e.voices = ready.Voices
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("helper did not become ready within %s", readyTimeout)
	}
}

// Synthesize sends one request and returns a stream over the reply
// segments. The engine mutex is held until the stream is closed.
func (e *Engine) Synthesize(ctx context.Context, text, voice string, speed float64) (engine.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if voice == "" {
		voice = e.defaultVoice
	}

	e.mu.Lock()
	if e.closed || e.broken {
		e.mu.Unlock()
		return nil, ErrHelperGone
	}

	req, err := json.Marshal(requestLine{Text: text, Voice: voice, Speed: speed})
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req = append(req, '\n')

	if _, err := e.stdin.Write(req); err != nil {
		e.broken = true
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrHelperGone, err)
	}

	return &stream{eng: e, ctx: ctx}, nil
}

// stream reads segment lines for one request. Creation happens with
// the engine mutex held; Close releases it.
type stream struct {
	eng  *Engine
	ctx  context.Context
	done bool // final marker (or terminal error) consumed
	over bool // Close already ran
}

func (s *stream) Next() (engine.Segment, error) {
	if s.done {
		return engine.Segment{}, io.EOF
	}

	select {
	case line, ok := <-s.eng.lines:
		if !ok {
			s.done = true
			s.eng.broken = true
			return engine.Segment{}, ErrHelperGone
		}
		var seg segmentLine
		if err := json.Unmarshal(line, &seg); err != nil {
			s.done = true
			s.eng.broken = true
			return engine.Segment{}, fmt.Errorf("malformed segment line: %w", err)
		}
		if seg.Error != "" {
			s.done = true
			return engine.Segment{}, fmt.Errorf("helper: %s", seg.Error)
		}
		if seg.Final {
			s.done = true
			return engine.Segment{}, io.EOF
		}
		samples, err := decodeSamples(seg.SamplesBase64)
		if err != nil {
			s.done = true
			s.eng.broken = true
			return engine.Segment{}, err
		}
		return engine.Segment{
			Graphemes: seg.Graphemes,
			Phonemes:  seg.Phonemes,
			Samples:   samples,
		}, nil
	case <-s.ctx.Done():
		return engine.Segment{}, s.ctx.Err()
	}
}

// Close resynchronizes the protocol (draining any unread reply lines)
// and releases the engine for the next request.
func (s *stream) Close() error {
	if s.over {
		return nil
	}
	s.over = true
	defer s.eng.mu.Unlock()

	if s.done {
		return nil
	}

	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-s.eng.lines:
			if !ok {
				s.eng.broken = true
				return ErrHelperGone
			}
			var seg segmentLine
			if err := json.Unmarshal(line, &seg); err != nil {
				s.eng.broken = true
				return fmt.Errorf("malformed segment line while draining: %w", err)
			}
			if seg.Final || seg.Error != "" {
				return nil
			}
		case <-timer.C:
			// The helper is wedged mid-request; the protocol cannot be
			// trusted anymore.
			s.eng.broken = true
			s.eng.kill()
			return fmt.Errorf("%w: drain timeout", ErrHelperGone)
		}
	}
}

func decodeSamples(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode samples: %d bytes is not a float32 array", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

func (e *Engine) Voices() []string {
	out := make([]string, len(e.voices))
	copy(out, e.voices)
	return out
}

func (e *Engine) Info() engine.Info {
	return engine.Info{Backend: "cli", Lang: e.lang, SampleRate: audio.SampleRate}
}

// Close shuts the helper down. It waits for an in-flight request to
// release the engine first.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	// EOF on stdin asks the helper to exit.
	_ = e.stdin.Close()

	// Let the read loop see EOF before Wait closes the stdout pipe
	// under it; kill if the helper lingers.
	if !e.drainLines(5 * time.Second) {
		e.logger.Warn("helper did not exit, killing")
		e.kill()
		e.drainLines(time.Second)
	}

	err := e.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("wait for helper: %w", err)
	}
	return nil
}

// drainLines discards stdout lines until the read loop closes the
// channel, reporting whether that happened within the timeout.
func (e *Engine) drainLines(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-e.lines:
			if !ok {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

func (e *Engine) kill() {
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
}
