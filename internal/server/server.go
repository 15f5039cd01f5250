// Package server exposes the synthesis core over HTTP. It carries the
// two deployment variants (multi-accent and single-voice), the
// response encoders, and the embedded demo page.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Synthesizer runs one validated request to completion.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (tts.Result, error)
}

// AccentPool is the read-only pool view the handlers need.
type AccentPool interface {
	Accents() []string
	Has(accent string) bool
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	mode           string
	defaultAccent  string
	defaultVoice   string
	maxTextChars   int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		mode:           config.ModeMultiAccent,
		defaultAccent:  "british",
		defaultVoice:   tts.DefaultVoice,
		maxTextChars:   tts.MaxTextChars,
		requestTimeout: 0,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMode selects the deployment variant (multi-accent or single-voice).
func WithMode(mode string) Option {
	return func(o *options) { o.mode = mode }
}

// WithDefaults sets the accent and voice applied when a request omits them.
func WithDefaults(accent, voice string) Option {
	return func(o *options) {
		if accent != "" {
			o.defaultAccent = accent
		}
		if voice != "" {
			o.defaultVoice = voice
		}
	}
}

// WithMaxTextChars sets the maximum allowed text length in characters.
func WithMaxTextChars(n int) Option {
	return func(o *options) { o.maxTextChars = n }
}

// WithRequestTimeout sets the per-request synthesis deadline. Zero
// disables the deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// JSON writers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeTTSError maps a request-path error to its JSON body. Typed
// errors carry their kind; anything else becomes a generic 500 with
// the message text only.
func writeTTSError(w http.ResponseWriter, err error) {
	if e, ok := tts.AsError(err); ok {
		writeJSON(w, e.HTTPStatus(), map[string]string{
			"error": e.Message,
			"kind":  string(e.Kind),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// withCORS allows browser clients on any origin, the way the original
// service is consumed directly from its demo page.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, synth Synthesizer, pool AccentPool, optFns ...Option) *Server {
	opts := []Option{
		WithMode(cfg.Server.Mode),
		WithDefaults(cfg.TTS.DefaultAccent, cfg.TTS.DefaultVoice),
		WithMaxTextChars(cfg.Limits.MaxTextChars),
		WithRequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second),
	}
	opts = append(opts, optFns...)

	resolved := defaultOptions()
	for _, fn := range opts {
		fn(&resolved)
	}

	return &Server{
		cfg:             cfg,
		handler:         newHandler(synth, pool, resolved),
		logger:          resolved.logger.With("component", "server"),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Handler exposes the assembled route handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("server starting",
		"addr", httpServer.Addr,
		"mode", s.cfg.Server.Mode,
		"backend", s.cfg.TTS.Backend,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks a running server's health endpoint.
func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
