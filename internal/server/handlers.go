package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/tts"
)

const modelName = "Kokoro-82M"

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	synth     Synthesizer
	pool      AccentPool
	validator *tts.Validator
	opts      options
	log       *slog.Logger
}

// NewHandler returns the route handler for the configured variant.
// Exposed for tests; New assembles it from a Config.
func NewHandler(synth Synthesizer, pool AccentPool, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newHandler(synth, pool, opts)
}

func newHandler(synth Synthesizer, pool AccentPool, opts options) http.Handler {
	h := &handler{
		synth:     synth,
		pool:      pool,
		validator: tts.NewValidator(pool, opts.defaultAccent, opts.defaultVoice, opts.maxTextChars),
		opts:      opts,
		log:       opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/tts", h.handleTTS)
	mux.HandleFunc("/tts_base64", h.handleTTSBase64)
	mux.HandleFunc("/demo", h.handleDemo)

	if opts.mode == config.ModeSingleVoice {
		mux.HandleFunc("/voice", h.handleVoice)
	} else {
		mux.HandleFunc("/accents", h.handleAccents)
		mux.HandleFunc("/voices", h.handleVoices)
		mux.HandleFunc("/tts/british", h.handleTTSBritish)
	}

	return withCORS(mux)
}

func (h *handler) singleVoice() bool {
	return h.opts.mode == config.ModeSingleVoice
}

// ---------------------------------------------------------------------------
// Informational endpoints
// ---------------------------------------------------------------------------

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body := map[string]any{
		"status":    "ok",
		"model":     modelName,
		"device":    "cpu",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.singleVoice() {
		body["voice"] = h.opts.defaultVoice
		body["accent"] = h.opts.defaultAccent
	} else {
		body["available_accents"] = h.pool.Accents()
		body["voices"] = tts.VoiceCount()
	}

	writeJSON(w, http.StatusOK, body)
}

type accentInfo struct {
	Name     string `json:"name"`
	LangCode string `json:"lang_code"`
	Loaded   bool   `json:"loaded"`
}

func (h *handler) handleAccents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accents := make(map[string]accentInfo)
	for _, a := range config.AccentTable() {
		accents[a.Key] = accentInfo{
			Name:     a.Name,
			LangCode: a.Lang,
			Loaded:   h.pool.Has(a.Key),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accents": accents,
		"default": h.opts.defaultAccent,
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"voices":  tts.Voices(),
		"default": h.opts.defaultVoice,
		"note":    "All voices work with all accents",
	})
}

func (h *handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	acc, _ := config.LookupAccent(h.opts.defaultAccent)
	writeJSON(w, http.StatusOK, map[string]any{
		"voice":    h.opts.defaultVoice,
		"accent":   h.opts.defaultAccent,
		"language": acc.Name,
		"type":     "female",
	})
}

// ---------------------------------------------------------------------------
// Synthesis endpoints
// ---------------------------------------------------------------------------

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	h.serveTTS(w, r, "", h.writeDownload)
}

func (h *handler) handleTTSBritish(w http.ResponseWriter, r *http.Request) {
	h.serveTTS(w, r, "british", h.writeDownload)
}

func (h *handler) handleTTSBase64(w http.ResponseWriter, r *http.Request) {
	h.serveTTS(w, r, "", h.writeBase64)
}

// responseWriter renders one synthesis result.
type responseWriter func(w http.ResponseWriter, req tts.Request, res tts.Result) error

// serveTTS is the shared synthesis path: decode, validate, synthesize,
// then hand the result to the encoding-specific writer. forceAccent
// overrides the request accent when non-empty.
func (h *handler) serveTTS(w http.ResponseWriter, r *http.Request, forceAccent string, write responseWriter) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := decodeRawRequest(r)
	if raw != nil {
		if h.singleVoice() {
			// The single-voice variant fixes accent and voice; request
			// fields are ignored.
			raw.Accent = ""
			raw.Voice = ""
		}
		if forceAccent != "" {
			raw.Accent = forceAccent
		}
	}

	req, err := h.validator.Validate(raw)
	if err != nil {
		writeTTSError(w, err)
		return
	}

	ctx := r.Context()
	if h.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
		defer cancel()
	}

	res, err := h.synth.Synthesize(ctx, req)
	if err != nil {
		h.log.Error("synthesis failed",
			"accent", req.Accent,
			"voice", req.Voice,
			"text_len", len(req.Text),
			"error", err.Error(),
		)
		writeTTSError(w, err)
		return
	}

	if err := write(w, req, res); err != nil {
		h.log.Error("response encoding failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeRawRequest parses the JSON body. A missing or undecodable body
// returns nil, which validation reports as a missing text field.
func decodeRawRequest(r *http.Request) *tts.RawRequest {
	if r.Body == nil {
		return nil
	}
	var raw tts.RawRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil
	}
	return &raw
}
