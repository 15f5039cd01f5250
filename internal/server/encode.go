package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/tts"
)

// DownloadFilename builds the attachment name for a WAV download:
// kokoro_<tag>_<8 hex>.wav. The tag is the accent in the multi-accent
// variant and the voice in the single-voice variant.
func DownloadFilename(tag string) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("kokoro_%s_%s.wav", tag, short)
}

// writeDownload serializes the waveform to WAV, spools it to a
// temporary file, and streams it back as an attachment. The temp file
// is removed on every exit path.
func (h *handler) writeDownload(w http.ResponseWriter, req tts.Request, res tts.Result) error {
	wav, err := audio.EncodeWAV(res.Samples)
	if err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}

	f, err := os.CreateTemp("", "kokorotts-*.wav")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	if _, err := f.Write(wav); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind temp file: %w", err)
	}

	tag := req.Accent
	if h.singleVoice() {
		tag = req.Voice
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("Content-Disposition", `attachment; filename=`+DownloadFilename(tag))
	w.WriteHeader(http.StatusOK)

	// The body stream is best-effort: the client may hang up mid-copy.
	_, _ = io.Copy(w, f)

	h.log.Info("synthesis served",
		"accent", req.Accent,
		"voice", req.Voice,
		"speed", req.Speed,
		"text_len", len(req.Text),
		"wav_bytes", len(wav),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return nil
}

// base64Response is the JSON payload of /tts_base64.
type base64Response struct {
	AudioBase64 string  `json:"audio_base64"`
	Accent      string  `json:"accent"`
	Voice       string  `json:"voice"`
	Speed       float64 `json:"speed"`
	SampleRate  int     `json:"sample_rate"`
	Format      string  `json:"format"`
}

// writeBase64 serializes the waveform to WAV in memory and returns it
// base64-embedded in JSON with the echoed request metadata.
func (h *handler) writeBase64(w http.ResponseWriter, req tts.Request, res tts.Result) error {
	wav, err := audio.EncodeWAV(res.Samples)
	if err != nil {
		return fmt.Errorf("encode WAV: %w", err)
	}

	writeJSON(w, http.StatusOK, base64Response{
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		Accent:      req.Accent,
		Voice:       req.Voice,
		Speed:       req.Speed,
		SampleRate:  res.SampleRate,
		Format:      "wav",
	})

	h.log.Info("synthesis served",
		"accent", req.Accent,
		"voice", req.Voice,
		"speed", req.Speed,
		"text_len", len(req.Text),
		"wav_bytes", len(wav),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return nil
}
