package server_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/example/go-kokoro-tts/internal/server"
)

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(name string) slog.Handler       { return c }

func (c *capturingHandler) attrMap(idx int) map[string]any {
	m := make(map[string]any)
	c.records[idx].Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func TestTTS_LogsAccentVoiceAndSize(t *testing.T) {
	cap := &capturingHandler{}
	logger := slog.New(cap)

	h := server.NewHandler(okSynth(), &stubPool{accents: []string{"british"}},
		server.WithLogger(logger))

	rec := postJSON(h, "/tts", `{"text":"Hello world.","voice":"af_sara","speed":1.2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var found bool
	for i := range cap.records {
		attrs := cap.attrMap(i)
		if _, ok := attrs["wav_bytes"]; !ok {
			continue
		}
		found = true
		if attrs["accent"] != "british" {
			t.Errorf("want accent=british, got %v", attrs["accent"])
		}
		if attrs["voice"] != "af_sara" {
			t.Errorf("want voice=af_sara, got %v", attrs["voice"])
		}
		if attrs["speed"] != 1.2 {
			t.Errorf("want speed=1.2, got %v", attrs["speed"])
		}
		if _, ok := attrs["text_len"]; !ok {
			t.Error("want text_len attribute in log record")
		}
	}
	if !found {
		t.Fatal("no synthesis log record with wav_bytes found")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := server.ParseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLogLevel(%q): want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.input, got, tt.want)
		}
	}
}

func TestTTS_LogsSynthesisFailure(t *testing.T) {
	cap := &capturingHandler{}
	logger := slog.New(cap)

	synth := &stubSynthesizer{err: context.DeadlineExceeded}
	h := server.NewHandler(synth, &stubPool{accents: []string{"british"}},
		server.WithLogger(logger))

	rec := postJSON(h, "/tts", `{"text":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}

	var found bool
	for i := range cap.records {
		attrs := cap.attrMap(i)
		if _, ok := attrs["error"]; ok {
			found = true
		}
	}
	if !found {
		t.Fatal("no error log record for failed synthesis")
	}
}
