package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q; want %q", cfg.Server.Host, "0.0.0.0")
	}

	if cfg.Server.Port != 5001 {
		t.Errorf("Server.Port = %d; want 5001", cfg.Server.Port)
	}

	if cfg.Server.Mode != ModeMultiAccent {
		t.Errorf("Server.Mode = %q; want %q", cfg.Server.Mode, ModeMultiAccent)
	}

	if cfg.Server.RequestTimeout != 0 {
		t.Errorf("Server.RequestTimeout = %d; want 0", cfg.Server.RequestTimeout)
	}

	if cfg.Server.ShutdownTimeout != 5 {
		t.Errorf("Server.ShutdownTimeout = %d; want 5", cfg.Server.ShutdownTimeout)
	}

	if cfg.TTS.Backend != BackendCLI {
		t.Errorf("TTS.Backend = %q; want %q", cfg.TTS.Backend, BackendCLI)
	}

	if cfg.TTS.DefaultAccent != "british" {
		t.Errorf("TTS.DefaultAccent = %q; want %q", cfg.TTS.DefaultAccent, "british")
	}

	if cfg.TTS.DefaultVoice != "af_heart" {
		t.Errorf("TTS.DefaultVoice = %q; want %q", cfg.TTS.DefaultVoice, "af_heart")
	}

	if !slices.Equal(cfg.TTS.Accents, []string{"british", "american", "spanish", "french", "italian"}) {
		t.Errorf("TTS.Accents = %v; want all five accents", cfg.TTS.Accents)
	}

	if cfg.TTS.Speed != 1.0 {
		t.Errorf("TTS.Speed = %v; want 1.0", cfg.TTS.Speed)
	}

	if cfg.Paths.ModelDir != "models/kokoro" {
		t.Errorf("Paths.ModelDir = %q; want %q", cfg.Paths.ModelDir, "models/kokoro")
	}

	if cfg.Paths.CLIBin != "kokoro" {
		t.Errorf("Paths.CLIBin = %q; want %q", cfg.Paths.CLIBin, "kokoro")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q; want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q; want %q", cfg.Log.Format, "json")
	}

	if cfg.Limits.MaxTextChars != 5000 {
		t.Errorf("Limits.MaxTextChars = %d; want 5000", cfg.Limits.MaxTextChars)
	}
}

func TestListenAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.ListenAddr(); got != "127.0.0.1:8080" {
		t.Errorf("ListenAddr() = %q; want %q", got, "127.0.0.1:8080")
	}
}

func TestResolveDerivedPaths(t *testing.T) {
	p := PathsConfig{ModelDir: "models/kokoro"}

	if got := p.ResolveVoicesFile(); got != filepath.Join("models/kokoro", "voices.npz") {
		t.Errorf("ResolveVoicesFile() = %q; want derived path", got)
	}

	if got := p.ResolveTokensFile(); got != filepath.Join("models/kokoro", "tokens.txt") {
		t.Errorf("ResolveTokensFile() = %q; want derived path", got)
	}

	p.VoicesFile = "custom/voices.npz"
	p.TokensFile = "custom/tokens.txt"

	if got := p.ResolveVoicesFile(); got != "custom/voices.npz" {
		t.Errorf("ResolveVoicesFile() = %q; want explicit path", got)
	}

	if got := p.ResolveTokensFile(); got != "custom/tokens.txt" {
		t.Errorf("ResolveTokensFile() = %q; want explicit path", got)
	}
}

// --- NormalizeBackend ---

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"cli lowercase", "cli", "cli", false},
		{"onnx lowercase", "onnx", "onnx", false},
		{"mock lowercase", "mock", "mock", false},
		{"cli uppercase", "CLI", "cli", false},
		{"subprocess alias", "subprocess", "cli", false},
		{"helper alias", "helper", "cli", false},
		{"native alias", "native", "onnx", false},
		{"alias with spaces", "  native  ", "onnx", false},
		{"empty defaults to cli", "", "cli", false},
		{"whitespace defaults to cli", "   ", "cli", false},
		{"invalid value", "piper", "", true},
		{"invalid with spaces", "  bad  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBackend(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeBackend(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("NormalizeBackend(%q) error: %v", tt.input, err)
			}

			if got != tt.want {
				t.Errorf("NormalizeBackend(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- NormalizeMode ---

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"multi-accent canonical", "multi-accent", ModeMultiAccent, false},
		{"single-voice canonical", "single-voice", ModeSingleVoice, false},
		{"multi alias", "multi", ModeMultiAccent, false},
		{"single alias", "single", ModeSingleVoice, false},
		{"underscore alias", "single_voice", ModeSingleVoice, false},
		{"uppercase", "SINGLE", ModeSingleVoice, false},
		{"empty defaults to multi-accent", "", ModeMultiAccent, false},
		{"invalid value", "dual", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeMode(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("NormalizeMode(%q) error: %v", tt.input, err)
			}

			if got != tt.want {
				t.Errorf("NormalizeMode(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- Accent table ---

func TestAccentTable(t *testing.T) {
	table := AccentTable()
	if len(table) != 5 {
		t.Fatalf("AccentTable() has %d entries; want 5", len(table))
	}

	wantLangs := map[string]string{
		"british":  "b",
		"american": "a",
		"spanish":  "e",
		"french":   "f",
		"italian":  "i",
	}

	for _, a := range table {
		lang, ok := wantLangs[a.Key]
		if !ok {
			t.Errorf("unexpected accent key %q", a.Key)
			continue
		}
		if a.Lang != lang {
			t.Errorf("accent %q lang = %q; want %q", a.Key, a.Lang, lang)
		}
		if a.Name == "" {
			t.Errorf("accent %q has empty display name", a.Key)
		}
	}
}

func TestLookupAccent(t *testing.T) {
	a, ok := LookupAccent("british")
	if !ok {
		t.Fatal("LookupAccent(british) not found")
	}
	if a.Name != "British English" || a.Lang != "b" {
		t.Errorf("LookupAccent(british) = %+v; want British English / b", a)
	}

	if _, ok := LookupAccent("klingon"); ok {
		t.Error("LookupAccent(klingon) = ok; want not found")
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(defaults), Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 5001 {
		t.Errorf("Server.Port = %d; want 5001", cfg.Server.Port)
	}

	if cfg.TTS.Backend != BackendCLI {
		t.Errorf("TTS.Backend = %q; want %q", cfg.TTS.Backend, BackendCLI)
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	if err := binder.fs.Parse([]string{
		"--server-port", "9000",
		"--server-mode", "single",
		"--tts-backend", "mock",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d; want 9000", cfg.Server.Port)
	}

	if cfg.Server.Mode != ModeSingleVoice {
		t.Errorf("Server.Mode = %q; want %q (normalized)", cfg.Server.Mode, ModeSingleVoice)
	}

	if cfg.TTS.Backend != BackendMock {
		t.Errorf("TTS.Backend = %q; want %q", cfg.TTS.Backend, BackendMock)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KOKOROTTS_SERVER_PORT", "7777")
	t.Setenv("KOKOROTTS_TTS_DEFAULT_ACCENT", "american")

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(defaults), Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d; want 7777 from env", cfg.Server.Port)
	}

	if cfg.TTS.DefaultAccent != "american" {
		t.Errorf("TTS.DefaultAccent = %q; want %q from env", cfg.TTS.DefaultAccent, "american")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kokorotts.yaml")

	content := []byte("server:\n  port: 6001\n  mode: single-voice\ntts:\n  backend: mock\n  default_voice: af_sara\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(defaults), ConfigFile: path, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 6001 {
		t.Errorf("Server.Port = %d; want 6001 from file", cfg.Server.Port)
	}

	if cfg.Server.Mode != ModeSingleVoice {
		t.Errorf("Server.Mode = %q; want %q from file", cfg.Server.Mode, ModeSingleVoice)
	}

	if cfg.TTS.Backend != BackendMock {
		t.Errorf("TTS.Backend = %q; want %q from file", cfg.TTS.Backend, BackendMock)
	}

	if cfg.TTS.DefaultVoice != "af_sara" {
		t.Errorf("TTS.DefaultVoice = %q; want %q from file", cfg.TTS.DefaultVoice, "af_sara")
	}
}

func TestLoad_ChangedFlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kokorotts.yaml")

	content := []byte("server:\n  port: 6001\ntts:\n  backend: mock\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)
	if err := binder.fs.Parse([]string{"--server-port", "9000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, ConfigFile: path, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d; want 9000 (explicit flag beats file)", cfg.Server.Port)
	}

	// The untouched key still comes from the file.
	if cfg.TTS.Backend != BackendMock {
		t.Errorf("TTS.Backend = %q; want %q from file", cfg.TTS.Backend, BackendMock)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kokorotts.yaml")

	if err := os.WriteFile(path, []byte("server:\n  port: 6001\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("KOKOROTTS_SERVER_PORT", "7777")

	defaults := DefaultConfig()
	cfg, err := Load(LoadOptions{Cmd: newFlagBinder(defaults), ConfigFile: path, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d; want 7777 (env beats file)", cfg.Server.Port)
	}
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	defaults := DefaultConfig()
	_, err := Load(LoadOptions{
		Cmd:        newFlagBinder(defaults),
		ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"),
		Defaults:   defaults,
	})
	if err == nil {
		t.Fatal("Load with missing config file succeeded; want error")
	}
}

func TestLoad_InvalidModeFails(t *testing.T) {
	t.Setenv("KOKOROTTS_SERVER_MODE", "dual")

	defaults := DefaultConfig()
	_, err := Load(LoadOptions{Cmd: newFlagBinder(defaults), Defaults: defaults})
	if err == nil {
		t.Fatal("Load with invalid mode succeeded; want error")
	}
}
