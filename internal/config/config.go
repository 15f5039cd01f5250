package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	TTS    TTSConfig    `mapstructure:"tts"`
	Paths  PathsConfig  `mapstructure:"paths"`
	Log    LogConfig    `mapstructure:"log"`
	Limits LimitsConfig `mapstructure:"limits"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Mode selects the deployment variant: multi-accent or single-voice.
	Mode string `mapstructure:"mode"`
	// RequestTimeout bounds one synthesis call, in seconds. 0 disables it.
	RequestTimeout  int `mapstructure:"request_timeout"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

type TTSConfig struct {
	Backend       string   `mapstructure:"backend"`
	DefaultAccent string   `mapstructure:"default_accent"`
	DefaultVoice  string   `mapstructure:"default_voice"`
	Accents       []string `mapstructure:"accents"`
	Speed         float64  `mapstructure:"speed"`
}

type PathsConfig struct {
	ModelDir   string `mapstructure:"model_dir"`
	CLIBin     string `mapstructure:"cli_bin"`
	VoicesFile string `mapstructure:"voices_file"`
	TokensFile string `mapstructure:"tokens_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LimitsConfig struct {
	MaxTextChars int `mapstructure:"max_text_chars"`
}

// ListenAddr joins host and port into the address the HTTP server binds.
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResolveVoicesFile returns the configured voices file, or the
// conventional location inside the model directory when unset.
func (p PathsConfig) ResolveVoicesFile() string {
	if p.VoicesFile != "" {
		return p.VoicesFile
	}
	return filepath.Join(p.ModelDir, "voices.npz")
}

// ResolveTokensFile returns the configured tokens file, or the
// conventional location inside the model directory when unset.
func (p PathsConfig) ResolveTokensFile() string {
	if p.TokensFile != "" {
		return p.TokensFile
	}
	return filepath.Join(p.ModelDir, "tokens.txt")
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5001,
			Mode:            ModeMultiAccent,
			RequestTimeout:  0,
			ShutdownTimeout: 5,
		},
		TTS: TTSConfig{
			Backend:       BackendCLI,
			DefaultAccent: "british",
			DefaultVoice:  "af_heart",
			Accents:       AccentKeys(),
			Speed:         1.0,
		},
		Paths: PathsConfig{
			ModelDir:   "models/kokoro",
			CLIBin:     "kokoro",
			VoicesFile: "",
			TokensFile: "",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Limits: LimitsConfig{
			MaxTextChars: 5000,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("server-host", defaults.Server.Host, "HTTP bind host")
	fs.Int("server-port", defaults.Server.Port, "HTTP bind port")
	fs.String("server-mode", defaults.Server.Mode, "Deployment variant (multi-accent|single-voice)")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis timeout in seconds (0 = disabled)")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.String("tts-backend", defaults.TTS.Backend, "Synthesis backend (cli|onnx|mock)")
	fs.String("tts-default-accent", defaults.TTS.DefaultAccent, "Accent used when a request omits one")
	fs.String("tts-default-voice", defaults.TTS.DefaultVoice, "Voice used when a request omits one")
	fs.StringSlice("tts-accents", defaults.TTS.Accents, "Accents to load at startup")
	fs.Float64("tts-speed", defaults.TTS.Speed, "Default speech speed multiplier")
	fs.String("paths-model-dir", defaults.Paths.ModelDir, "Directory holding the Kokoro model artifacts")
	fs.String("paths-cli-bin", defaults.Paths.CLIBin, "Path to the kokoro helper binary")
	fs.String("paths-voices-file", defaults.Paths.VoicesFile, "Voice embeddings file (default <model-dir>/voices.npz)")
	fs.String("paths-tokens-file", defaults.Paths.TokensFile, "Token vocabulary file (default <model-dir>/tokens.txt)")
	fs.String("log-level", defaults.Log.Level, "Log level (debug|info|warn|error)")
	fs.String("log-format", defaults.Log.Format, "Log output format (json|text)")
	fs.Int("limits-max-text-chars", defaults.Limits.MaxTextChars, "Maximum request text length in characters")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("KOKOROTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("kokorotts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	mode, err := NormalizeMode(cfg.Server.Mode)
	if err != nil {
		return Config{}, err
	}
	cfg.Server.Mode = mode

	backend, err := NormalizeBackend(cfg.TTS.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.TTS.Backend = backend

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.mode", c.Server.Mode)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("tts.backend", c.TTS.Backend)
	v.SetDefault("tts.default_accent", c.TTS.DefaultAccent)
	v.SetDefault("tts.default_voice", c.TTS.DefaultVoice)
	v.SetDefault("tts.accents", c.TTS.Accents)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("paths.model_dir", c.Paths.ModelDir)
	v.SetDefault("paths.cli_bin", c.Paths.CLIBin)
	v.SetDefault("paths.voices_file", c.Paths.VoicesFile)
	v.SetDefault("paths.tokens_file", c.Paths.TokensFile)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("limits.max_text_chars", c.Limits.MaxTextChars)
}

// flagKeys maps each config key to its command-line flag.
var flagKeys = map[string]string{
	"server.host":             "server-host",
	"server.port":             "server-port",
	"server.mode":             "server-mode",
	"server.request_timeout":  "server-request-timeout",
	"server.shutdown_timeout": "server-shutdown-timeout",
	"tts.backend":             "tts-backend",
	"tts.default_accent":      "tts-default-accent",
	"tts.default_voice":       "tts-default-voice",
	"tts.accents":             "tts-accents",
	"tts.speed":               "tts-speed",
	"paths.model_dir":         "paths-model-dir",
	"paths.cli_bin":           "paths-cli-bin",
	"paths.voices_file":       "paths-voices-file",
	"paths.tokens_file":       "paths-tokens-file",
	"log.level":               "log-level",
	"log.format":              "log-format",
	"limits.max_text_chars":   "limits-max-text-chars",
}

// bindFlags ties each flag to its config key individually, so the
// usual precedence holds per key: a flag set on the command line wins,
// otherwise env, then config file, then defaults. A flat BindPFlags
// would register the flags under their dashed names only, disconnected
// from the nested keys the file and env vars use.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
