// Package pool builds and holds the accent-keyed engine pool. Engines
// are loaded once at startup and shared read-only by every request;
// lookups need no locking.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/engine"

	// Registered backends.
	_ "github.com/example/go-kokoro-tts/internal/engine/cli"
	_ "github.com/example/go-kokoro-tts/internal/engine/kokoro"
	_ "github.com/example/go-kokoro-tts/internal/engine/mock"
)

// Pool maps accent keys to loaded engines. It is immutable after Build.
type Pool struct {
	engines map[string]engine.Engine
	accents []string // sorted keys
}

// Build loads one engine per configured accent and returns the pool.
//
// In the multi-accent variant an accent whose engine fails to load is
// logged and skipped; the pool holds whatever loaded, possibly nothing.
// In the single-voice variant only the default accent is loaded and a
// load failure is returned so the process can abort startup.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pool")

	accents := cfg.TTS.Accents
	fatal := false
	if cfg.Server.Mode == config.ModeSingleVoice {
		accents = []string{cfg.TTS.DefaultAccent}
		fatal = true
	}

	p := &Pool{engines: make(map[string]engine.Engine, len(accents))}

	for _, key := range accents {
		acc, ok := config.LookupAccent(key)
		if !ok {
			err := fmt.Errorf("accent %q is not in the accent table", key)
			if fatal {
				p.closeAll()
				return nil, err
			}
			logger.Error("skipping unknown accent", "accent", key, "error", err)
			continue
		}

		eng, err := buildEngine(ctx, cfg, acc, logger)
		if err != nil {
			if fatal {
				p.closeAll()
				return nil, fmt.Errorf("load engine for accent %q: %w", key, err)
			}
			logger.Error("engine load failed, accent unavailable",
				"accent", key, "lang", acc.Lang, "error", err)
			continue
		}

		logger.Info("engine loaded", "accent", key, "lang", acc.Lang, "backend", cfg.TTS.Backend)
		p.engines[key] = eng
	}

	p.accents = make([]string, 0, len(p.engines))
	for key := range p.engines {
		p.accents = append(p.accents, key)
	}
	sort.Strings(p.accents)

	logger.Info("pool ready", "accents", p.accents)
	return p, nil
}

func buildEngine(ctx context.Context, cfg config.Config, acc config.Accent, logger *slog.Logger) (engine.Engine, error) {
	return engine.New(ctx, cfg.TTS.Backend, engine.Config{
		Lang:         acc.Lang,
		ModelPath:    cfg.Paths.ModelDir,
		VoicesPath:   cfg.Paths.ResolveVoicesFile(),
		TokensPath:   cfg.Paths.ResolveTokensFile(),
		CLIBin:       cfg.Paths.CLIBin,
		DefaultVoice: cfg.TTS.DefaultVoice,
		Logger:       logger,
	})
}

// Lookup returns the engine for an accent. Pure read.
func (p *Pool) Lookup(accent string) (engine.Engine, bool) {
	eng, ok := p.engines[accent]
	return eng, ok
}

// Has reports whether an accent has a loaded engine.
func (p *Pool) Has(accent string) bool {
	_, ok := p.engines[accent]
	return ok
}

// Accents returns the loaded accent keys, sorted.
func (p *Pool) Accents() []string {
	return append([]string(nil), p.accents...)
}

// Len reports the number of loaded engines.
func (p *Pool) Len() int { return len(p.engines) }

// Close shuts down every engine. Errors are joined.
func (p *Pool) Close() error {
	var errs []error
	for key, eng := range p.engines {
		if err := eng.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) closeAll() {
	for _, eng := range p.engines {
		_ = eng.Close()
	}
}
