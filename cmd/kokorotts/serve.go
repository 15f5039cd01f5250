package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/pool"
	"github.com/example/go-kokoro-tts/internal/server"
	"github.com/example/go-kokoro-tts/internal/tts"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Kokoro TTS HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}
}

func runServe(cmd *cobra.Command, cfg config.Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pool.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			logger.Warn("engine pool close", "error", cerr)
		}
	}()

	if p.Len() == 0 {
		logger.Warn("no engines loaded; synthesis requests will fail",
			"backend", cfg.TTS.Backend)
	}

	service := tts.NewService(p, logger)
	srv := server.New(cfg, service, p, server.WithLogger(logger)).
		WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeout) * time.Second)

	logger.Info("starting server",
		"addr", cfg.Server.ListenAddr(),
		"mode", cfg.Server.Mode,
		"backend", cfg.TTS.Backend,
		"accents", p.Accents())

	return srv.Start(ctx)
}
