package main

import (
	"fmt"

	"github.com/example/go-kokoro-tts/internal/server"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running server's health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			target := addr
			if target == "" {
				target = cfg.Server.ListenAddr()
			}

			if err := server.ProbeHTTP(target); err != nil {
				return fmt.Errorf("health probe %s: %w", target, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address to probe (default from config)")

	return cmd
}
