package main

import (
	"fmt"
	"strings"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/tts"
	"github.com/spf13/cobra"
)

func newAccentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accents",
		Short: "List the known accents and voices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Accents:")
			for _, acc := range config.AccentTable() {
				marker := " "
				if acc.Key == cfg.TTS.DefaultAccent {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %-10s %-18s lang=%s\n", marker, acc.Key, acc.Name, acc.Lang)
			}

			catalog := tts.Voices()
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Voices:")
			fmt.Fprintf(out, "  female: %s\n", strings.Join(catalog.Female, ", "))
			fmt.Fprintf(out, "  male:   %s\n", strings.Join(catalog.Male, ", "))
			if len(catalog.Other) > 0 {
				fmt.Fprintf(out, "  other:  %s\n", strings.Join(catalog.Other, ", "))
			}
			fmt.Fprintf(out, "\nDefault voice: %s\n", cfg.TTS.DefaultVoice)

			return nil
		},
	}
}
