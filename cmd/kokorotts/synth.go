package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/pool"
	"github.com/example/go-kokoro-tts/internal/text"
	"github.com/example/go-kokoro-tts/internal/tts"
	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	var (
		inputText string
		outFile   string
		accent    string
		voice     string
		speed     float64
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize speech once and write a WAV file",
		Long: `Synthesize speech for the given text without starting the HTTP server.
Reads text from --text, or from stdin when the flag is omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if inputText == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				inputText, err = text.Normalize(string(data))
				if err != nil {
					return err
				}
			}

			if accent == "" {
				accent = cfg.TTS.DefaultAccent
			}
			if voice == "" {
				voice = cfg.TTS.DefaultVoice
			}

			// Only the requested accent is loaded; a one-shot run has
			// no use for the rest of the table.
			cfg.TTS.Accents = []string{accent}

			logger := slog.Default()

			p, err := pool.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			validator := tts.NewValidator(p, accent, voice, cfg.Limits.MaxTextChars)
			req, err := validator.Validate(&tts.RawRequest{
				Text:   &inputText,
				Accent: accent,
				Voice:  voice,
				Speed:  &speed,
			})
			if err != nil {
				return err
			}

			res, err := tts.NewService(p, logger).Synthesize(cmd.Context(), req)
			if err != nil {
				return err
			}

			wav, err := audio.EncodeWAV(res.Samples)
			if err != nil {
				return err
			}

			if outFile == "" || outFile == "-" {
				if _, err := cmd.OutOrStdout().Write(wav); err != nil {
					return fmt.Errorf("write wav: %w", err)
				}
				return nil
			}
			if err := os.WriteFile(outFile, wav, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outFile, err)
			}

			logger.Info("wrote wav",
				"file", outFile,
				"accent", req.Accent,
				"voice", req.Voice,
				"duration_ms", res.Duration.Milliseconds(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputText, "text", "", "Text to synthesize (stdin when omitted)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "out.wav", "Output WAV file (\"-\" for stdout)")
	cmd.Flags().StringVar(&accent, "accent", "", "Accent to use (default from config)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice to use (default from config)")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Speech speed multiplier (0.5-2.0)")

	return cmd
}
