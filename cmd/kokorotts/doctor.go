package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can run synthesis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dc := doctor.Config{
				KokoroVersion: probeKokoroVersion(cfg.Paths.CLIBin),
				SkipKokoro:    cfg.TTS.Backend != config.BackendCLI,
				VoicesFile:    cfg.Paths.ResolveVoicesFile(),
			}
			if cfg.TTS.Backend == config.BackendONNX {
				dc.ModelDir = cfg.Paths.ModelDir
				dc.ModelFiles = doctor.DefaultModelFiles
			}
			if cfg.TTS.Backend == config.BackendMock {
				dc.VoicesFile = ""
			}

			res := doctor.Run(dc, cmd.OutOrStdout())
			if res.Failed() {
				return fmt.Errorf("doctor found %d problem(s)", len(res.Failures()))
			}
			return nil
		},
	}
}

// probeKokoroVersion shells out to the helper binary.
func probeKokoroVersion(bin string) doctor.VersionFunc {
	return func() (string, error) {
		out, err := exec.Command(bin, "--version").CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("%s --version: %w", bin, err)
		}
		return strings.TrimSpace(string(out)), nil
	}
}
