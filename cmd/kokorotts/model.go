package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/go-kokoro-tts/internal/model"
	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the Kokoro model artifacts",
	}

	cmd.AddCommand(newModelDownloadCmd())
	cmd.AddCommand(newModelVerifyCmd())

	return cmd
}

func newModelDownloadCmd() *cobra.Command {
	var (
		repo    string
		outDir  string
		hfToken string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the model, tokens and voices from Hugging Face",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = cfg.Paths.ModelDir
			}
			if hfToken == "" {
				hfToken = os.Getenv("HF_TOKEN")
			}

			err = model.Download(model.DownloadOptions{
				Repo:    repo,
				OutDir:  outDir,
				HFToken: hfToken,
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
			})
			var denied *model.AccessDeniedError
			if errors.As(err, &denied) {
				fmt.Fprintln(cmd.ErrOrStderr(),
					"Access denied. Pass --hf-token or set HF_TOKEN if the repository is gated.")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&repo, "hf-repo", model.DefaultRepo, "Hugging Face repository to download from")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Target directory (default paths.model_dir)")
	cmd.Flags().StringVar(&hfToken, "hf-token", "", "Hugging Face access token (default $HF_TOKEN)")

	return cmd
}

func newModelVerifyCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify downloaded artifacts against the lock manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if dir == "" {
				dir = cfg.Paths.ModelDir
			}

			return model.Verify(model.VerifyOptions{
				Dir:    dir,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to verify (default paths.model_dir)")

	return cmd
}
