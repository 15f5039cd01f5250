// Package doctor provides environment preflight checks for kokorotts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// KokoroVersion returns the output of `kokoro --version`.
	KokoroVersion VersionFunc
	// SkipKokoro skips the helper binary check (onnx/mock backend mode).
	SkipKokoro bool
	// ModelDir is the Kokoro artifact directory to inspect. Empty skips
	// the artifact checks (cli backend loads its own model).
	ModelDir string
	// ModelFiles overrides the artifact names expected in ModelDir.
	ModelFiles []string
	// VoicesFile is the voice embeddings file to verify on disk. Empty
	// skips the check.
	VoicesFile string
}

// DefaultModelFiles are the artifacts the onnx backend expects in the
// model directory.
var DefaultModelFiles = []string{"model.onnx", "tokens.txt", "voices.npz"}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- kokoro helper binary ---------------------------------------------
	if cfg.SkipKokoro {
		fmt.Fprintf(w, "%s kokoro binary: skipped\n", PassMark)
	} else {
		ver, err := cfg.KokoroVersion()
		if err != nil {
			res.fail(fmt.Sprintf("kokoro binary: %v", err))
			fmt.Fprintf(w, "%s kokoro binary: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s kokoro binary: %s\n", PassMark, ver)
		}
	}

	// ---- model artifacts --------------------------------------------------
	if cfg.ModelDir != "" {
		files := cfg.ModelFiles
		if len(files) == 0 {
			files = DefaultModelFiles
		}
		for _, name := range files {
			path := filepath.Join(cfg.ModelDir, name)
			if _, err := os.Stat(path); err != nil {
				res.fail(fmt.Sprintf("model artifact %q: %v", path, err))
				fmt.Fprintf(w, "%s model artifact %s: not found\n", FailMark, path)
			} else {
				fmt.Fprintf(w, "%s model artifact: %s\n", PassMark, path)
			}
		}
	}

	// ---- voice embeddings -------------------------------------------------
	if cfg.VoicesFile != "" {
		if err := checkReadable(cfg.VoicesFile); err != nil {
			res.fail(fmt.Sprintf("voices file %q: %v", cfg.VoicesFile, err))
			fmt.Fprintf(w, "%s voices file %s: %v\n", FailMark, cfg.VoicesFile, err)
		} else {
			fmt.Fprintf(w, "%s voices file: %s\n", PassMark, cfg.VoicesFile)
		}
	}

	return res
}

// checkReadable verifies the file exists and can actually be opened,
// not just stat'ed.
func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
