package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type VerifyOptions struct {
	// Dir is the model directory holding the downloaded artifacts and
	// the lock manifest.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// ErrNoLockManifest is returned when the directory holds no lock
// manifest to verify against.
var ErrNoLockManifest = errors.New("no lock manifest found; run model download first")

// Verify checks every file recorded in the directory's lock manifest:
// present on disk and checksum matching. One PASS/FAIL line per file
// goes to Stdout/Stderr; a non-nil error names the failures.
func Verify(opts VerifyOptions) error {
	if opts.Dir == "" {
		return errors.New("model dir is required")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}

	lockPath := filepath.Join(opts.Dir, LockName)
	if _, err := os.Stat(lockPath); err != nil {
		return ErrNoLockManifest
	}
	lock := readLockManifest(lockPath)
	if len(lock.Files) == 0 {
		return fmt.Errorf("lock manifest %s holds no files", lockPath)
	}

	var failures []string
	for name, rec := range lock.Files {
		path := filepath.Join(opts.Dir, filepath.FromSlash(name))

		actual, err := fileSHA256(path)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "FAIL %s: %v\n", name, err)
			failures = append(failures, name)
			continue
		}
		if !strings.EqualFold(actual, rec.SHA256) {
			fmt.Fprintf(opts.Stderr, "FAIL %s: checksum mismatch (expected %s got %s)\n", name, rec.SHA256, actual)
			failures = append(failures, name)
			continue
		}

		fmt.Fprintf(opts.Stdout, "PASS %s\n", name)
	}

	if len(failures) > 0 {
		return fmt.Errorf("verify failed for %d file(s): %s", len(failures), strings.Join(failures, ", "))
	}
	return nil
}
