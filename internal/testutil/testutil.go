// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireKokoroCLI(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireKokoroCLI skips the test if the kokoro helper binary is not
// found in PATH or at the path given by the KOKOROTTS_PATHS_CLI_BIN
// environment variable.
func RequireKokoroCLI(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("KOKOROTTS_PATHS_CLI_BIN")
	if exe == "" {
		exe = "kokoro"
	}

	if _, err := exec.LookPath(exe); err != nil {
		tb.Skipf("kokoro helper not available (%q not in PATH); set KOKOROTTS_PATHS_CLI_BIN to override", exe)
	}
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library
// can be located via ONNXRUNTIME_LIB_PATH or common system paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	if p := os.Getenv("ONNXRUNTIME_LIB_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return
		}
		tb.Skipf("ONNX Runtime library not found at ONNXRUNTIME_LIB_PATH=%q", p)
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ONNXRUNTIME_LIB_PATH")
}

// RequireModelDir skips the test unless KOKOROTTS_PATHS_MODEL_DIR
// points at a directory holding the Kokoro artifacts (model.onnx,
// tokens.txt, voices.npz). It returns the directory.
func RequireModelDir(tb testing.TB) string {
	tb.Helper()

	dir := os.Getenv("KOKOROTTS_PATHS_MODEL_DIR")
	if dir == "" {
		tb.Skip("KOKOROTTS_PATHS_MODEL_DIR not set")
	}
	for _, name := range []string{"model.onnx", "tokens.txt", "voices.npz"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			tb.Skipf("model artifact %s not found in %s", name, dir)
		}
	}
	return dir
}
