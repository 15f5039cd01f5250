// Package kokoro runs Kokoro ONNX inference in-process via the
// onnxruntime shared library. The graph takes input_ids (int64 [1,T]),
// style ([1,256] float32 selected by token count), and speed ([1]
// float32) and yields a float32 waveform at 24000 Hz.
package kokoro

import (
	"os"
	"runtime"
)

// ortAPIVersion is the ORT C API version the purego bindings target.
const ortAPIVersion = 23

// ortLibraryPath locates the onnxruntime shared library. The
// ONNXRUNTIME_LIB_PATH environment variable wins; otherwise common
// install locations are probed and the bare library name is left for
// the dynamic loader.
func ortLibraryPath() string {
	if env := os.Getenv("ONNXRUNTIME_LIB_PATH"); env != "" {
		return env
	}

	var candidates []string
	var fallback string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/usr/local/lib/libonnxruntime.dylib",
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"./libonnxruntime.dylib",
		}
		fallback = "libonnxruntime.dylib"
	case "windows":
		candidates = []string{
			"onnxruntime.dll",
			"./onnxruntime.dll",
			"./lib/onnxruntime.dll",
		}
		fallback = "onnxruntime.dll"
	default:
		candidates = []string{
			"/usr/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"./libonnxruntime.so",
			"./lib/libonnxruntime.so",
		}
		fallback = "libonnxruntime.so"
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return fallback
}
