package config

import (
	"fmt"
	"strings"
)

const (
	BackendCLI  = "cli"
	BackendONNX = "onnx"
	BackendMock = "mock"
)

const (
	ModeMultiAccent = "multi-accent"
	ModeSingleVoice = "single-voice"
)

// NormalizeBackend lowercases and resolves backend aliases. An empty
// string selects the CLI helper backend.
func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendCLI
	}
	switch backend {
	case BackendCLI, BackendONNX, BackendMock:
		return backend, nil
	case "subprocess", "helper":
		return BackendCLI, nil
	case "native", "inprocess":
		return BackendONNX, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s|%s)",
			raw,
			BackendCLI,
			BackendONNX,
			BackendMock,
		)
	}
}

// NormalizeMode lowercases and resolves deployment variant aliases. An
// empty string selects the multi-accent variant.
func NormalizeMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	if mode == "" {
		mode = ModeMultiAccent
	}
	switch mode {
	case ModeMultiAccent, ModeSingleVoice:
		return mode, nil
	case "multi", "multi_accent":
		return ModeMultiAccent, nil
	case "single", "single_voice":
		return ModeSingleVoice, nil
	default:
		return "", fmt.Errorf(
			"invalid server mode %q (expected %s|%s)",
			raw,
			ModeMultiAccent,
			ModeSingleVoice,
		)
	}
}
