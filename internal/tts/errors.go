package tts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind discriminates the request-path error taxonomy. Clients receive
// the kind alongside the message, so it must stay stable.
type Kind string

const (
	KindMissingField           Kind = "missing_field"
	KindEmptyText              Kind = "empty_text"
	KindTextTooLong            Kind = "text_too_long"
	KindSpeedOutOfRange        Kind = "speed_out_of_range"
	KindUnknownAccent          Kind = "unknown_accent"
	KindPipelineNotInitialized Kind = "pipeline_not_initialized"
	KindNoAudioGenerated       Kind = "no_audio_generated"
	KindEngineFailure          Kind = "engine_failure"
)

// Error is a typed request-path error. Validation kinds map to HTTP
// 400; pipeline and engine kinds map to HTTP 500.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the error kind to its response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindMissingField, KindEmptyText, KindTextTooLong, KindSpeedOutOfRange, KindUnknownAccent:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func errMissingField() *Error {
	return &Error{Kind: KindMissingField, Message: "Missing text parameter"}
}

func errEmptyText() *Error {
	return &Error{Kind: KindEmptyText, Message: "Text cannot be empty"}
}

func errTextTooLong(max int) *Error {
	return &Error{Kind: KindTextTooLong, Message: fmt.Sprintf("Text too long (max %d characters)", max)}
}

func errSpeedOutOfRange() *Error {
	return &Error{Kind: KindSpeedOutOfRange, Message: "Speed must be between 0.5 and 2.0"}
}

func errUnknownAccent(accent string, available []string) *Error {
	return &Error{
		Kind:    KindUnknownAccent,
		Message: fmt.Sprintf("Accent %q not available. Available: [%s]", accent, strings.Join(available, ", ")),
	}
}

func errPipelineNotInitialized() *Error {
	return &Error{Kind: KindPipelineNotInitialized, Message: "TTS pipeline not initialized"}
}

func errNoAudioGenerated() *Error {
	return &Error{Kind: KindNoAudioGenerated, Message: "No audio generated"}
}

func errEngineFailure(cause error) *Error {
	return &Error{
		Kind:    KindEngineFailure,
		Message: fmt.Sprintf("synthesis failed: %v", cause),
		cause:   cause,
	}
}
