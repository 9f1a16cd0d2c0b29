package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized = errors.New("transcription engine is not initialized")
	ErrTimeout        = errors.New("transcription timed out")
	ErrNoAudioData    = errors.New("no audio data")

	ErrMicrophoneDenied = errors.New("microphone access denied")
)

// APIError is a provider-reported failure with a human readable message.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPError is a transport-level failure identified only by its status code.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// UserMessage turns a transcription failure into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
