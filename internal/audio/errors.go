package audio

import (
	"errors"
	"fmt"
	"strings"

	"hotmic/internal/domain"
)

var (
	ErrNotRecording     = errors.New("audio: not recording")
	ErrPermissionDenied = fmt.Errorf("audio: %w", domain.ErrMicrophoneDenied)
)

// CaptureErrorKind classifies why capture could not start.
type CaptureErrorKind string

const (
	FileCreateFailed   CaptureErrorKind = "file_create_failed"
	FormatInvalid      CaptureErrorKind = "format_invalid"
	ConverterFailed    CaptureErrorKind = "converter_failed"
	DeviceConfigFailed CaptureErrorKind = "device_config_failed"
)

// CaptureError is returned by capture backends when a session cannot start.
type CaptureError struct {
	Kind CaptureErrorKind
	Err  error
}

func (e *CaptureError) Error() string {
	var msg string
	switch e.Kind {
	case FileCreateFailed:
		msg = "failed to create audio file"
	case FormatInvalid:
		msg = "invalid audio format"
	case ConverterFailed:
		msg = "failed to create audio converter"
	case DeviceConfigFailed:
		msg = "failed to configure audio device"
	default:
		msg = "audio capture failed"
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error { return e.Err }

func captureError(kind CaptureErrorKind, err error) error {
	return &CaptureError{Kind: kind, Err: err}
}

// DeviceError wraps a device open/start failure, mapping permission
// denials reported by the OS audio stack to ErrPermissionDenied.
func DeviceError(err error, detail string) error {
	text := strings.ToLower(err.Error() + " " + detail)
	for _, marker := range []string{"permission denied", "not authorized", "unauthorized", "access denied", "device unavailable"} {
		if strings.Contains(text, marker) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	if detail != "" {
		err = fmt.Errorf("%w: %s", err, detail)
	}
	return captureError(DeviceConfigFailed, err)
}
