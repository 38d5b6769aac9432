package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingCredential = errors.New("missing credential")
	ErrNoImageReturned   = errors.New("no image returned")
	ErrResultDecode      = errors.New("result decode failed")
	ErrCapacityExceeded  = errors.New("image capacity exceeded")
	ErrFileDecode        = errors.New("file decode failed")
	ErrExport            = errors.New("export failed")
	ErrNotReady          = errors.New("generation preconditions not met")
	ErrBusy              = errors.New("generation in progress")
	ErrNoResult          = errors.New("no result available")
)

// User-facing messages shown in the Error status.
const (
	MessageMissingCredential = "Missing FAL API key. Add FAL_KEY to environment variables."
	MessageNoImageReturned   = "No image returned from API"
	MessageResultDecode      = "Failed to load generated image"
	MessageFileDecode        = "Failed to read image file"
	MessageExport            = "Failed to export image"
	MessageGenerateFailed    = "Failed to generate image"
)

// RemoteError is returned when the generation API answers with a failure or
// cannot be reached at all (StatusCode is zero in that case).
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("remote error: %s: %v", e.Message, e.Err)
		}
		return "remote error: " + e.Message
	}
	return fmt.Sprintf("remote error (status %d): %s", e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Message converts any error produced along the upload, generation or export
// paths into the single line shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		if remote.Message != "" {
			return remote.Message
		}
		if remote.StatusCode != 0 {
			return fmt.Sprintf("API error: %d", remote.StatusCode)
		}
		return MessageGenerateFailed
	case errors.Is(err, ErrMissingCredential):
		return MessageMissingCredential
	case errors.Is(err, ErrNoImageReturned):
		return MessageNoImageReturned
	case errors.Is(err, ErrResultDecode):
		return MessageResultDecode
	case errors.Is(err, ErrFileDecode):
		return MessageFileDecode
	case errors.Is(err, ErrExport):
		return MessageExport
	default:
		return MessageGenerateFailed
	}
}
