package intake

import "errors"

var (
	// ErrNoInput means the intake has neither symptom text nor media;
	// analysis is refused before any model call.
	ErrNoInput = errors.New("describe symptoms or attach at least one file")

	// ErrCapabilityDenied means a capture device or payload could not be
	// used (denied camera/microphone, undecodable upload). Recoverable;
	// the user must re-trigger, nothing is retried.
	ErrCapabilityDenied = errors.New("capture capability denied")

	ErrSessionNotFound      = errors.New("intake session not found")
	ErrNoActiveRecording    = errors.New("no active recording for this handle")
	ErrMediaIndexOutOfRange = errors.New("media index out of range")
)
