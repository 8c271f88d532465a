package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrTimeout indicates a model call exceeded its deadline. The wrapping
// error carries a human-readable description of the deadline.
var ErrTimeout = errors.New("model call deadline exceeded")
