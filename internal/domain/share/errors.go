package share

import "errors"

var (
	// ErrInvalidLink means the identifier does not exist.
	ErrInvalidLink = errors.New("share link invalid")
	// ErrExpired means the link exists but is past its TTL.
	ErrExpired = errors.New("share link expired")
)
