package report

import "errors"

// ErrNotFound distinguishes "absent" from a transient storage error on
// read paths.
var ErrNotFound = errors.New("report not found")
