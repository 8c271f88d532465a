package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medisense/medisense-api/internal/domain/ai"
)

// WithDeadline runs op under a timeout and converts deadline expiry
// into ai.ErrTimeout wrapped in a human-readable message. The operation
// is only abandoned, not cancelled on the far side. Usable by any
// suspending call so callers never hang indefinitely.
func WithDeadline[T any](ctx context.Context, d time.Duration, msg string, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return op(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	out, err := op(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%s: %w", msg, ai.ErrTimeout)
	}
	return out, err
}
