package share

import "context"

// Repository port for share-link storage.
type Repository interface {
	Save(ctx context.Context, l *Link) error
	Get(ctx context.Context, id string) (*Link, error)
	IncrementAccess(ctx context.Context, id string) error
}
