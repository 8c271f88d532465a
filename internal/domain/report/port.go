package report

import (
	"context"

	"github.com/medisense/medisense-api/internal/domain/intake"
)

// Repository port for durable report storage.
type Repository interface {
	Save(ctx context.Context, r *UserReport) error
	Get(ctx context.Context, userID, id string) (*UserReport, error)
	// List returns the user's reports ordered by creation time, descending.
	List(ctx context.Context, userID string) ([]*UserReport, error)
	Delete(ctx context.Context, userID, id string) error
}

// MediaStore archives full-size media payloads that exceed the inline
// cap. Archival is best effort: a failed archive degrades to plain
// truncation, it never fails the save.
type MediaStore interface {
	Archive(ctx context.Context, userID, reportID string, index int, m intake.DiagnosticMedia) (string, error)
}
