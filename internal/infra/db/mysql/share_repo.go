package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/medisense/medisense-api/internal/domain/share"
)

type ShareRepository struct {
	db *sql.DB
}

func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

// Save inserts one share link.
func (r *ShareRepository) Save(ctx context.Context, l *share.Link) error {
	const q = `
INSERT INTO shared_reports
  (id, report_id, owner_id, created_at, expires_at, access_count)
VALUES (?,?,?,?,?,?);
`
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, l.ID, l.ReportID, l.OwnerID, createdAt, l.ExpiresAt, l.AccessCount)
	return err
}

// Get fetches one link; unknown ids map to share.ErrInvalidLink.
func (r *ShareRepository) Get(ctx context.Context, id string) (*share.Link, error) {
	const q = `
SELECT id, report_id, owner_id, created_at, expires_at, access_count
FROM shared_reports
WHERE id=? LIMIT 1;
`
	var l share.Link
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&l.ID, &l.ReportID, &l.OwnerID, &l.CreatedAt, &l.ExpiresAt, &l.AccessCount)
	if err == sql.ErrNoRows {
		return nil, share.ErrInvalidLink
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// IncrementAccess bumps the access counter.
func (r *ShareRepository) IncrementAccess(ctx context.Context, id string) error {
	const q = `UPDATE shared_reports SET access_count=access_count+1 WHERE id=?;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
