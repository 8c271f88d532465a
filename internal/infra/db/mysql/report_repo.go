package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medisense/medisense-api/internal/domain/report"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts one report row. Writes are append-only per user; there
// is no update path for historical reports.
func (r *ReportRepository) Save(ctx context.Context, rec *report.UserReport) error {
	const q = `
INSERT INTO user_reports
  (id, user_id, created_at, status, patient_json, media_json, assessment_json, archived_json)
VALUES (?,?,?,?,?,?,?,?);
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := rec.Status
	if !status.IsValid() {
		status = report.StatusCompleted
	}

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.UserID, createdAt, string(status),
		jsonDoc(rec.Patient),
		jsonList(rec.Media),
		jsonDoc(rec.Assessment),
		jsonDoc(rec.ArchivedMedia),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get fetches one report by owner and id.
func (r *ReportRepository) Get(ctx context.Context, userID, id string) (*report.UserReport, error) {
	const q = `
SELECT id, user_id, created_at, status, patient_json, media_json, assessment_json, archived_json
FROM user_reports
WHERE user_id=? AND id=? LIMIT 1;
`
	rec, err := scanReport(r.db.QueryRowContext(ctx, q, userID, id))
	if err == sql.ErrNoRows {
		return nil, report.ErrNotFound
	}
	return rec, err
}

// List returns the user's reports ordered by creation time, descending.
func (r *ReportRepository) List(ctx context.Context, userID string) ([]*report.UserReport, error) {
	const q = `
SELECT id, user_id, created_at, status, patient_json, media_json, assessment_json, archived_json
FROM user_reports
WHERE user_id=? ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*report.UserReport{}
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes one report; absent rows map to report.ErrNotFound.
func (r *ReportRepository) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM user_reports WHERE user_id=? AND id=?;`
	res, err := r.db.ExecContext(ctx, q, userID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*report.UserReport, error) {
	var rec report.UserReport
	var status, patientJSON, mediaJSON, assessmentJSON, archivedJSON string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.CreatedAt, &status,
		&patientJSON, &mediaJSON, &assessmentJSON, &archivedJSON); err != nil {
		return nil, err
	}
	rec.Status = report.Status(status)
	if err := json.Unmarshal([]byte(patientJSON), &rec.Patient); err != nil {
		return nil, fmt.Errorf("decode patient document: %w", err)
	}
	if err := json.Unmarshal([]byte(mediaJSON), &rec.Media); err != nil {
		return nil, fmt.Errorf("decode media document: %w", err)
	}
	if err := json.Unmarshal([]byte(assessmentJSON), &rec.Assessment); err != nil {
		return nil, fmt.Errorf("decode assessment document: %w", err)
	}
	if archivedJSON != "" && archivedJSON != "{}" && archivedJSON != "null" {
		if err := json.Unmarshal([]byte(archivedJSON), &rec.ArchivedMedia); err != nil {
			return nil, fmt.Errorf("decode archive index: %w", err)
		}
	}
	// List fields stay non-nil regardless of what the row holds.
	rec.Assessment.Sanitize()
	return &rec, nil
}
