package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/report"
	"github.com/medisense/medisense-api/internal/domain/share"
)

var reportColumns = []string{
	"id", "user_id", "created_at", "status",
	"patient_json", "media_json", "assessment_json", "archived_json",
}

func TestReportRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO user_reports").
		WithArgs("r1", "u1", sqlmock.AnyArg(), "completed",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewReportRepository(db)
	rec := &report.UserReport{
		ID:        "r1",
		UserID:    "u1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:    report.StatusCompleted,
		Assessment: assessment.PreliminaryAssessment{
			Summary: "s", ReportMarkdown: "# r", Urgency: assessment.UrgencyLow,
		},
	}
	require.NoError(t, repo.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(reportColumns).AddRow(
		"r1", "u1", created, "completed",
		`{"symptoms":"fever"}`,
		`[{"name":"scan.png","mime_type":"image/png","data":"aGVsbG8="}]`,
		`{"summary":"s","reportMarkdown":"# r","urgency":"MEDIUM"}`,
		`{"0":"https://store.example/u1/r1"}`,
	)
	mock.ExpectQuery("SELECT (.+) FROM user_reports").
		WithArgs("u1", "r1").
		WillReturnRows(rows)

	repo := NewReportRepository(db)
	rec, err := repo.Get(context.Background(), "u1", "r1")
	require.NoError(t, err)

	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, report.StatusCompleted, rec.Status)
	assert.Equal(t, "fever", rec.Patient.Symptoms)
	require.Len(t, rec.Media, 1)
	assert.Equal(t, "scan.png", rec.Media[0].Name)
	assert.Equal(t, assessment.UrgencyMedium, rec.Assessment.Urgency)
	assert.Equal(t, "https://store.example/u1/r1", rec.ArchivedMedia[0])
	// Sanitize ran during the scan.
	assert.NotNil(t, rec.Assessment.RedFlags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM user_reports").
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows(reportColumns))

	repo := NewReportRepository(db)
	_, err = repo.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, report.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(reportColumns).
		AddRow("r2", "u1", created.Add(time.Hour), "completed", `{}`, `[]`, `{"urgency":"LOW"}`, `{}`).
		AddRow("r1", "u1", created, "completed", `{}`, `[]`, `{"urgency":"LOW"}`, `{}`)
	mock.ExpectQuery("SELECT (.+) FROM user_reports").
		WithArgs("u1").
		WillReturnRows(rows)

	repo := NewReportRepository(db)
	list, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM user_reports").
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_reports").
		WithArgs("u1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewReportRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "u1", "r1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1", "r1"), report.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "report_id", "owner_id", "created_at", "expires_at", "access_count"}).
		AddRow("l1", "r1", "u1", created, created.Add(72*time.Hour), int64(3))
	mock.ExpectQuery("SELECT (.+) FROM shared_reports").
		WithArgs("l1").
		WillReturnRows(rows)

	repo := NewShareRepository(db)
	link, err := repo.Get(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "r1", link.ReportID)
	assert.Equal(t, int64(3), link.AccessCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryGetInvalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM shared_reports").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "owner_id", "created_at", "expires_at", "access_count"}))

	repo := NewShareRepository(db)
	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, share.ErrInvalidLink)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShareRepositoryIncrementAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE shared_reports SET access_count").
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewShareRepository(db)
	require.NoError(t, repo.IncrementAccess(context.Background(), "l1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
