package report

import (
	"time"

	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
)

// Status of a persisted report. Values are wire-stable.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusCompleted
}

// UserReport is the persisted unit of work: one intake snapshot plus
// the assessment synthesized from it. Writes are append-only; a report
// is never updated in place.
type UserReport struct {
	ID         string                           `json:"id"`
	UserID     string                           `json:"user_id"`
	CreatedAt  time.Time                        `json:"created_at"`
	Media      []intake.DiagnosticMedia         `json:"media"`
	Patient    intake.PatientData               `json:"patient_data"`
	Assessment assessment.PreliminaryAssessment `json:"assessment"`
	Status     Status                           `json:"status"`

	// ArchivedMedia maps media index to the object-storage URL holding
	// the full-size payload when the inline copy was truncated.
	ArchivedMedia map[int]string `json:"archived_media,omitempty"`
}
