package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense-api/internal/application"
	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
	"github.com/medisense/medisense-api/internal/domain/report"
	"github.com/medisense/medisense-api/internal/domain/share"
)

const (
	defaultOpTimeout  = 10 * time.Second
	defaultShareHours = 72
	maxShareHours     = 24 * 30
)

// Service owns the path between a completed assessment and durable
// storage, plus share-link issuing and resolution. Saving happens only
// after a complete, sanitized assessment exists; a failed analysis
// leaves no partial record.
type Service struct {
	Repo   report.Repository
	Shares share.Repository
	Media  report.MediaStore
	Clock  application.Clock
	Log    zerolog.Logger

	Policy     report.SavePolicy
	OpTimeout  time.Duration
	ShareHours int
}

func NewService(repo report.Repository, shares share.Repository, media report.MediaStore, clock application.Clock, log zerolog.Logger) *Service {
	return &Service{
		Repo:       repo,
		Shares:     shares,
		Media:      media,
		Clock:      clock,
		Log:        log,
		Policy:     report.DefaultSavePolicy(),
		OpTimeout:  defaultOpTimeout,
		ShareHours: defaultShareHours,
	}
}

// Save normalizes, truncates, and persists one report, returning its id.
// Oversized payloads are archived to object storage before truncation
// when an archive is wired; archive failure degrades to plain
// truncation and never fails the save.
func (s *Service) Save(ctx context.Context, userID string, media []intake.DiagnosticMedia, patient intake.PatientData, a *assessment.PreliminaryAssessment) (string, error) {
	rec := &report.UserReport{
		ID:         uuid.New().String(),
		UserID:     userID,
		CreatedAt:  s.Clock.Now(),
		Media:      append([]intake.DiagnosticMedia(nil), media...),
		Patient:    patient,
		Assessment: *a,
		Status:     report.StatusCompleted,
	}
	report.Normalize(rec)

	for i := range rec.Media {
		if len(rec.Media[i].Data) <= s.Policy.PayloadCap {
			continue
		}
		if s.Media != nil {
			url, err := s.Media.Archive(ctx, userID, rec.ID, i, rec.Media[i])
			if err != nil {
				s.Log.Warn().Err(err).Str("media", rec.Media[i].Name).Msg("media archive failed; truncating without archive")
			} else {
				if rec.ArchivedMedia == nil {
					rec.ArchivedMedia = make(map[int]string)
				}
				rec.ArchivedMedia[i] = url
			}
		}
		s.Policy.Truncate(&rec.Media[i])
		s.Log.Info().Str("media", rec.Media[i].Name).Msg("oversized media payload truncated")
	}

	_, err := application.WithDeadline(ctx, s.OpTimeout, "report save timed out", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Repo.Save(ctx, rec)
	})
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return rec.ID, nil
}

// Get fetches one report; absent ids yield report.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (*report.UserReport, error) {
	return application.WithDeadline(ctx, s.OpTimeout, "report fetch timed out", func(ctx context.Context) (*report.UserReport, error) {
		return s.Repo.Get(ctx, userID, id)
	})
}

// List returns the user's reports, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*report.UserReport, error) {
	return application.WithDeadline(ctx, s.OpTimeout, "report list timed out", func(ctx context.Context) ([]*report.UserReport, error) {
		return s.Repo.List(ctx, userID)
	})
}

// Delete removes one report.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	_, err := application.WithDeadline(ctx, s.OpTimeout, "report delete timed out", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Repo.Delete(ctx, userID, id)
	})
	return err
}

// CreateShareLink issues a time-boxed pointer to an existing report.
// TTL defaults to the configured window and is clamped to the maximum.
func (s *Service) CreateShareLink(ctx context.Context, userID, reportID string, ttlHours int) (*share.Link, error) {
	// The report must exist and belong to the owner before a link points at it.
	if _, err := s.Repo.Get(ctx, userID, reportID); err != nil {
		return nil, err
	}
	if ttlHours <= 0 {
		ttlHours = s.ShareHours
	}
	if ttlHours > maxShareHours {
		ttlHours = maxShareHours
	}
	now := s.Clock.Now()
	link := &share.Link{
		ID:        uuid.New().String(),
		ReportID:  reportID,
		OwnerID:   userID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(ttlHours) * time.Hour),
	}
	if err := s.Shares.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save share link: %w", err)
	}
	return link, nil
}

// ResolveShareLink validates a link and dereferences the report it
// points at. The report is never mutated during resolution; the access
// count increment is best effort.
func (s *Service) ResolveShareLink(ctx context.Context, linkID string) (*report.UserReport, string, error) {
	link, err := s.Shares.Get(ctx, linkID)
	if err != nil {
		return nil, "", err
	}
	if link.Expired(s.Clock.Now()) {
		return nil, "", share.ErrExpired
	}
	rec, err := s.Repo.Get(ctx, link.OwnerID, link.ReportID)
	if err != nil {
		return nil, "", err
	}
	if err := s.Shares.IncrementAccess(ctx, linkID); err != nil {
		s.Log.Warn().Err(err).Str("link", linkID).Msg("share access count increment failed")
	}
	return rec, link.OwnerID, nil
}
