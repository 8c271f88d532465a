package intake

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense-api/internal/application"
	domai "github.com/medisense/medisense-api/internal/domain/ai"
	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
	"github.com/medisense/medisense-api/internal/infra/ai/prompt"
)

const defaultExtractTimeout = 30 * time.Second

// Service owns the in-progress intake sessions for all users and runs
// the best-effort voice extraction on top of them. Sessions are
// transient, user-local state: one logical thread of control each,
// guarded here because HTTP handlers may overlap.
type Service struct {
	Gateway        domai.Gateway
	Clock          application.Clock
	Log            zerolog.Logger
	FlashModel     string
	ExtractTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*intake.Session
}

func NewService(gateway domai.Gateway, clock application.Clock, log zerolog.Logger, flashModel string) *Service {
	return &Service{
		Gateway:        gateway,
		Clock:          clock,
		Log:            log,
		FlashModel:     flashModel,
		ExtractTimeout: defaultExtractTimeout,
		sessions:       make(map[string]*intake.Session),
	}
}

// CreateSession opens a new intake session for the user.
func (s *Service) CreateSession(userID string) *intake.Session {
	sess := intake.NewSession(uuid.New().String(), userID, s.Clock.Now())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess.Clone()
}

// Session returns a snapshot of an open session.
func (s *Service) Session(userID, id string) (*intake.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// AttachMedia appends an uploaded file or camera frame to the session's
// ordered media list.
func (s *Service) AttachMedia(userID, id string, data []byte, mime, name string, src intake.MediaSource) (*intake.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return nil, err
	}
	if err := sess.AddMedia(data, mime, name, src); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// RemoveMedia drops the attachment at index.
func (s *Service) RemoveMedia(userID, id string, index int) (*intake.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveMedia(index); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// StartRecording claims the session's microphone stream, releasing any
// previous one, and returns the opaque capture handle.
func (s *Service) StartRecording(userID, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return "", err
	}
	handle := uuid.New().String()
	sess.StartRecording(handle)
	return handle, nil
}

// StopRecording releases the stream and attaches the captured audio.
func (s *Service) StopRecording(userID, id, handle string, data []byte, mime string) (*intake.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return nil, err
	}
	if err := sess.StopRecording(handle, data, mime); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// UpdatePatient replaces the form with the user's edited state.
func (s *Service) UpdatePatient(userID, id string, p intake.PatientData) (*intake.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.locked(userID, id)
	if err != nil {
		return nil, err
	}
	sess.Patient = p
	return sess.Clone(), nil
}

// Close discards a session, e.g. after its report has been persisted.
func (s *Service) Close(userID, id string) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && sess.UserID == userID {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}

// ExtractFromVoice sends the session's audio clip to the fast model and
// merges extracted fields into the form, filling empty fields only.
// Extraction is best effort layered on a mandatory manual form: any
// failure — timeout, parse error, no audio — yields an empty result and
// leaves the form as the user left it. Submission never blocks on it.
func (s *Service) ExtractFromVoice(ctx context.Context, userID, id string) (intake.ExtractedPatientInfo, *intake.Session, error) {
	s.mu.Lock()
	sess, err := s.locked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return intake.ExtractedPatientInfo{}, nil, err
	}
	audio := sess.Audio
	s.mu.Unlock()

	if audio == nil {
		return intake.ExtractedPatientInfo{}, s.snapshot(id), nil
	}

	info := s.extract(ctx, *audio)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err = s.locked(userID, id)
	if err != nil {
		return intake.ExtractedPatientInfo{}, nil, err
	}
	sess.Patient.Merge(info)
	return info, sess.Clone(), nil
}

func (s *Service) extract(ctx context.Context, audio intake.DiagnosticMedia) intake.ExtractedPatientInfo {
	var empty intake.ExtractedPatientInfo

	data, err := base64.StdEncoding.DecodeString(audio.Data)
	if err != nil {
		s.Log.Warn().Err(err).Msg("voice extraction: undecodable audio payload")
		return empty
	}

	timeout := s.ExtractTimeout
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	resp, err := s.Gateway.Invoke(ctx, domai.Request{
		Model: s.FlashModel,
		Parts: []domai.Part{
			domai.TextPart(prompt.VoiceExtraction()),
			domai.InlinePart(data, audio.MIME),
		},
		Schema:          extractionSchema(),
		Timeout:         timeout,
		DeadlineMessage: "audio extraction timed out after 30 seconds",
	})
	if err != nil {
		s.Log.Warn().Err(err).Msg("voice extraction failed")
		return empty
	}

	var info intake.ExtractedPatientInfo
	if err := json.Unmarshal([]byte(assessment.StripCodeFences(resp.Text)), &info); err != nil {
		s.Log.Warn().Err(err).Msg("voice extraction: unparsable model output")
		return empty
	}
	info.Age = intake.NormalizeAge(info.Age)
	return info
}

func (s *Service) snapshot(id string) *intake.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone()
	}
	return nil
}

func (s *Service) locked(userID, id string) (*intake.Session, error) {
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, intake.ErrSessionNotFound
	}
	return sess, nil
}

func extractionSchema() *domai.Schema {
	return &domai.Schema{
		Fields: []domai.Field{
			{Name: "name", Type: domai.FieldString},
			{Name: "age", Type: domai.FieldString},
			{Name: "gender", Type: domai.FieldString},
			{Name: "symptoms", Type: domai.FieldString},
			{Name: "duration", Type: domai.FieldString},
			{Name: "history", Type: domai.FieldString},
		},
	}
}
