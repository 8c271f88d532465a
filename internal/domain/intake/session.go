package intake

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Session is the in-progress intake: the form plus the ordered media
// list, owned exclusively by one user until submission. Attachment
// order is preserved end to end; the model request references media
// positionally.
type Session struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
	Patient   PatientData       `json:"patient_data"`
	Media     []DiagnosticMedia `json:"media"`
	Audio     *DiagnosticMedia  `json:"audio,omitempty"`

	recorder string
}

func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		Media:     []DiagnosticMedia{},
	}
}

// AddMedia appends an attachment. Raw bytes are normalized to the
// base64 in-memory representation. Undecodable input (empty payload,
// missing MIME) is a capability failure, not fatal to the session.
func (s *Session) AddMedia(data []byte, mime, name string, src MediaSource) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty %s payload", ErrCapabilityDenied, src)
	}
	if mime == "" {
		return fmt.Errorf("%w: missing MIME type for %q", ErrCapabilityDenied, name)
	}
	if name == "" {
		name = fmt.Sprintf("%s-%d", src, len(s.Media)+1)
	}
	s.Media = append(s.Media, DiagnosticMedia{
		Name: name,
		MIME: mime,
		Data: base64.StdEncoding.EncodeToString(data),
	})
	return nil
}

// RemoveMedia drops the attachment at index, preserving the order of
// the rest.
func (s *Session) RemoveMedia(index int) error {
	if index < 0 || index >= len(s.Media) {
		return fmt.Errorf("%w: %d", ErrMediaIndexOutOfRange, index)
	}
	s.Media = append(s.Media[:index], s.Media[index+1:]...)
	return nil
}

// StartRecording claims the microphone. Starting a new recording
// releases any previous one first; the handle identifies the stream to
// stop.
func (s *Session) StartRecording(handle string) {
	s.recorder = handle
}

// StopRecording releases the stream and attaches the captured clip.
// The recorder is cleared on every exit path, including errors.
func (s *Session) StopRecording(handle string, data []byte, mime string) error {
	if s.recorder == "" || s.recorder != handle {
		s.recorder = ""
		return ErrNoActiveRecording
	}
	s.recorder = ""
	if len(data) == 0 {
		return fmt.Errorf("%w: recording produced no audio", ErrCapabilityDenied)
	}
	if mime == "" {
		mime = "audio/webm"
	}
	s.Audio = &DiagnosticMedia{
		Name: "voice-note",
		MIME: mime,
		Data: base64.StdEncoding.EncodeToString(data),
	}
	return nil
}

// Recording reports whether a capture stream is currently held.
func (s *Session) Recording() bool { return s.recorder != "" }

// Validate enforces the submission precondition: at least one of
// symptom text or attached media.
func (s *Session) Validate() error {
	return ValidateIntake(s.Patient, s.Media)
}

// ValidateIntake is the synthesizer's precondition check, shared with
// callers that carry the pieces separately.
func ValidateIntake(p PatientData, media []DiagnosticMedia) error {
	if strings.TrimSpace(p.Symptoms) == "" && len(media) == 0 {
		return ErrNoInput
	}
	return nil
}

// Clone returns a deep snapshot safe to hand outside the session lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Media = make([]DiagnosticMedia, len(s.Media))
	copy(cp.Media, s.Media)
	if s.Audio != nil {
		audio := *s.Audio
		cp.Audio = &audio
	}
	return &cp
}
