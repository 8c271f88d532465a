package intake

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession("sess-1", "user-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func TestAddMediaPreservesOrder(t *testing.T) {
	s := newTestSession()

	require.NoError(t, s.AddMedia([]byte("one"), "image/png", "first.png", SourceUpload))
	require.NoError(t, s.AddMedia([]byte("two"), "image/jpeg", "second.jpg", SourceCamera))

	require.Len(t, s.Media, 2)
	assert.Equal(t, "first.png", s.Media[0].Name)
	assert.Equal(t, "second.jpg", s.Media[1].Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("one")), s.Media[0].Data)
}

func TestAddMediaRejectsEmptyPayload(t *testing.T) {
	s := newTestSession()
	err := s.AddMedia(nil, "image/png", "x.png", SourceCamera)
	assert.ErrorIs(t, err, ErrCapabilityDenied)
	assert.Empty(t, s.Media)
}

func TestAddMediaRejectsMissingMIME(t *testing.T) {
	s := newTestSession()
	err := s.AddMedia([]byte("data"), "", "x.bin", SourceUpload)
	assert.ErrorIs(t, err, ErrCapabilityDenied)
}

func TestAddMediaDefaultsName(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.AddMedia([]byte("data"), "image/png", "", SourceCamera))
	assert.Equal(t, "camera-1", s.Media[0].Name)
}

func TestRemoveMedia(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.AddMedia([]byte("a"), "image/png", "a.png", SourceUpload))
	require.NoError(t, s.AddMedia([]byte("b"), "image/png", "b.png", SourceUpload))
	require.NoError(t, s.AddMedia([]byte("c"), "image/png", "c.png", SourceUpload))

	require.NoError(t, s.RemoveMedia(1))
	require.Len(t, s.Media, 2)
	assert.Equal(t, "a.png", s.Media[0].Name)
	assert.Equal(t, "c.png", s.Media[1].Name)

	assert.ErrorIs(t, s.RemoveMedia(2), ErrMediaIndexOutOfRange)
	assert.ErrorIs(t, s.RemoveMedia(-1), ErrMediaIndexOutOfRange)
}

func TestRecordingLifecycle(t *testing.T) {
	s := newTestSession()

	s.StartRecording("h1")
	assert.True(t, s.Recording())

	require.NoError(t, s.StopRecording("h1", []byte("audio"), "audio/webm"))
	assert.False(t, s.Recording())
	require.NotNil(t, s.Audio)
	assert.Equal(t, "voice-note", s.Audio.Name)
	assert.Equal(t, "audio/webm", s.Audio.MIME)
}

func TestStopRecordingStaleHandle(t *testing.T) {
	s := newTestSession()
	s.StartRecording("h1")
	s.StartRecording("h2") // restart releases h1

	assert.ErrorIs(t, s.StopRecording("h1", []byte("audio"), "audio/webm"), ErrNoActiveRecording)
	// The stale stop still released the stream.
	assert.False(t, s.Recording())
}

func TestStopRecordingEmptyCapture(t *testing.T) {
	s := newTestSession()
	s.StartRecording("h1")

	err := s.StopRecording("h1", nil, "audio/webm")
	assert.ErrorIs(t, err, ErrCapabilityDenied)
	assert.False(t, s.Recording())
	assert.Nil(t, s.Audio)
}

func TestStopRecordingDefaultsMIME(t *testing.T) {
	s := newTestSession()
	s.StartRecording("h1")
	require.NoError(t, s.StopRecording("h1", []byte("audio"), ""))
	assert.Equal(t, "audio/webm", s.Audio.MIME)
}

func TestValidateIntake(t *testing.T) {
	assert.ErrorIs(t, ValidateIntake(PatientData{}, nil), ErrNoInput)
	assert.ErrorIs(t, ValidateIntake(PatientData{Symptoms: "   "}, nil), ErrNoInput)
	assert.NoError(t, ValidateIntake(PatientData{Symptoms: "fever"}, nil))
	assert.NoError(t, ValidateIntake(PatientData{}, []DiagnosticMedia{{Name: "x", Data: "eA=="}}))
}

func TestCloneIsDeep(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.AddMedia([]byte("a"), "image/png", "a.png", SourceUpload))
	s.StartRecording("h1")
	require.NoError(t, s.StopRecording("h1", []byte("audio"), "audio/webm"))

	cp := s.Clone()
	cp.Media[0].Name = "mutated"
	cp.Audio.Name = "mutated"
	cp.Patient.Symptoms = "mutated"

	assert.Equal(t, "a.png", s.Media[0].Name)
	assert.Equal(t, "voice-note", s.Audio.Name)
	assert.Empty(t, s.Patient.Symptoms)
}

func TestMergeFillsOnlyEmptyFields(t *testing.T) {
	p := PatientData{Name: "Alice", Symptoms: "headache"}
	p.Merge(ExtractedPatientInfo{
		Name:     "Bob",
		Age:      "45 years",
		Gender:   "female",
		Symptoms: "fever",
		Duration: "3 days",
	})

	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "headache", p.Symptoms)
	assert.Equal(t, "45", p.Age)
	assert.Equal(t, "female", p.Gender)
	assert.Equal(t, "3 days", p.Duration)
}

func TestNormalizeAge(t *testing.T) {
	assert.Equal(t, "45", NormalizeAge("45 years old"))
	assert.Equal(t, "45", NormalizeAge("45"))
	assert.Equal(t, "", NormalizeAge("unknown"))
	assert.Equal(t, "", NormalizeAge(""))
}

func TestExtractedPatientInfoIsEmpty(t *testing.T) {
	assert.True(t, ExtractedPatientInfo{}.IsEmpty())
	assert.False(t, ExtractedPatientInfo{Age: "40"}.IsEmpty())
}
