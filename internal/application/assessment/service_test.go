package assessment

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/medisense/medisense-api/internal/domain/ai"
	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
)

type fakeGateway struct {
	calls []domai.Request
	resp  *domai.Response
	err   error
}

func (f *fakeGateway) Invoke(_ context.Context, req domai.Request) (*domai.Response, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

const validAssessmentJSON = `{
  "summary": "Likely viral infection.",
  "reportMarkdown": "# Report\n\nDetails.",
  "potentialConditions": ["influenza"],
  "urgency": "MEDIUM",
  "redFlags": [],
  "nextSteps": ["rest", "hydration"],
  "disclaimer": "Not a diagnosis."
}`

func newTestService(gw *fakeGateway) *Service {
	return NewService(gw, zerolog.Nop(), "pro-model")
}

func TestAnalyzeRefusesEmptyIntake(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestService(gw)

	_, err := svc.Analyze(context.Background(), intake.PatientData{}, nil, nil)

	assert.ErrorIs(t, err, intake.ErrNoInput)
	assert.Empty(t, gw.calls, "no model call should happen on empty input")
}

func TestAnalyzePartOrdering(t *testing.T) {
	gw := &fakeGateway{resp: &domai.Response{Text: validAssessmentJSON}}
	svc := newTestService(gw)

	media := []intake.DiagnosticMedia{
		{Name: "first.png", MIME: "image/png", Data: b64("img1")},
		{Name: "second.jpg", MIME: "image/jpeg", Data: b64("img2")},
	}
	audio := &intake.DiagnosticMedia{Name: "voice-note", MIME: "audio/webm", Data: b64("clip")}

	_, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, media, audio)
	require.NoError(t, err)

	require.Len(t, gw.calls, 1)
	req := gw.calls[0]
	assert.Equal(t, "pro-model", req.Model)
	assert.True(t, req.WebSearch)
	assert.NotNil(t, req.Schema)
	assert.NotEmpty(t, req.SystemInstruction)

	require.Len(t, req.Parts, 4)
	assert.NotEmpty(t, req.Parts[0].Text)
	assert.Equal(t, []byte("img1"), req.Parts[1].Data)
	assert.Equal(t, "image/png", req.Parts[1].MIME)
	assert.Equal(t, []byte("img2"), req.Parts[2].Data)
	assert.Equal(t, []byte("clip"), req.Parts[3].Data)
	assert.Equal(t, "audio/webm", req.Parts[3].MIME)
}

func TestAnalyzeParsesFencedOutput(t *testing.T) {
	gw := &fakeGateway{resp: &domai.Response{Text: "```json\n" + validAssessmentJSON + "\n```"}}
	svc := newTestService(gw)

	result, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Likely viral infection.", result.Summary)
	assert.Equal(t, assessment.UrgencyMedium, result.Urgency)
}

func TestAnalyzeGarbageOutput(t *testing.T) {
	gw := &fakeGateway{resp: &domai.Response{Text: "I cannot help with that."}}
	svc := newTestService(gw)

	_, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, nil, nil)
	assert.ErrorIs(t, err, assessment.ErrAnalysisFailed)
}

func TestAnalyzeCoercesUnknownUrgency(t *testing.T) {
	body := `{"summary":"s","reportMarkdown":"r","urgency":"SEVERE","disclaimer":"d"}`
	gw := &fakeGateway{resp: &domai.Response{Text: body}}
	svc := newTestService(gw)

	result, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, assessment.UrgencyLow, result.Urgency)
	assert.NotNil(t, result.PotentialConditions)
	assert.NotNil(t, result.NextSteps)
}

func TestAnalyzeAttachesGroundingSources(t *testing.T) {
	gw := &fakeGateway{resp: &domai.Response{
		Text: validAssessmentJSON,
		Grounding: []domai.GroundingChunk{
			{Web: &domai.WebSource{Title: "NIH", URI: "https://nih.example/flu"}},
			{Web: nil}, // non-web citation, dropped
			{Web: &domai.WebSource{Title: "CDC", URI: "https://cdc.example/flu"}},
		},
	}}
	svc := newTestService(gw)

	result, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.GroundingSources, 2)
	assert.Equal(t, "NIH", result.GroundingSources[0].Title)
	assert.Equal(t, "https://cdc.example/flu", result.GroundingSources[1].URI)
}

func TestAnalyzeUndecodableMedia(t *testing.T) {
	gw := &fakeGateway{resp: &domai.Response{Text: validAssessmentJSON}}
	svc := newTestService(gw)

	media := []intake.DiagnosticMedia{{Name: "bad", MIME: "image/png", Data: "not-base64!!!"}}
	_, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, media, nil)

	assert.ErrorIs(t, err, intake.ErrCapabilityDenied)
	assert.Empty(t, gw.calls)
}

func TestAnalyzePropagatesGatewayErrors(t *testing.T) {
	gw := &fakeGateway{err: errors.Join(domai.ErrTimeout, errors.New("deadline"))}
	svc := newTestService(gw)

	_, err := svc.Analyze(context.Background(), intake.PatientData{Symptoms: "fever"}, nil, nil)
	assert.ErrorIs(t, err, domai.ErrTimeout)
}
