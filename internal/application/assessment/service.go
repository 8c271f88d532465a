package assessment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	domai "github.com/medisense/medisense-api/internal/domain/ai"
	"github.com/medisense/medisense-api/internal/domain/assessment"
	"github.com/medisense/medisense-api/internal/domain/intake"
	"github.com/medisense/medisense-api/internal/infra/ai/prompt"
)

const defaultAnalysisTimeout = 180 * time.Second

// Service is the synthesizer: it turns an intake snapshot into a
// sanitized PreliminaryAssessment via one pro-model call. Nothing is
// retried; every failure surfaces as a typed error and resubmission is
// an explicit user act.
type Service struct {
	Gateway  domai.Gateway
	Log      zerolog.Logger
	ProModel string
	Timeout  time.Duration
}

func NewService(gateway domai.Gateway, log zerolog.Logger, proModel string) *Service {
	return &Service{
		Gateway:  gateway,
		Log:      log,
		ProModel: proModel,
		Timeout:  defaultAnalysisTimeout,
	}
}

// Analyze runs the full pipeline: validate, assemble the ordered parts
// list, invoke the model with the search tool on, parse defensively,
// sanitize, and attach grounding sources.
func (s *Service) Analyze(ctx context.Context, p intake.PatientData, media []intake.DiagnosticMedia, audio *intake.DiagnosticMedia) (*assessment.PreliminaryAssessment, error) {
	// No symptoms and no media: refuse before any network call.
	if err := intake.ValidateIntake(p, media); err != nil {
		return nil, err
	}

	parts, err := s.assembleParts(p, media, audio)
	if err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultAnalysisTimeout
	}
	started := time.Now()
	resp, err := s.Gateway.Invoke(ctx, domai.Request{
		Model:             s.ProModel,
		SystemInstruction: prompt.CaseSystemInstruction(),
		Parts:             parts,
		Schema:            assessmentSchema(),
		WebSearch:         true,
		Timeout:           timeout,
		DeadlineMessage:   "medical analysis timed out after 3 minutes; try again or provide less data",
	})
	if err != nil {
		s.Log.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("analysis call failed")
		return nil, err
	}

	var result assessment.PreliminaryAssessment
	if err := json.Unmarshal([]byte(assessment.StripCodeFences(resp.Text)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", assessment.ErrAnalysisFailed, err)
	}

	result.Sanitize()
	result.GroundingSources = groundingSources(resp.Grounding)

	s.Log.Info().
		Dur("elapsed", time.Since(started)).
		Int("media", len(media)).
		Str("urgency", string(result.Urgency)).
		Int("sources", len(result.GroundingSources)).
		Msg("analysis completed")
	return &result, nil
}

// assembleParts keeps the attachment order end to end: the case text
// first, every media item in the order the user attached it, the audio
// clip last. The model's narrative references media positionally.
func (s *Service) assembleParts(p intake.PatientData, media []intake.DiagnosticMedia, audio *intake.DiagnosticMedia) ([]domai.Part, error) {
	parts := make([]domai.Part, 0, len(media)+2)
	parts = append(parts, domai.TextPart(prompt.CaseDescription(p, len(media), audio != nil)))
	for _, m := range media {
		data, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: media %q has an undecodable payload", intake.ErrCapabilityDenied, m.Name)
		}
		parts = append(parts, domai.InlinePart(data, m.MIME))
	}
	if audio != nil {
		data, err := base64.StdEncoding.DecodeString(audio.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: audio payload undecodable", intake.ErrCapabilityDenied)
		}
		parts = append(parts, domai.InlinePart(data, audio.MIME))
	}
	return parts, nil
}

// groundingSources maps web citation chunks to title/uri pairs,
// filtering out non-web citation types.
func groundingSources(chunks []domai.GroundingChunk) []assessment.GroundingSource {
	sources := []assessment.GroundingSource{}
	for _, c := range chunks {
		if c.Web == nil {
			continue
		}
		sources = append(sources, assessment.GroundingSource{Title: c.Web.Title, URI: c.Web.URI})
	}
	return sources
}

func assessmentSchema() *domai.Schema {
	urgency := make([]string, 0, 4)
	for _, u := range assessment.Levels() {
		urgency = append(urgency, string(u))
	}
	return &domai.Schema{
		Fields: []domai.Field{
			{Name: "summary", Type: domai.FieldString, Description: "A one-sentence high-level summary."},
			{Name: "reportMarkdown", Type: domai.FieldString, Description: "Detailed clinical reasoning report in Markdown format."},
			{Name: "potentialConditions", Type: domai.FieldStringArray},
			{Name: "urgency", Type: domai.FieldString, Enum: urgency},
			{Name: "redFlags", Type: domai.FieldStringArray},
			{Name: "nextSteps", Type: domai.FieldStringArray},
			{Name: "disclaimer", Type: domai.FieldString},
		},
		Required: []string{"summary", "reportMarkdown", "potentialConditions", "urgency", "redFlags", "nextSteps", "disclaimer"},
	}
}
