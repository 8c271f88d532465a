package assessment

// Urgency is the triage level of an assessment. Values are wire-stable.
type Urgency string

const (
	UrgencyLow       Urgency = "LOW"
	UrgencyMedium    Urgency = "MEDIUM"
	UrgencyHigh      Urgency = "HIGH"
	UrgencyEmergency Urgency = "EMERGENCY"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

// Levels lists the accepted urgency values in ascending order.
func Levels() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency}
}

// GroundingSource is one web citation attached to the assessment.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// PreliminaryAssessment is the model's structured output, immutable
// once sanitized. List fields are never nil after Sanitize.
type PreliminaryAssessment struct {
	Summary             string            `json:"summary"`
	ReportMarkdown      string            `json:"reportMarkdown"`
	PotentialConditions []string          `json:"potentialConditions"`
	Urgency             Urgency           `json:"urgency"`
	RedFlags            []string          `json:"redFlags"`
	NextSteps           []string          `json:"nextSteps"`
	Disclaimer          string            `json:"disclaimer"`
	GroundingSources    []GroundingSource `json:"groundingSources"`
}
