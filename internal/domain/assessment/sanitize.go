package assessment

import (
	"regexp"
	"strings"
)

// The model is asked for markdown only, but occasionally wraps output
// in a fenced block or a full HTML document. The failure modes are
// narrow and known, so this is a sequential strip of exactly those
// constructs, not an HTML parser.
var (
	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*\n?")
	trailingFence = regexp.MustCompile("```\n?$")
	styleBlock    = regexp.MustCompile(`(?is)<style>.*?</style>`)
	headBlock     = regexp.MustCompile(`(?is)<head>.*?</head>`)
	doctypeTag    = regexp.MustCompile(`(?i)<!DOCTYPE html>`)
	htmlTags      = regexp.MustCompile(`(?i)</?html>`)
	bodyTags      = regexp.MustCompile(`(?i)</?body>`)
)

// StripCodeFences removes a leading ```lang marker and a trailing ```
// so fenced model output parses the same as unwrapped output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeReport strips the HTML-document artifacts the model sometimes
// emits around its markdown report.
func SanitizeReport(s string) string {
	s = StripCodeFences(s)
	s = styleBlock.ReplaceAllString(s, "")
	s = headBlock.ReplaceAllString(s, "")
	s = doctypeTag.ReplaceAllString(s, "")
	s = htmlTags.ReplaceAllString(s, "")
	s = bodyTags.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// CoerceUrgency maps arbitrary model output onto the urgency enum.
// Unrecognized values degrade to LOW rather than crashing a strict
// consumer downstream.
func CoerceUrgency(raw string) Urgency {
	u := Urgency(strings.ToUpper(strings.TrimSpace(raw)))
	if u.IsValid() {
		return u
	}
	return UrgencyLow
}

// Sanitize normalizes an assessment in place: report cleanup, urgency
// coercion, and non-nil list fields.
func (a *PreliminaryAssessment) Sanitize() {
	a.ReportMarkdown = SanitizeReport(a.ReportMarkdown)
	a.Urgency = CoerceUrgency(string(a.Urgency))
	if a.PotentialConditions == nil {
		a.PotentialConditions = []string{}
	}
	if a.RedFlags == nil {
		a.RedFlags = []string{}
	}
	if a.NextSteps == nil {
		a.NextSteps = []string{}
	}
	if a.GroundingSources == nil {
		a.GroundingSources = []GroundingSource{}
	}
}
