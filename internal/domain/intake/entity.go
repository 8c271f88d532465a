package intake

import (
	"strings"
)

// MediaSource tells where an attachment came from.
type MediaSource string

const (
	SourceUpload MediaSource = "upload"
	SourceCamera MediaSource = "camera"
)

// DiagnosticMedia is one user-supplied attachment. Data is the base64
// payload; after persistence it may be a truncated prefix plus marker.
type DiagnosticMedia struct {
	Name string `json:"name"`
	MIME string `json:"mime_type"`
	Data string `json:"data"`
}

// PatientData is the clinical intake form. All fields are free text;
// age is normalized to digits during voice extraction.
type PatientData struct {
	Name     string `json:"name"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Symptoms string `json:"symptoms"`
	Duration string `json:"duration"`
	History  string `json:"history"`
}

// ExtractedPatientInfo is the partial form the voice extractor returns.
// Every field is optional; empty means the recording did not mention it.
type ExtractedPatientInfo struct {
	Name     string `json:"name"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Symptoms string `json:"symptoms"`
	Duration string `json:"duration"`
	History  string `json:"history"`
}

// IsEmpty reports whether the extraction produced nothing.
func (e ExtractedPatientInfo) IsEmpty() bool {
	return e.Name == "" && e.Age == "" && e.Gender == "" &&
		e.Symptoms == "" && e.Duration == "" && e.History == ""
}

// Merge fills only fields the user has not already completed. Existing
// non-empty input always wins over extracted values.
func (p *PatientData) Merge(e ExtractedPatientInfo) {
	if strings.TrimSpace(p.Name) == "" {
		p.Name = e.Name
	}
	if strings.TrimSpace(p.Age) == "" {
		p.Age = NormalizeAge(e.Age)
	}
	if strings.TrimSpace(p.Gender) == "" {
		p.Gender = e.Gender
	}
	if strings.TrimSpace(p.Symptoms) == "" {
		p.Symptoms = e.Symptoms
	}
	if strings.TrimSpace(p.Duration) == "" {
		p.Duration = e.Duration
	}
	if strings.TrimSpace(p.History) == "" {
		p.History = e.History
	}
}

// NormalizeAge strips everything but digits ("45 years" -> "45").
func NormalizeAge(age string) string {
	var b strings.Builder
	for _, r := range age {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
