package prompt

import (
	"fmt"

	"github.com/medisense/medisense-api/internal/domain/intake"
)

// CaseSystemInstruction mandates markdown-only output for the detailed
// report field. The model tends to wrap reports in HTML documents when
// this is left implicit; the sanitizer handles the stragglers.
func CaseSystemInstruction() string {
	return `You are a world-class senior diagnostic physician. You provide detailed clinical reasoning. Ensure the 'reportMarkdown' field contains a well-structured medical report in MARKDOWN format. Use # for main sections, ## for subsections, ### for field labels. Do NOT use HTML tags. Just clean Markdown.`
}

// CaseDescription builds the instructional text part for a full case
// analysis. Patient fields are interpolated; the media and audio parts
// follow this text in attachment order.
func CaseDescription(p intake.PatientData, mediaCount int, hasAudio bool) string {
	name := p.Name
	if name == "" {
		name = "Anonymous"
	}
	voice := "No"
	if hasAudio {
		voice = "Yes"
	}
	return fmt.Sprintf(`Perform a professional multimodal medical assessment for patient %s.

Patient Intake Data:
- Age: %s
- Gender: %s
- Reported Symptoms: %s
- Symptom Duration: %s
- Medical History: %s

Provided diagnostic attachments: %d files (images/PDFs).
Provided voice recording: %s.

INSTRUCTIONS:
1. Analyze ALL provided media files collectively.
2. Generate a comprehensive "Clinical Reasoning Report" in MARKDOWN format.
3. Use # for major sections, ## for sub-sections, ### for smaller headers, and - for lists.
4. You may use markdown tables for lab results.
5. The report should be professional and include Observations, Media Analysis, and Differential Reasoning.
6. Return the result in the specified JSON format.`,
		name, p.Age, p.Gender, p.Symptoms, p.Duration, p.History, mediaCount, voice)
}
