package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  \n```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"fence only at edges", "```json\ntext with ``` inside\n```", "text with ``` inside"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestSanitizeReport(t *testing.T) {
	in := "<!DOCTYPE html><html><head><title>x</title></head><body>\n" +
		"<style>body { color: red }</style>\n" +
		"# Clinical Report\n\nFindings here.\n</body></html>"
	got := SanitizeReport(in)
	assert.Equal(t, "# Clinical Report\n\nFindings here.", got)
}

func TestSanitizeReportKeepsPlainMarkdown(t *testing.T) {
	in := "# Report\n\n- item one\n- item two"
	assert.Equal(t, in, SanitizeReport(in))
}

func TestCoerceUrgency(t *testing.T) {
	assert.Equal(t, UrgencyHigh, CoerceUrgency("HIGH"))
	assert.Equal(t, UrgencyMedium, CoerceUrgency(" medium "))
	assert.Equal(t, UrgencyEmergency, CoerceUrgency("emergency"))
	assert.Equal(t, UrgencyLow, CoerceUrgency("SEVERE"))
	assert.Equal(t, UrgencyLow, CoerceUrgency(""))
}

func TestSanitizeFillsNilLists(t *testing.T) {
	a := PreliminaryAssessment{
		ReportMarkdown: "```markdown\n# Report\n```",
		Urgency:        "unknown",
	}
	a.Sanitize()

	assert.Equal(t, "# Report", a.ReportMarkdown)
	assert.Equal(t, UrgencyLow, a.Urgency)
	assert.NotNil(t, a.PotentialConditions)
	assert.NotNil(t, a.RedFlags)
	assert.NotNil(t, a.NextSteps)
	assert.NotNil(t, a.GroundingSources)
}
