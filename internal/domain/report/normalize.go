package report

import (
	"strings"

	"github.com/medisense/medisense-api/internal/domain/intake"
)

// TruncationMarker is appended to an oversized payload to tag that data
// was cut for storage-size compliance.
const TruncationMarker = "...[TRUNCATED_DUE_TO_SIZE]"

// SavePolicy bounds what one record may carry inline.
type SavePolicy struct {
	// PayloadCap is the maximum encoded payload length stored inline.
	PayloadCap int
	// TruncatedPrefix is how much of an oversized payload survives inline.
	TruncatedPrefix int
}

// DefaultSavePolicy matches the storage limits the record store tolerates.
func DefaultSavePolicy() SavePolicy {
	return SavePolicy{PayloadCap: 500_000, TruncatedPrefix: 500}
}

// Normalize defensively coerces every field to its expected shape
// before the write. The assessment passed through a generative model,
// so nothing about it is trusted to already conform: list fields become
// non-nil arrays, the urgency and status enums are re-coerced, and
// empty-payload media entries are dropped.
func Normalize(r *UserReport) {
	r.Assessment.Sanitize()
	if !r.Status.IsValid() {
		r.Status = StatusCompleted
	}
	media := r.Media[:0]
	for _, m := range r.Media {
		if strings.TrimSpace(m.Data) == "" {
			continue
		}
		media = append(media, m)
	}
	r.Media = media
	if r.Media == nil {
		r.Media = []intake.DiagnosticMedia{}
	}
}

// Truncate enforces the payload cap on one media entry. It reports
// whether the entry was cut; the save still succeeds with degraded
// fidelity rather than failing the whole report.
func (p SavePolicy) Truncate(m *intake.DiagnosticMedia) bool {
	if len(m.Data) <= p.PayloadCap {
		return false
	}
	prefix := p.TruncatedPrefix
	if prefix <= 0 || prefix > p.PayloadCap {
		prefix = p.PayloadCap
	}
	m.Data = m.Data[:prefix] + TruncationMarker
	return true
}

// Truncated reports whether a stored payload carries the marker.
func Truncated(m intake.DiagnosticMedia) bool {
	return strings.HasSuffix(m.Data, TruncationMarker)
}
