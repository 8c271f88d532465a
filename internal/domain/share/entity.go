package share

import "time"

// Link is a time-boxed, unauthenticated pointer to a stored report.
// It is never mutated after creation except for access counting.
type Link struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"report_id"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessCount int64     `json:"access_count"`
}

// Expired reports whether the link is past its TTL at the given time.
// The expiry instant itself counts as expired.
func (l *Link) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
