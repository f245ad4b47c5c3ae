package model

import "time"

// SessionRecord is what the service reported about a finished session.
type SessionRecord struct {
	// SessionID is the identifier returned by the start call.
	SessionID string `json:"session_id"`
	// Config is the channel selection the session ran with.
	Config SessionConfig `json:"config"`
	// StartTime is when the service started the session.
	StartTime time.Time `json:"start_time"`
	// EndTime is when the service stopped the session.
	EndTime time.Time `json:"end_time"`
	// Duration as reported by the service.
	Duration time.Duration `json:"duration"`
}

// DisplayDuration returns Duration, falling back to EndTime-StartTime.
func (r *SessionRecord) DisplayDuration() time.Duration {
	if r.Duration > 0 {
		return r.Duration
	}
	if !r.EndTime.IsZero() && r.EndTime.After(r.StartTime) {
		return r.EndTime.Sub(r.StartTime)
	}
	return 0
}
