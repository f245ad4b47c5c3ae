// Package model defines core data structures for Axial.
package model

import "time"

// SessionPhase represents the lifecycle phase of a monitoring session.
type SessionPhase string

const (
	// PhaseIdle indicates no session is running.
	PhaseIdle SessionPhase = "idle"
	// PhaseStarting indicates the remote start call is in flight.
	PhaseStarting SessionPhase = "starting"
	// PhaseActive indicates the session is running and the stream is open.
	PhaseActive SessionPhase = "active"
	// PhaseStopping indicates the remote stop call is in flight.
	PhaseStopping SessionPhase = "stopping"
)

// Busy reports whether a remote call is in flight.
func (p SessionPhase) Busy() bool {
	return p == PhaseStarting || p == PhaseStopping
}

// SessionConfig selects which monitoring channels are active.
type SessionConfig struct {
	// Posture enables posture detection.
	Posture bool `json:"posture"`
	// EyeStrain enables blink-rate detection.
	EyeStrain bool `json:"eyeStrain"`
	// Distractions enables distraction detection.
	Distractions bool `json:"distractions"`
}

// DefaultSessionConfig returns the channel selection used on first run.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Posture: true}
}

// Any reports whether at least one channel is enabled.
func (c SessionConfig) Any() bool {
	return c.Posture || c.EyeStrain || c.Distractions
}

// SessionState is a snapshot of the controller's state.
type SessionState struct {
	Phase     SessionPhase  `json:"phase"`
	SessionID string        `json:"session_id,omitempty"`
	StartTime time.Time     `json:"start_time,omitempty"`
	Config    SessionConfig `json:"config"`
	// LastError holds the most recent transport or stream failure, if any.
	LastError string `json:"last_error,omitempty"`
}

// Active reports whether a session is running.
func (s SessionState) Active() bool {
	return s.Phase == PhaseActive
}

// Elapsed returns how long the active session has been running.
func (s SessionState) Elapsed(now time.Time) time.Duration {
	if !s.Active() || s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

// NotificationConfig holds native notification settings.
type NotificationConfig struct {
	// Desktop enables desktop notifications via system APIs.
	Desktop bool `json:"desktop"`
	// WebhookURL is the optional URL to send webhook notifications.
	WebhookURL string `json:"webhook_url,omitempty"`
	// DedupWindowSec suppresses repeated popups with the same tag for this long.
	DedupWindowSec int `json:"dedup_window_sec,omitempty"`
	// RatePerMin caps how many popups may be shown per minute.
	RatePerMin int `json:"rate_per_min,omitempty"`
}
