package model

import "time"

// NotificationCategory classifies a transient notification.
type NotificationCategory string

const (
	CategoryPosture   NotificationCategory = "posture"
	CategoryEyeStrain NotificationCategory = "eye-strain"
	CategoryFocus     NotificationCategory = "focus"
	CategoryDefault   NotificationCategory = "default"
)

// TransientNotification is a toast-like alert that expires after Duration.
type TransientNotification struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Score    *int                 `json:"score,omitempty"`
	Category NotificationCategory `json:"category,omitempty"`
	// CreatedAt is stamped by the broker on insertion.
	CreatedAt time.Time `json:"created_at"`
	// Duration of zero means the notification is never auto-dismissed.
	Duration time.Duration `json:"duration"`
}

// WarningCategory discriminates persistent warnings. At most one warning
// per category is live at any time.
type WarningCategory string

const (
	WarningPosture WarningCategory = "posture"
	WarningBlink   WarningCategory = "blink"
)

// WarningCategories lists every persistent category.
var WarningCategories = []WarningCategory{WarningPosture, WarningBlink}

// WarningID returns the fixed identifier of a category's warning.
func (c WarningCategory) WarningID() string {
	return string(c) + "-warning"
}

// PersistentNotification is a single-slot warning that stays until resolved.
type PersistentNotification struct {
	ID       string          `json:"id"`
	Category WarningCategory `json:"category"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Score    int             `json:"score"`
}

// Score returns a pointer to a copy of v clamped to 0-100.
func Score(v int) *int {
	v = ClampScore(v)
	return &v
}

// ClampScore bounds v to the 0-100 range.
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
