package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies a stream event variant.
type EventType string

const (
	EventPostureWarning  EventType = "posture_warning"
	EventPostureResolved EventType = "posture_resolved"
	EventBlinkWarning    EventType = "blink_warning"
	EventBlinkResolved   EventType = "blink_resolved"
)

// Blink resolution statuses.
const (
	BlinkBackToNormal   = "back_to_normal"
	BlinkFaceNotVisible = "face_not_visible"
)

var (
	// ErrMalformedEvent is returned when a frame is not a JSON object.
	ErrMalformedEvent = errors.New("malformed stream event")
	// ErrUnknownEvent is returned when a frame carries an unrecognised type.
	ErrUnknownEvent = errors.New("unknown stream event")
)

// StreamEvent is one parsed frame of the live status stream.
type StreamEvent struct {
	Type   EventType `json:"type"`
	Status string    `json:"status,omitempty"`
	// BadDurationSec is set on posture_warning.
	BadDurationSec int `json:"bad_duration_sec,omitempty"`
	// BlinkRatePerMin is set on blink_warning and optionally on blink_resolved.
	BlinkRatePerMin *float64 `json:"blink_rate_per_min,omitempty"`
	// LowDurationSec is set on blink_warning.
	LowDurationSec int `json:"low_duration_sec,omitempty"`
}

// ParseStreamEvent decodes a text frame.
func ParseStreamEvent(data []byte) (StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return StreamEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch ev.Type {
	case EventPostureWarning, EventPostureResolved, EventBlinkWarning, EventBlinkResolved:
		return ev, nil
	case "":
		return StreamEvent{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	default:
		return StreamEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// Rate returns the blink rate and whether it was present.
func (e StreamEvent) Rate() (float64, bool) {
	if e.BlinkRatePerMin == nil {
		return 0, false
	}
	return *e.BlinkRatePerMin, true
}
