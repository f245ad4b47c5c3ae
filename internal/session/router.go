package session

import (
	"fmt"
	"math"
	"time"

	"github.com/lazyvibe/axial/internal/model"
)

// ResolvedDuration is how long resolution toasts stay on screen.
const ResolvedDuration = 3 * time.Second

// normalBlinkRate is the blink rate treated as a full score.
const normalBlinkRate = 15.0

// MutationKind identifies a store mutation.
type MutationKind int

const (
	// SetWarning upserts a persistent warning.
	SetWarning MutationKind = iota
	// ClearWarning empties a persistent slot.
	ClearWarning
	// AddToast enqueues a transient notification.
	AddToast
)

// Mutation is a single change the router wants applied to the stores.
type Mutation struct {
	Kind     MutationKind
	Category model.WarningCategory
	Warning  model.PersistentNotification
	Toast    model.TransientNotification
}

// WarningStore is the persistent-notification surface the router writes to.
type WarningStore interface {
	Set(category model.WarningCategory, n model.PersistentNotification)
	Clear(category model.WarningCategory)
}

// ToastSink is the transient-notification surface the router writes to.
type ToastSink interface {
	Add(n model.TransientNotification) string
}

// Route maps a stream event to store mutations. It has no side effects.
// Unrecognised events yield no mutations.
func Route(ev model.StreamEvent) []Mutation {
	switch ev.Type {
	case model.EventPostureWarning:
		return []Mutation{{
			Kind:     SetWarning,
			Category: model.WarningPosture,
			Warning: model.PersistentNotification{
				Title: "Posture check!",
				Body:  fmt.Sprintf("You've been slouching for %s. Sit back and roll your shoulders.", formatSeconds(ev.BadDurationSec)),
				Score: postureScore(ev.BadDurationSec),
			},
		}}

	case model.EventPostureResolved:
		return []Mutation{
			{Kind: ClearWarning, Category: model.WarningPosture},
			{Kind: AddToast, Toast: model.TransientNotification{
				Title:    "Great job!",
				Body:     "Your posture is back on track.",
				Category: model.CategoryPosture,
				Duration: ResolvedDuration,
			}},
		}

	case model.EventBlinkWarning:
		rate, _ := ev.Rate()
		return []Mutation{{
			Kind:     SetWarning,
			Category: model.WarningBlink,
			Warning: model.PersistentNotification{
				Title: "Take a break!",
				Body: fmt.Sprintf("Blink rate has been %s blinks/min for %s. Look 20 feet away for 20 seconds.",
					formatRate(rate), formatSeconds(ev.LowDurationSec)),
				Score: blinkScore(rate),
			},
		}}

	case model.EventBlinkResolved:
		switch ev.Status {
		case model.BlinkBackToNormal:
			body := "Blink rate is back to normal."
			if rate, ok := ev.Rate(); ok {
				body = fmt.Sprintf("Blink rate back to %s blinks/min.", formatRate(rate))
			}
			return []Mutation{
				{Kind: ClearWarning, Category: model.WarningBlink},
				{Kind: AddToast, Toast: model.TransientNotification{
					Title:    "Eyes refreshed!",
					Body:     body,
					Category: model.CategoryEyeStrain,
					Duration: ResolvedDuration,
				}},
			}
		case model.BlinkFaceNotVisible:
			return []Mutation{
				{Kind: ClearWarning, Category: model.WarningBlink},
				{Kind: AddToast, Toast: model.TransientNotification{
					Title:    "Face not detected",
					Body:     "Camera cannot see your face. Please adjust camera position.",
					Category: model.CategoryEyeStrain,
					Duration: ResolvedDuration,
				}},
			}
		}
	}
	return nil
}

// Apply performs mutations against the stores in order.
func Apply(muts []Mutation, warnings WarningStore, toasts ToastSink) {
	for _, m := range muts {
		switch m.Kind {
		case SetWarning:
			warnings.Set(m.Category, m.Warning)
		case ClearWarning:
			warnings.Clear(m.Category)
		case AddToast:
			toasts.Add(m.Toast)
		}
	}
}

// postureScore drops one point per two seconds of continuous bad posture.
func postureScore(badSec int) int {
	return model.ClampScore(100 - badSec/2)
}

func blinkScore(rate float64) int {
	return model.ClampScore(int(math.Round(rate / normalBlinkRate * 100)))
}

func formatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	switch {
	case sec < 60:
		return fmt.Sprintf("%ds", sec)
	case sec%60 == 0:
		return fmt.Sprintf("%dm", sec/60)
	default:
		return fmt.Sprintf("%dm %ds", sec/60, sec%60)
	}
}

func formatRate(rate float64) string {
	if rate == math.Trunc(rate) {
		return fmt.Sprintf("%.0f", rate)
	}
	return fmt.Sprintf("%.1f", rate)
}
