package notify

import (
	"time"

	"github.com/lazyvibe/axial/internal/model"
)

// SampleScore is the score shown on sample notifications.
const SampleScore = 67

// FireSamples raises one notification of each kind so the user can check
// how popups look and sound. It returns the new ids in order.
func FireSamples(b *Broker) []string {
	return []string{
		b.PostureCheck("You're starting to slouch. Try rolling your shoulders back and lifting your head.", SampleScore),
		b.EyeStrainAlert("Your eyes need a breather. Look 20 feet away for a few seconds to reset.", SampleScore),
		b.FocusAlert("Lost focus for a moment... let's get back into it!", SampleScore),
		b.Custom(model.TransientNotification{
			Title:    "Custom Notification",
			Body:     "This is a custom notification with custom duration",
			Score:    model.Score(42),
			Duration: 3 * time.Second,
		}),
	}
}
