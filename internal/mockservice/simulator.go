package mockservice

import (
	"math/rand/v2"
	"time"

	"github.com/lazyvibe/axial/internal/model"
)

// Sample is one simulated camera reading.
type Sample struct {
	PostureBad  bool
	FaceVisible bool
	BlinkRate   float64
}

// Thresholds controls when sustained readings become warnings.
type Thresholds struct {
	// PostureAfter is how long bad posture must last before a warning.
	PostureAfter time.Duration
	// LowBlinkRate is the blinks/min below which the rate counts as low.
	LowBlinkRate float64
	// LowBlinkAfter is how long a low rate must last before a warning.
	LowBlinkAfter time.Duration
}

// DefaultThresholds returns short thresholds suited to demos.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PostureAfter:  2 * time.Second,
		LowBlinkRate:  8,
		LowBlinkAfter: 2 * time.Second,
	}
}

// Simulator turns a sequence of samples into stream events. A warning is
// emitted once when a condition has persisted past its threshold, and a
// resolution once when it ends.
type Simulator struct {
	th Thresholds

	badSince      time.Time
	postureActive bool

	lowSince  time.Time
	lowActive bool
}

// NewSimulator creates a simulator with th.
func NewSimulator(th Thresholds) *Simulator {
	return &Simulator{th: th}
}

// Step feeds one sample taken at now and returns the events it produces.
func (s *Simulator) Step(now time.Time, smp Sample) []model.StreamEvent {
	var out []model.StreamEvent

	if smp.PostureBad {
		if s.badSince.IsZero() {
			s.badSince = now
		}
		bad := now.Sub(s.badSince)
		if !s.postureActive && bad >= s.th.PostureAfter {
			s.postureActive = true
			out = append(out, model.StreamEvent{
				Type:           model.EventPostureWarning,
				Status:         "prolonged_bad",
				BadDurationSec: int(bad.Seconds()),
			})
		}
	} else {
		s.badSince = time.Time{}
		if s.postureActive {
			s.postureActive = false
			out = append(out, model.StreamEvent{
				Type:   model.EventPostureResolved,
				Status: "back_to_good_or_unknown",
			})
		}
	}

	switch {
	case !smp.FaceVisible:
		s.lowSince = time.Time{}
		if s.lowActive {
			s.lowActive = false
			out = append(out, model.StreamEvent{
				Type:   model.EventBlinkResolved,
				Status: model.BlinkFaceNotVisible,
			})
		}
	case smp.BlinkRate < s.th.LowBlinkRate:
		if s.lowSince.IsZero() {
			s.lowSince = now
		}
		low := now.Sub(s.lowSince)
		if !s.lowActive && low >= s.th.LowBlinkAfter {
			s.lowActive = true
			rate := smp.BlinkRate
			out = append(out, model.StreamEvent{
				Type:            model.EventBlinkWarning,
				Status:          "prolonged_low_rate",
				BlinkRatePerMin: &rate,
				LowDurationSec:  int(low.Seconds()),
			})
		}
	default:
		s.lowSince = time.Time{}
		if s.lowActive {
			s.lowActive = false
			rate := smp.BlinkRate
			out = append(out, model.StreamEvent{
				Type:            model.EventBlinkResolved,
				Status:          model.BlinkBackToNormal,
				BlinkRatePerMin: &rate,
			})
		}
	}

	return out
}

// Reset forgets all running conditions.
func (s *Simulator) Reset() {
	*s = Simulator{th: s.th}
}

// randomWalk produces samples that drift between states so every event
// variant shows up within a few minutes.
type randomWalk struct {
	rng  *rand.Rand
	last Sample
}

func newRandomWalk(seed uint64) *randomWalk {
	return &randomWalk{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		last: Sample{FaceVisible: true, BlinkRate: 15},
	}
}

func (w *randomWalk) next() Sample {
	s := w.last
	if w.rng.Float64() < 0.15 {
		s.PostureBad = !s.PostureBad
	}
	if w.rng.Float64() < 0.05 {
		s.FaceVisible = !s.FaceVisible
	}
	if w.rng.Float64() < 0.2 {
		s.BlinkRate = float64(4 + w.rng.IntN(16))
	}
	w.last = s
	return s
}
