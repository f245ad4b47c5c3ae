package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/rs/zerolog"
)

// DefaultDuration is how long convenience alerts stay on screen.
const DefaultDuration = 5 * time.Second

// entry pairs a notification with its pending dismiss timer.
type entry struct {
	n     model.TransientNotification
	timer *time.Timer
}

// Broker keeps an ordered list of auto-expiring notifications. Every entry
// owns an independent timer; removing one never affects the others.
type Broker struct {
	mu      sync.Mutex
	entries []*entry
	bridge  Bridge
	log     zerolog.Logger
	change  *Signal
	now     func() time.Time

	// maxVisible caps the number of entries; the oldest is evicted first.
	// Zero means unlimited.
	maxVisible int
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithMaxVisible caps the number of live entries.
func WithMaxVisible(n int) BrokerOption {
	return func(b *Broker) { b.maxVisible = n }
}

// WithLogger sets the broker's logger.
func WithLogger(log zerolog.Logger) BrokerOption {
	return func(b *Broker) { b.log = log }
}

// NewBroker creates a Broker that mirrors new notifications to bridge.
// A nil bridge disables native popups.
func NewBroker(bridge Bridge, opts ...BrokerOption) *Broker {
	if bridge == nil {
		bridge = NopBridge{}
	}
	b := &Broker{
		bridge: bridge,
		log:    zerolog.Nop(),
		change: NewSignal(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add inserts n at the tail with a fresh id and returns the id. When
// n.Duration is positive the entry is removed after that delay.
func (b *Broker) Add(n model.TransientNotification) string {
	n.ID = uuid.NewString()
	n.CreatedAt = b.now()
	if n.Category == "" {
		n.Category = model.CategoryDefault
	}
	if n.Duration < 0 {
		n.Duration = 0
	}

	e := &entry{n: n}
	var evicted []*entry

	b.mu.Lock()
	b.entries = append(b.entries, e)
	if n.Duration > 0 {
		id := n.ID
		e.timer = time.AfterFunc(n.Duration, func() { b.expire(id) })
	}
	if b.maxVisible > 0 && len(b.entries) > b.maxVisible {
		over := len(b.entries) - b.maxVisible
		evicted = append(evicted, b.entries[:over]...)
		b.entries = append([]*entry(nil), b.entries[over:]...)
	}
	b.mu.Unlock()

	for _, old := range evicted {
		stopTimer(old)
	}

	b.log.Debug().
		Str("id", n.ID).
		Str("title", n.Title).
		Str("category", string(n.Category)).
		Dur("duration", n.Duration).
		Msg("notification added")

	b.change.Notify()
	b.bridge.Show(n.Title, n.Body, n.ID)
	return n.ID
}

// Remove dismisses the entry with id and cancels its timer. Unknown ids are
// ignored.
func (b *Broker) Remove(id string) {
	if b.remove(id) {
		b.change.Notify()
	}
}

func (b *Broker) expire(id string) {
	if b.remove(id) {
		b.log.Debug().Str("id", id).Msg("notification expired")
		b.change.Notify()
	}
}

func (b *Broker) remove(id string) bool {
	b.mu.Lock()
	var found *entry
	for i, e := range b.entries {
		if e.n.ID == id {
			found = e
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		return false
	}
	stopTimer(found)
	return true
}

// ClearAll removes every entry and cancels all pending timers.
func (b *Broker) ClearAll() {
	b.mu.Lock()
	entries := b.entries
	b.entries = nil
	b.mu.Unlock()

	for _, e := range entries {
		stopTimer(e)
	}
	if len(entries) > 0 {
		b.change.Notify()
	}
}

// List returns the live notifications in insertion order.
func (b *Broker) List() []model.TransientNotification {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]model.TransientNotification, len(b.entries))
	for i, e := range b.entries {
		result[i] = e.n
	}
	return result
}

// Len returns the number of live notifications.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Pending returns how many entries still have an armed timer.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, e := range b.entries {
		if e.timer != nil {
			n++
		}
	}
	return n
}

// Changes returns a coalescing channel signalled after every mutation.
func (b *Broker) Changes() <-chan struct{} {
	return b.change.C()
}

// ---------- Convenience constructors ----------

// PostureCheck raises a posture alert.
func (b *Broker) PostureCheck(body string, score int) string {
	return b.Add(model.TransientNotification{
		Title:    "Posture check!",
		Body:     body,
		Score:    model.Score(score),
		Category: model.CategoryPosture,
		Duration: DefaultDuration,
	})
}

// EyeStrainAlert raises an eye strain alert.
func (b *Broker) EyeStrainAlert(body string, score int) string {
	return b.Add(model.TransientNotification{
		Title:    "Take a break!",
		Body:     body,
		Score:    model.Score(score),
		Category: model.CategoryEyeStrain,
		Duration: DefaultDuration,
	})
}

// FocusAlert raises a focus alert.
func (b *Broker) FocusAlert(body string, score int) string {
	return b.Add(model.TransientNotification{
		Title:    "Focus",
		Body:     body,
		Score:    model.Score(score),
		Category: model.CategoryFocus,
		Duration: DefaultDuration,
	})
}

// Custom adds an arbitrary notification with a caller-supplied duration.
func (b *Broker) Custom(n model.TransientNotification) string {
	return b.Add(n)
}

func stopTimer(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
}
