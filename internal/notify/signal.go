package notify

// Signal is a coalescing change notifier. Notify never blocks; a reader that
// falls behind sees a single pending value.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Notify records a change.
func (s *Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel to wait on.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}
