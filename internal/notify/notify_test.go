package notify

import "sync"

// recordingBridge captures Show calls.
type recordingBridge struct {
	mu    sync.Mutex
	calls []shown
}

type shown struct {
	title, body, tag string
}

func (r *recordingBridge) RequestPermission() {}

func (r *recordingBridge) Show(title, body, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, shown{title, body, tag})
}

func (r *recordingBridge) Calls() []shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shown(nil), r.calls...)
}
