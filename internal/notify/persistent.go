package notify

import (
	"sync"

	"github.com/lazyvibe/axial/internal/model"
)

// PersistentStore holds at most one active warning per category.
type PersistentStore struct {
	mu     sync.RWMutex
	slots  map[model.WarningCategory]model.PersistentNotification
	change *Signal
}

// NewPersistentStore creates an empty store.
func NewPersistentStore() *PersistentStore {
	return &PersistentStore{
		slots:  make(map[model.WarningCategory]model.PersistentNotification, len(model.WarningCategories)),
		change: NewSignal(),
	}
}

// Set overwrites the category's slot. The notification's category and id are
// forced to match the slot.
func (s *PersistentStore) Set(category model.WarningCategory, n model.PersistentNotification) {
	n.Category = category
	n.ID = category.WarningID()
	n.Score = model.ClampScore(n.Score)

	s.mu.Lock()
	s.slots[category] = n
	s.mu.Unlock()
	s.change.Notify()
}

// Clear empties the category's slot. Clearing an empty slot is a no-op.
func (s *PersistentStore) Clear(category model.WarningCategory) {
	s.mu.Lock()
	_, ok := s.slots[category]
	delete(s.slots, category)
	s.mu.Unlock()
	if ok {
		s.change.Notify()
	}
}

// ClearAll empties every slot.
func (s *PersistentStore) ClearAll() {
	for _, c := range model.WarningCategories {
		s.Clear(c)
	}
}

// Get returns the category's warning, if any.
func (s *PersistentStore) Get(category model.WarningCategory) (model.PersistentNotification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.slots[category]
	return n, ok
}

// Posture returns the posture warning, or nil.
func (s *PersistentStore) Posture() *model.PersistentNotification {
	return s.slot(model.WarningPosture)
}

// Blink returns the blink warning, or nil.
func (s *PersistentStore) Blink() *model.PersistentNotification {
	return s.slot(model.WarningBlink)
}

func (s *PersistentStore) slot(category model.WarningCategory) *model.PersistentNotification {
	n, ok := s.Get(category)
	if !ok {
		return nil
	}
	return &n
}

// Changes returns a channel that receives a value after every mutation.
// Signals coalesce; a slow reader sees at most one pending value.
func (s *PersistentStore) Changes() <-chan struct{} {
	return s.change.C()
}
