package notify

import (
	"testing"

	"github.com/lazyvibe/axial/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentSetOverwrites(t *testing.T) {
	s := NewPersistentStore()

	s.Set(model.WarningPosture, model.PersistentNotification{Title: "A", Body: "first"})
	s.Set(model.WarningPosture, model.PersistentNotification{Title: "B", Body: "second"})

	got := s.Posture()
	require.NotNil(t, got)
	assert.Equal(t, "B", got.Title)
	assert.Equal(t, "posture-warning", got.ID)
	assert.Equal(t, model.WarningPosture, got.Category)
	assert.Nil(t, s.Blink())
}

func TestPersistentCategoriesIndependent(t *testing.T) {
	s := NewPersistentStore()

	s.Set(model.WarningPosture, model.PersistentNotification{Title: "posture"})
	s.Set(model.WarningBlink, model.PersistentNotification{Title: "blink", Score: 150})

	s.Clear(model.WarningPosture)
	assert.Nil(t, s.Posture())

	blink := s.Blink()
	require.NotNil(t, blink)
	assert.Equal(t, "blink-warning", blink.ID)
	assert.Equal(t, 100, blink.Score)
}

func TestPersistentClearIdempotent(t *testing.T) {
	s := NewPersistentStore()

	s.Clear(model.WarningBlink)
	s.Clear(model.WarningBlink)
	s.ClearAll()

	_, ok := s.Get(model.WarningBlink)
	assert.False(t, ok)
	select {
	case <-s.Changes():
		t.Fatal("clearing empty slots should not signal a change")
	default:
	}
}

func TestPersistentChangesSignal(t *testing.T) {
	s := NewPersistentStore()

	s.Set(model.WarningBlink, model.PersistentNotification{Title: "x"})
	s.Set(model.WarningBlink, model.PersistentNotification{Title: "y"})

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change signal")
	}
}
