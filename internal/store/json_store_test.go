package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lazyvibe/axial/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStorePersistsRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	s, err := NewJSONStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, &model.SessionRecord{SessionID: "a", StartTime: base, Duration: time.Minute}))
	require.NoError(t, s.Append(ctx, &model.SessionRecord{SessionID: "b", StartTime: base.Add(time.Hour)}))
	require.NoError(t, s.Close())

	reopened, err := NewJSONStore(dir)
	require.NoError(t, err)

	recent, err := reopened.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].SessionID)
	assert.Equal(t, "a", recent[1].SessionID)

	got, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, got.Duration)

	_, err = os.Stat(filepath.Join(dir, "sessions.json"))
	assert.NoError(t, err)
}

func TestJSONStoreAppendReplacesSameSession(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &model.SessionRecord{SessionID: "a"}))
	require.NoError(t, s.Append(ctx, &model.SessionRecord{SessionID: "a", Duration: time.Second}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, time.Second, recent[0].Duration)
}

func TestJSONStoreErrors(t *testing.T) {
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Append(context.Background(), &model.SessionRecord{}), ErrInvalidRecord)
	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
