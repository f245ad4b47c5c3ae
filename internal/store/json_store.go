package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lazyvibe/axial/internal/model"
)

// maxRecords bounds the history file.
const maxRecords = 500

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord is returned when a record has no session ID.
	ErrInvalidRecord = errors.New("record has no session id")
)

// data represents the JSON file structure.
type data struct {
	Sessions []model.SessionRecord `json:"sessions"`
}

// JSONStore implements RecordStore using JSON file persistence.
type JSONStore struct {
	mu   sync.RWMutex
	path string
	data *data
}

// NewJSONStore creates a new JSON file-based store in configDir.
func NewJSONStore(configDir string) (*JSONStore, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	s := &JSONStore{
		path: filepath.Join(configDir, "sessions.json"),
		data: &data{Sessions: []model.SessionRecord{}},
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// load reads data from the JSON file.
func (s *JSONStore) load() error {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(content, s.data)
}

// save writes data to the JSON file via a temp file and rename.
func (s *JSONStore) save() error {
	content, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close is a no-op; every write is flushed immediately.
func (s *JSONStore) Close() error {
	return nil
}

// Append adds a record, replacing an existing one with the same session ID.
func (s *JSONStore) Append(_ context.Context, r *model.SessionRecord) error {
	if r == nil || r.SessionID == "" {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Sessions {
		if s.data.Sessions[i].SessionID == r.SessionID {
			s.data.Sessions[i] = *r
			return s.save()
		}
	}

	s.data.Sessions = append(s.data.Sessions, *r)
	if len(s.data.Sessions) > maxRecords {
		s.data.Sessions = s.data.Sessions[len(s.data.Sessions)-maxRecords:]
	}
	return s.save()
}

// Recent returns records sorted by StartTime descending.
func (s *JSONStore) Recent(_ context.Context, limit int) ([]model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.SessionRecord, len(s.data.Sessions))
	copy(result, s.data.Sessions)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Get retrieves a record by session ID.
func (s *JSONStore) Get(_ context.Context, sessionID string) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Sessions {
		if s.data.Sessions[i].SessionID == sessionID {
			r := s.data.Sessions[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}
