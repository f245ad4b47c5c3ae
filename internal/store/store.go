// Package store persists session records reported by the service.
package store

import (
	"context"

	"github.com/lazyvibe/axial/internal/model"
)

// RecordStore defines the interface for session record persistence.
type RecordStore interface {
	// Append adds a finished session record.
	Append(ctx context.Context, r *model.SessionRecord) error
	// Recent returns up to limit records, newest first. A limit of zero
	// returns all records.
	Recent(ctx context.Context, limit int) ([]model.SessionRecord, error)
	// Get retrieves a record by session ID.
	Get(ctx context.Context, sessionID string) (*model.SessionRecord, error)
	// Close releases any resources held by the store.
	Close() error
}
