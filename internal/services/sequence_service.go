package services

import (
	"context"
	"database/sql"
	"fmt"
)

// Counter namespaces handed out by the sequence service.
const (
	CounterUserID  = "userid"
	CounterEntryID = "entryid"
)

// SequenceServiceProvider defines the interface for id allocation.
type SequenceServiceProvider interface {
	Next(ctx context.Context, name string) (int64, error)
}

// SequenceService mints monotonically increasing ids from named counters in
// the database. The increment and the fetch are a single statement, so two
// concurrent callers can never observe the same value.
type SequenceService struct {
	db *sql.DB
}

// NewSequenceService creates a new SequenceService.
func NewSequenceService(db *sql.DB) *SequenceService {
	return &SequenceService{db: db}
}

// Next atomically increments the named counter and returns the new value.
func (s *SequenceService) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		"UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value", name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("unknown counter %q", name)
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %q: %w", name, err)
	}
	return value, nil
}
