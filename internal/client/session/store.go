// Package session owns the client-side session lifecycle: the token store,
// the session guard that keeps the access token fresh, and the inactivity
// monitor that closes idle sessions.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/repositories/metadata"
)

// Fixed keys in durable storage.
const (
	tokenKey    = "auth.token"
	activityKey = "auth.last_activity"
)

// Store is the single owner of the current token record. It keeps the record
// in memory and mirrors every change to durable storage, so the session
// survives a restart. All other components read and write tokens only
// through the store.
type Store struct {
	mu     sync.Mutex
	repo   metadata.Repository
	rec    *models.TokenRecord
	loaded bool
}

// NewStore builds a Store over the given durable repository.
func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Get returns the current token record, reading from durable storage when
// memory is cold (first call after a restart). Absent or malformed stored
// content yields (nil, nil), never an error.
func (s *Store) Get(ctx context.Context) (*models.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.rec, nil
	}

	data, err := s.repo.Get(ctx, tokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load token record: %w", err)
	}
	s.loaded = true

	if len(data) == 0 {
		return nil, nil
	}

	var rec models.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// treat malformed storage as "not logged in"
		return nil, nil
	}
	s.rec = &rec
	return s.rec, nil
}

// Set replaces the current record in memory and durable storage.
func (s *Store) Set(ctx context.Context, rec *models.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}
	if err := s.repo.Set(ctx, tokenKey, data); err != nil {
		return fmt.Errorf("failed to persist token record: %w", err)
	}

	s.rec = rec
	s.loaded = true
	return nil
}

// Clear removes the record from memory and wipes all session state from
// durable storage, the recorded last activity included. There is nothing
// worth keeping in the metadata namespace once the session is over.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}

	s.rec = nil
	s.loaded = true
	return nil
}

// LastActivity returns the persisted last-interaction instant, or the zero
// time when none was recorded (or the stored value is malformed).
func (s *Store) LastActivity(ctx context.Context) (time.Time, error) {
	data, err := s.repo.Get(ctx, activityKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load last activity: %w", err)
	}
	if len(data) == 0 {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// SetLastActivity persists the last-interaction instant.
func (s *Store) SetLastActivity(ctx context.Context, t time.Time) error {
	if err := s.repo.Set(ctx, activityKey, []byte(t.Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("failed to persist last activity: %w", err)
	}
	return nil
}
