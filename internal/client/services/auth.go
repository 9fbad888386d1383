// Package services contains the application services of the CargoTrail CLI:
// session management on top of the oauth client and token store, and thin
// resource access through the request dispatcher.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/repositories/cache"
	"github.com/ndemidov/cargotrail/internal/client/session"
	"github.com/ndemidov/cargotrail/internal/logging"
)

// ErrNotLoggedIn is returned by Whoami when no session exists.
var ErrNotLoggedIn = errors.New("not logged in")

// PasswordGranter is the slice of the oauth client the auth service needs.
type PasswordGranter interface {
	PasswordGrant(ctx context.Context, username string, password []byte) (*models.TokenRecord, error)
}

// AuthService drives login and logout. Logout is also the inactivity
// monitor's timeout path: clear the token store and evict all cached data.
type AuthService struct {
	oauth   PasswordGranter
	store   *session.Store
	cache   cache.Repository
	monitor *session.Monitor
	log     logging.Logger
}

func NewAuthService(oauth PasswordGranter, store *session.Store, cache cache.Repository, monitor *session.Monitor, log logging.Logger) *AuthService {
	return &AuthService{oauth: oauth, store: store, cache: cache, monitor: monitor, log: log}
}

// Login exchanges the credentials, persists the resulting record, and
// re-arms the inactivity monitor.
func (s *AuthService) Login(ctx context.Context, username string, password []byte) (*models.TokenRecord, error) {
	rec, err := s.oauth.PasswordGrant(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	s.monitor.Rearm(ctx)

	s.log.Info(ctx, "logged in", "user", rec.User.ID, "expires_at", rec.ExpiresAt)
	return rec, nil
}

// Logout clears the token store and evicts every cached resource entry.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if err := s.cache.EvictAll(ctx); err != nil {
		s.log.Warn(ctx, "failed to evict resource cache", "error", err)
	}
	s.log.Info(ctx, "logged out")
	return nil
}

// Whoami returns the authenticated-user snapshot of the current session.
func (s *AuthService) Whoami(ctx context.Context) (*models.UserSnapshot, error) {
	rec, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotLoggedIn
	}
	return &rec.User, nil
}
