package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/oauth"
	"github.com/ndemidov/cargotrail/internal/logging"
)

// ErrSessionExpired means the session cannot be continued without a new
// login: there is no usable token and the refresh token (if any) was
// rejected. Callers must treat this as a logout.
var ErrSessionExpired = errors.New("session expired")

// AuthClient is the slice of the oauth client the guard needs.
type AuthClient interface {
	RefreshGrant(ctx context.Context, refreshToken string) (*models.TokenRecord, error)
}

// Guard decides whether a request may proceed with the current access token
// and performs the refresh exchange when it may not.
type Guard struct {
	store  *Store
	auth   AuthClient
	margin time.Duration
	log    logging.Logger

	// sf collapses concurrent refresh attempts into a single exchange;
	// late callers wait for and share the first caller's result.
	sf singleflight.Group

	// now is a test seam for time.Now.
	now func() time.Time
}

// NewGuard builds a Guard. margin is the safety window before the recorded
// expiry within which the token is already considered stale, so a request
// does not race its own token's expiry mid-flight.
func NewGuard(store *Store, auth AuthClient, margin time.Duration, log logging.Logger) *Guard {
	return &Guard{
		store:  store,
		auth:   auth,
		margin: margin,
		log:    log,
		now:    time.Now,
	}
}

// HasValidAccessToken reports whether a token record exists and its expiry
// is more than the safety margin in the future.
func (g *Guard) HasValidAccessToken(ctx context.Context) bool {
	rec, err := g.store.Get(ctx)
	if err != nil || rec == nil {
		return false
	}
	return rec.ExpiresAt.After(g.now().Add(g.margin))
}

// EnsureFreshToken returns the current record when it is still valid;
// otherwise it performs one refresh exchange, persists the result, and
// returns the new record. Concurrent callers share a single exchange.
// A rejected or missing refresh token clears the store and yields
// ErrSessionExpired.
func (g *Guard) EnsureFreshToken(ctx context.Context) (*models.TokenRecord, error) {
	if g.HasValidAccessToken(ctx) {
		return g.store.Get(ctx)
	}

	v, err, _ := g.sf.Do(tokenKey, func() (any, error) {
		// the winner of the flight may already have refreshed for us
		if g.HasValidAccessToken(ctx) {
			return g.store.Get(ctx)
		}
		return g.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TokenRecord), nil
}

func (g *Guard) refresh(ctx context.Context) (*models.TokenRecord, error) {
	rec, err := g.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.RefreshToken == "" {
		// a record with no refresh token is a dead session; drop it so
		// the user does not keep showing up as logged in
		if rec != nil {
			if clearErr := g.store.Clear(ctx); clearErr != nil {
				g.log.Error(ctx, "failed to clear token store", "error", clearErr)
			}
		}
		return nil, ErrSessionExpired
	}

	fresh, err := g.auth.RefreshGrant(ctx, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, oauth.ErrRefreshRejected) {
			g.log.Warn(ctx, "refresh token rejected, closing session")
			if clearErr := g.store.Clear(ctx); clearErr != nil {
				g.log.Error(ctx, "failed to clear token store", "error", clearErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if err := g.store.Set(ctx, fresh); err != nil {
		return nil, err
	}

	g.log.Info(ctx, "access token refreshed", "expires_at", fresh.ExpiresAt)
	return fresh, nil
}
