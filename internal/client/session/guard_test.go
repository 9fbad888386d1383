package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndemidov/cargotrail/internal/client/models"
	"github.com/ndemidov/cargotrail/internal/client/oauth"
	"github.com/ndemidov/cargotrail/internal/logging"
)

// fakeAuthClient counts refresh exchanges and serves a canned result.
type fakeAuthClient struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	rec   *models.TokenRecord
	err   error
}

func (f *fakeAuthClient) RefreshGrant(_ context.Context, _ string) (*models.TokenRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func (f *fakeAuthClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() logging.Logger {
	return logging.NewTextLogger(io.Discard, slog.LevelError)
}

func guardAt(t *testing.T, now time.Time, rec *models.TokenRecord, auth AuthClient) (*Guard, *Store) {
	t.Helper()
	store := NewStore(newFakeRepo())
	if rec != nil {
		require.NoError(t, store.Set(context.Background(), rec))
	}
	g := NewGuard(store, auth, 30*time.Second, testLogger())
	g.now = func() time.Time { return now }
	return g, store
}

func TestHasValidAccessToken_MarginBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"well in the future", now.Add(time.Hour), true},
		{"just beyond the margin", now.Add(31 * time.Second), true},
		{"exactly at the margin", now.Add(30 * time.Second), false},
		{"inside the margin", now.Add(10 * time.Second), false},
		{"already expired", now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			rec.ExpiresAt = tt.expiresAt
			g, _ := guardAt(t, now, rec, &fakeAuthClient{})
			assert.Equal(t, tt.want, g.HasValidAccessToken(context.Background()))
		})
	}
}

func TestHasValidAccessToken_NoRecord(t *testing.T) {
	g, _ := guardAt(t, time.Now(), nil, &fakeAuthClient{})
	assert.False(t, g.HasValidAccessToken(context.Background()))
}

func TestEnsureFreshToken_ValidTokenPassesThrough(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord()
	rec.ExpiresAt = now.Add(time.Hour)
	auth := &fakeAuthClient{}
	g, _ := guardAt(t, now, rec, auth)

	got, err := g.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.AccessToken, got.AccessToken)
	assert.Equal(t, 0, auth.callCount())
}

func TestEnsureFreshToken_RefreshesExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := testRecord()
	stale.ExpiresAt = now.Add(-time.Minute)

	fresh := testRecord()
	fresh.AccessToken = "acc2"
	fresh.ExpiresAt = now.Add(time.Hour)

	auth := &fakeAuthClient{rec: fresh}
	g, store := guardAt(t, now, stale, auth)

	got, err := g.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc2", got.AccessToken)
	assert.Equal(t, 1, auth.callCount())

	persisted, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc2", persisted.AccessToken)
}

func TestEnsureFreshToken_SingleFlight(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := testRecord()
	stale.ExpiresAt = now.Add(-time.Minute)

	fresh := testRecord()
	fresh.AccessToken = "acc2"
	fresh.ExpiresAt = now.Add(time.Hour)

	auth := &fakeAuthClient{rec: fresh, delay: 50 * time.Millisecond}
	g, _ := guardAt(t, now, stale, auth)

	const n = 10
	var wg sync.WaitGroup
	results := make([]*models.TokenRecord, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = g.EnsureFreshToken(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, auth.callCount(), "concurrent callers must share one exchange")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "acc2", results[i].AccessToken)
	}
}

func TestEnsureFreshToken_RefreshRejectedClosesSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := testRecord()
	stale.ExpiresAt = now.Add(-time.Minute)

	auth := &fakeAuthClient{err: fmt.Errorf("%w: invalid_token", oauth.ErrRefreshRejected)}
	g, store := guardAt(t, now, stale, auth)

	_, err := g.EnsureFreshToken(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	rec, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec, "store must be cleared after a rejected refresh")
	assert.False(t, g.HasValidAccessToken(context.Background()))
}

func TestEnsureFreshToken_NoRefreshToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord()
	rec.RefreshToken = ""
	rec.ExpiresAt = now.Add(-time.Minute)

	g, store := guardAt(t, now, rec, &fakeAuthClient{})

	_, err := g.EnsureFreshToken(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got, "a record without a refresh token must not survive expiry")
	assert.False(t, g.HasValidAccessToken(context.Background()))
}

func TestEnsureFreshToken_NetworkErrorIsNotExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := testRecord()
	stale.ExpiresAt = now.Add(-time.Minute)

	auth := &fakeAuthClient{err: fmt.Errorf("%w: connection refused", oauth.ErrNetwork)}
	g, store := guardAt(t, now, stale, auth)

	_, err := g.EnsureFreshToken(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSessionExpired))

	// a transient failure must not wipe the refresh token
	rec, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
