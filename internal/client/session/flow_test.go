package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndemidov/cargotrail/internal/client/api"
	"github.com/ndemidov/cargotrail/internal/client/oauth"
)

// Wires the real oauth client, token store, guard, and dispatcher against a
// single test server: after login, requests ride the issued token without
// touching the token endpoint again, and once the token goes stale the next
// wave of requests performs exactly one refresh exchange.
func TestSessionLifecycle_LoginRequestRefresh(t *testing.T) {
	var (
		tokenCalls  int64
		mu          sync.Mutex
		bearersSeen []string
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&tokenCalls, 1)
		require.NoError(t, r.ParseForm())

		// the first token lives one hour; the refreshed one ten, so it
		// stays valid on the shifted clock below
		expiresIn := 3600
		if r.PostFormValue("grant_type") == "refresh_token" {
			expiresIn = 10 * 3600
			// keep the exchange in flight while callers pile up
			time.Sleep(100 * time.Millisecond)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("acc-%d", n),
			"refresh_token": "ref-1",
			"token_type":    "Bearer",
			"expires_in":    expiresIn,
		})
	})
	mux.HandleFunc("/shipments/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		bearersSeen = append(bearersSeen, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	log := testLogger()

	authClient := oauth.NewClient(srv.URL, "11111111-2222-3333-4444-555555555555", srv.Client())
	store := NewStore(newFakeRepo())
	guard := NewGuard(store, authClient, 30*time.Second, log)
	dispatcher := api.NewDispatcher(srv.URL, guard, srv.Client(), log)

	// login
	rec, err := authClient.PasswordGrant(ctx, "dana", []byte("secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, rec))
	require.EqualValues(t, 1, atomic.LoadInt64(&tokenCalls))

	// an immediate request rides the issued token, no extra exchange
	_, err = dispatcher.Do(ctx, http.MethodGet, "/shipments/", nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(&tokenCalls))
	mu.Lock()
	require.Len(t, bearersSeen, 1)
	assert.Equal(t, "Bearer acc-1", bearersSeen[0])
	mu.Unlock()

	// two hours later the token is stale; a burst of concurrent requests
	// shares a single refresh exchange
	guard.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	const callers = 5
	start := make(chan struct{})
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := dispatcher.Do(ctx, http.MethodGet, "/shipments/", nil, nil)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 2, atomic.LoadInt64(&tokenCalls), "one password grant plus one refresh")

	// the refreshed record outlives the shifted clock, so a follow-up
	// request needs no further exchange
	_, err = dispatcher.Do(ctx, http.MethodGet, "/shipments/", nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&tokenCalls))

	mu.Lock()
	defer mu.Unlock()
	for _, bearer := range bearersSeen[1:] {
		assert.Equal(t, "Bearer acc-2", bearer)
	}
}
