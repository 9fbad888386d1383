package session

import (
	"context"
	"sync"
	"time"

	"github.com/ndemidov/cargotrail/internal/logging"
)

// Monitor tracks the last user interaction and closes the session after a
// configured idle period. The timeout callback fires at most once per idle
// excursion; a new login re-arms the latch via Rearm.
type Monitor struct {
	store     *Store
	threshold time.Duration
	interval  time.Duration
	onTimeout func(ctx context.Context)
	log       logging.Logger

	mu           sync.Mutex
	lastActivity time.Time
	fired        bool

	// now is a test seam for time.Now.
	now func() time.Time
}

// NewMonitor builds a Monitor. onTimeout is the logout path: clear the token
// store, evict cached data, tell the user. It runs on the polling goroutine.
func NewMonitor(store *Store, threshold, interval time.Duration, onTimeout func(ctx context.Context), log logging.Logger) *Monitor {
	return &Monitor{
		store:     store,
		threshold: threshold,
		interval:  interval,
		onTimeout: onTimeout,
		log:       log,
		now:       time.Now,
	}
}

// Restore loads the persisted last-activity instant, so an idle period spans
// restarts. With nothing persisted the current instant is used.
func (m *Monitor) Restore(ctx context.Context) error {
	last, err := m.store.LastActivity(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		last = m.now()
	}

	m.mu.Lock()
	m.lastActivity = last
	m.mu.Unlock()
	return nil
}

// Touch records a user interaction. Writes are idempotent "set to now", so
// concurrent touches need no coordination beyond the mutex.
func (m *Monitor) Touch(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	m.lastActivity = now
	m.mu.Unlock()

	if err := m.store.SetLastActivity(ctx, now); err != nil {
		m.log.Warn(ctx, "failed to persist activity timestamp", "error", err)
	}
}

// Rearm resets the timeout latch after a successful login and counts the
// login itself as activity.
func (m *Monitor) Rearm(ctx context.Context) {
	m.mu.Lock()
	m.fired = false
	m.mu.Unlock()

	m.Touch(ctx)
}

// Run polls until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// check performs one poll tick: fire the timeout once when the idle
// threshold is exceeded, then stay silent until re-armed.
func (m *Monitor) check(ctx context.Context) {
	m.mu.Lock()
	idle := m.now().Sub(m.lastActivity)
	shouldFire := idle >= m.threshold && !m.fired
	if shouldFire {
		m.fired = true
	}
	m.mu.Unlock()

	if !shouldFire {
		return
	}

	m.log.Info(ctx, "idle threshold exceeded, closing session", "idle", idle)
	m.onTimeout(ctx)
}
