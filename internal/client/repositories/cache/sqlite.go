package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteRepository persists cache entries in the local SQLite database so
// previously fetched data survives a restart.
type SQLiteRepository struct {
	db *sql.DB

	// now is a test seam for time.Now.
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (*Entry, error) {
	e := Entry{Key: key}
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM resource_cache WHERE key = ?`, key,
	).Scan(&e.Payload, &e.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache[%s]: %w", key, err)
	}
	return &e, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resource_cache (key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, key, payload, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put cache[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Invalidate(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resource_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) EvictAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resource_cache`)
	if err != nil {
		return fmt.Errorf("failed to evict cache: %w", err)
	}
	return nil
}
