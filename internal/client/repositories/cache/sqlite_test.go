package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE resource_cache (
  key        TEXT PRIMARY KEY,
  payload    BLOB NOT NULL,
  fetched_at TIMESTAMP NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestPutAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	fetched := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fetched }
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "/shipments/", []byte(`[{"id":"s1"}]`)))

	e, err := r.Get(ctx, "/shipments/")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "/shipments/", e.Key)
	assert.Equal(t, []byte(`[{"id":"s1"}]`), e.Payload)
	assert.True(t, e.FetchedAt.Equal(fetched))
}

func TestGet_AbsentKeyReturnsNilNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	e, err := r.Get(context.Background(), "/custodians/")
	require.NoError(t, err)
	require.Nil(t, e)
}

func TestPut_UpsertReplacesPayload(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "/items/", []byte("old")))
	require.NoError(t, r.Put(ctx, "/items/", []byte("new")))

	e, err := r.Get(ctx, "/items/")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), e.Payload)
}

func TestInvalidate_RemovesOnlyThatKey(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "/shipments/", []byte("a")))
	require.NoError(t, r.Put(ctx, "/items/", []byte("b")))
	require.NoError(t, r.Invalidate(ctx, "/shipments/"))

	e, err := r.Get(ctx, "/shipments/")
	require.NoError(t, err)
	require.Nil(t, e)

	e, err = r.Get(ctx, "/items/")
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestEvictAll(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "/shipments/", []byte("a")))
	require.NoError(t, r.Put(ctx, "/items/", []byte("b")))
	require.NoError(t, r.EvictAll(ctx))

	for _, key := range []string{"/shipments/", "/items/"} {
		e, err := r.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, e)
	}
}
