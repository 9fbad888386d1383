// Package metadata is the durable key-value storage of the client: the token
// record and the last-activity timestamp live here under fixed keys.
package metadata

import "context"

// Repository is durable key-value storage under fixed keys.
//
// Contract:
//   - Get returns (nil, nil) when the key is absent.
//   - Set performs an upsert.
//   - Clear removes every key; session logout relies on it to wipe the
//     whole namespace in one step.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}
