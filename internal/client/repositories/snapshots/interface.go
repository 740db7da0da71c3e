// Package snapshots implements the durable local store for record
// collections: one row per collection key, holding the ordered JSON array of
// records cached for that key. Entries persist until explicitly deleted; the
// store does no eviction and no locking; callers serialize access per key.
package snapshots

import "context"

// Repository is the raw key-value contract. Get returns common.ErrNotFound
// when no snapshot exists for the key. Storage failures are returned to the
// caller, never swallowed.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, records []byte) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Key builds the store key for a collection: "<prefix>_<parentID>".
func Key(prefix, parentID string) string {
	return prefix + "_" + parentID
}
