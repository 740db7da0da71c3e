// Package metadata stores small client-local settings: the persisted client
// id and the access token.
package metadata

import "context"

// Well-known metadata keys.
const (
	KeyClientID    = "client_id"
	KeyAccessToken = "access_token"
)

type Repository interface {
	// Get returns the stored value, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
