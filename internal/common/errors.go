// Package common defines shared constants and sentinel errors used across
// the hivekeep client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Transport-level errors (connection refused, DNS, timeouts).
	ErrUnavailable = errors.New("server unavailable")

	// Read-path error: neither the remote nor the local snapshot could
	// produce the requested collection.
	ErrDataUnavailable = errors.New("no remote and no cached data available")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrNoToken      = errors.New("no access token stored")
)
