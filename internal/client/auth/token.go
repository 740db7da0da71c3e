// Package auth stores the bearer credential the client was given and answers
// whether it is still worth presenting. Token acquisition is someone else's
// job; the token arrives as input and is treated as opaque unless it happens
// to be a JWT, in which case its exp claim is decoded locally (without
// signature verification) to skip calls that are guaranteed a 401.
package auth

import (
	"context"
	"time"

	"github.com/apiarist/hivekeep/internal/client/repositories/metadata"
	"github.com/apiarist/hivekeep/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type TokenSource struct {
	meta metadata.Repository

	// test seam
	now func() time.Time
}

func NewTokenSource(meta metadata.Repository) *TokenSource {
	return &TokenSource{meta: meta, now: time.Now}
}

// Save persists the bearer token for future sessions.
func (s *TokenSource) Save(ctx context.Context, token string) error {
	return s.meta.Set(ctx, metadata.KeyAccessToken, []byte(token))
}

// Clear forgets the stored token.
func (s *TokenSource) Clear(ctx context.Context) error {
	return s.meta.Delete(ctx, metadata.KeyAccessToken)
}

// Token returns the stored bearer token. It fails with common.ErrNoToken
// when nothing is stored and common.ErrTokenExpired when the token is a JWT
// whose exp claim has passed.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	value, err := s.meta.Get(ctx, metadata.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", common.ErrNoToken
	}
	token := string(value)

	if exp, ok := tokenExpiry(token); ok && !s.now().Before(exp) {
		return "", common.ErrTokenExpired
	}
	return token, nil
}

// tokenExpiry decodes the exp claim of a JWT without verifying it. Opaque
// (non-JWT) tokens and JWTs without exp report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
