// Package sessioncache holds the ephemeral token state: the blacklist, the
// per-user refresh-token pointer and the per-user access-session pointer.
// It is the single source of truth for "is this token still valid right
// now"; every write is TTL-bounded so entries self-expire.
package sessioncache

import (
	"context"
	"time"
)

// refreshBlacklistTTL is applied when blacklisting a refresh token during
// teardown, independent of the token's real remaining life, so a captured
// refresh token can never be replayed.
const refreshBlacklistTTL = 30 * 24 * time.Hour

// TokenCache is the contract the auth protocol depends on. Any TTL-capable
// key-value store satisfies it; the Redis implementation is the production
// one and tests substitute miniredis.
type TokenCache interface {
	// Blacklist marks a token string as rejected for ttl.
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)

	// StoreRefreshToken records the single valid refresh token for a user,
	// replacing any previous pointer.
	StoreRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	// ValidateRefreshToken reports whether token exactly matches the stored
	// pointer for the user.
	ValidateRefreshToken(ctx context.Context, userID int64, token string) (bool, error)
	RemoveRefreshToken(ctx context.Context, userID int64) error

	// StoreSession records the single valid access token for a user.
	StoreSession(ctx context.Context, userID int64, accessToken string, ttl time.Duration) error
	IsSessionValid(ctx context.Context, userID int64, accessToken string) (bool, error)
	RemoveSession(ctx context.Context, userID int64) error

	// ClearTokens is the composite logout teardown: blacklist the access
	// token for its remaining life (skipped when accessTTL <= 0), blacklist
	// the refresh token (when given) for the fixed long TTL, and drop both
	// stored pointers. Sub-operations run concurrently and a missing key is
	// not an error.
	ClearTokens(ctx context.Context, userID int64, accessToken, refreshToken string, accessTTL time.Duration) error
}
