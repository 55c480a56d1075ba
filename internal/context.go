package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/access-management/internal/core/datamodel"
)

type ctxKey string

const (
	contextPrincipalKey ctxKey = "principal"
	contextTokenKey     ctxKey = "accessToken"
)

// PrincipalFromContext returns the authenticated user attached by the auth
// middleware, or false when the request is anonymous.
func PrincipalFromContext(ctx context.Context) (*datamodel.User, bool) {
	u, ok := ctx.Value(contextPrincipalKey).(*datamodel.User)
	return u, ok
}

func ContextWithPrincipal(ctx context.Context, user *datamodel.User) context.Context {
	return context.WithValue(ctx, contextPrincipalKey, user)
}

// AccessTokenFromContext returns the raw bearer token for the request, so
// logout can target the exact token the caller presented.
func AccessTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(contextTokenKey).(string); ok {
		return token
	}
	return ""
}

func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextTokenKey, token)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if
// duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
