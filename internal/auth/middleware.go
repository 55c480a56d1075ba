package auth

import (
	"net/http"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/transport"
)

// Middleware authenticates every request on the protected surface. It
// attaches the principal and raw access token to the request context so
// downstream authorization and logout can use them.
func Middleware(base *transport.BaseHandler, service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := base.ExtractTokenFromHeader(r)
			if token == "" {
				base.WriteAppError(w, internal.ErrInvalidToken)
				return
			}

			user, err := service.AuthenticateRequestToken(r.Context(), token)
			if err != nil {
				base.WriteAppError(w, err)
				return
			}

			ctx := internal.ContextWithPrincipal(r.Context(), user)
			ctx = internal.ContextWithAccessToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
