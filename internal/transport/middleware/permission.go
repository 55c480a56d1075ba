package middleware

import (
	"net/http"

	"github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/transport"
)

// Authorize is the authorization gate for a route: it demands an
// authenticated, active principal and then evaluates the requirement set
// against the permission engine. An empty requirement set allows everyone
// who got past authentication.
func Authorize(base *transport.BaseHandler, engine *permission.Engine, rs permission.Requirements) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				base.WriteAppError(w, internal.ErrNotAuthenticated)
				return
			}

			if principal.Status != datamodel.StatusActive {
				base.WriteAppError(w, internal.ErrPrincipalDisabled)
				return
			}

			if err := engine.Authorize(r.Context(), principal, rs, r); err != nil {
				base.WriteAppError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission guards a route with a single permission code.
func RequirePermission(base *transport.BaseHandler, engine *permission.Engine, code string) func(http.Handler) http.Handler {
	return Authorize(base, engine, permission.Require(code))
}

// RequireModuleAction guards a route with a module:action capability.
func RequireModuleAction(base *transport.BaseHandler, engine *permission.Engine, module, action string) func(http.Handler) http.Handler {
	return Authorize(base, engine, permission.RequireModule(module, action))
}
