package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/access-management/internal/auth"
	"github.com/frahmantamala/access-management/internal/menu"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/role"
	"github.com/frahmantamala/access-management/internal/transport"
	"github.com/frahmantamala/access-management/internal/transport/middleware"
	"github.com/frahmantamala/access-management/internal/user"
)

// Deps carries everything the router wires together.
type Deps struct {
	Base        *transport.BaseHandler
	DB          *sql.DB
	Redis       *redis.Client
	Engine      *permission.Engine
	AuthService *auth.Service

	AuthHandler       *auth.Handler
	UserHandler       *user.Handler
	RoleHandler       *role.Handler
	PermissionHandler *permission.Handler
	MenuHandler       *menu.Handler

	Logger *slog.Logger
}

// RegisterAllRoutes mounts the full API under /api/v1. Admin routes are
// guarded by module:action requirements so a role only reaches the
// operations its permission set names.
func RegisterAllRoutes(router *chi.Mux, d Deps) {
	healthHandler := NewHealthHandler(d.DB, d.Redis)

	guard := func(module, action string) func(http.Handler) http.Handler {
		return middleware.RequireModuleAction(d.Base, d.Engine, module, action)
	}

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(d.Logger))
	router.Use(middleware.RecoveryMiddleware(d.Logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/register", d.AuthHandler.Register)
			sr.Post("/login", d.AuthHandler.Login)
			sr.Post("/refresh", d.AuthHandler.Refresh)

			// Logout needs the principal, so it sits behind authentication.
			sr.Group(func(pr chi.Router) {
				pr.Use(auth.Middleware(d.Base, d.AuthService))
				pr.Post("/logout", d.AuthHandler.Logout)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(auth.Middleware(d.Base, d.AuthService))

			pr.Get("/users/me", d.UserHandler.Me)
			pr.Get("/users/me/menus", d.MenuHandler.MyMenus)

			pr.Group(func(gr chi.Router) {
				gr.Use(guard("user", permission.ActionRead))
				gr.Get("/users", d.UserHandler.List)
				gr.Get("/users/{id}", d.UserHandler.Get)
			})
			pr.Group(func(gr chi.Router) {
				gr.Use(middleware.RequirePermission(d.Base, d.Engine, "user:update"))
				gr.Put("/users/{userID}/roles", d.RoleHandler.AssignToUser)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.With(guard("role", permission.ActionRead)).Get("/", d.RoleHandler.List)
				rr.With(guard("role", permission.ActionRead)).Get("/{id}", d.RoleHandler.Get)
				rr.With(guard("role", permission.ActionCreate)).Post("/", d.RoleHandler.Create)
				rr.With(guard("role", permission.ActionUpdate)).Put("/{id}", d.RoleHandler.Update)
				rr.With(guard("role", permission.ActionUpdate)).Put("/{id}/permissions", d.RoleHandler.AssignPermissions)
				rr.With(guard("role", permission.ActionDelete)).Delete("/{id}", d.RoleHandler.Delete)
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.With(guard("permission", permission.ActionRead)).Get("/", d.PermissionHandler.List)
				pmr.With(guard("permission", permission.ActionRead)).Get("/tree", d.PermissionHandler.Tree)
				pmr.With(guard("permission", permission.ActionRead)).Get("/{id}", d.PermissionHandler.Get)
				pmr.With(guard("permission", permission.ActionCreate)).Post("/", d.PermissionHandler.Create)
				pmr.With(guard("permission", permission.ActionUpdate)).Put("/{id}", d.PermissionHandler.Update)
				pmr.With(guard("permission", permission.ActionUpdate)).Patch("/{code}/enable", d.PermissionHandler.Enable)
				pmr.With(guard("permission", permission.ActionUpdate)).Patch("/{code}/disable", d.PermissionHandler.Disable)
				pmr.With(guard("permission", permission.ActionDelete)).Delete("/{id}", d.PermissionHandler.Delete)
			})

			pr.Route("/menus", func(mr chi.Router) {
				mr.With(guard("menu", permission.ActionRead)).Get("/tree", d.MenuHandler.Tree)
				mr.With(guard("menu", permission.ActionRead)).Get("/{id}", d.MenuHandler.Get)
				mr.With(guard("menu", permission.ActionCreate)).Post("/", d.MenuHandler.Create)
				mr.With(guard("menu", permission.ActionUpdate)).Put("/{id}", d.MenuHandler.Update)
				mr.With(guard("menu", permission.ActionUpdate)).Put("/{id}/permissions", d.MenuHandler.AssignPermissions)
				mr.With(guard("menu", permission.ActionDelete)).Delete("/{id}", d.MenuHandler.Delete)
			})
		})
	})
}
