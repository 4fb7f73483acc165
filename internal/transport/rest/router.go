package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/audit"
	"github.com/frahmantamala/workforce-authz/internal/auth"
	"github.com/frahmantamala/workforce-authz/internal/authz"
	"github.com/frahmantamala/workforce-authz/internal/core/metrics"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/role"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/frahmantamala/workforce-authz/internal/transport/middleware"
	"github.com/frahmantamala/workforce-authz/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Handlers groups everything RegisterAllRoutes mounts. Nil handlers leave
// their routes out.
type Handlers struct {
	Health    *HealthHandler
	Auth      *auth.Handler
	Guard     *authz.Middleware
	Authz     *authz.Handler
	Identity  *identity.Handler
	Roles     *role.Handler
	Ownership *ownership.Handler
	Audit     *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg *internal.Config, logger *slog.Logger) {
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.Metrics)

	router.Get(swagger.SpecPath, swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())
	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}
		if h.Auth == nil || h.Guard == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			if limiter != nil {
				pr.Use(limiter.Middleware)
			}
			guard := h.Guard

			pr.Get("/me", h.Auth.WhoAmI)
			if h.Authz != nil {
				pr.Get("/me/authorization", h.Authz.Me)
				pr.Post("/organizations/{orgID}/authorize", h.Authz.Authorize)
			}

			if h.Identity != nil {
				pr.With(guard.Require(permission.RolesRead)).Get("/organizations/{orgID}/users", h.Identity.ListUsers)
				pr.With(guard.Require(permission.RolesRead)).Get("/organizations/{orgID}/users/{profileID}", h.Identity.GetUser)
			}

			if h.Roles != nil {
				pr.Route("/roles", func(rr chi.Router) {
					rr.With(guard.Require(permission.RolesRead)).Get("/", h.Roles.ListRoles)
					rr.With(guard.Require(permission.RolesRead)).Get("/compare", h.Roles.CompareRoles)
					rr.Group(func(ar chi.Router) {
						ar.Use(guard.Require(permission.PermissionsManage))
						ar.Post("/", h.Roles.CreateRole)
						ar.Patch("/{roleID}", h.Roles.UpdateRole)
						ar.Delete("/{roleID}", h.Roles.DeleteRole)
						ar.Put("/{roleID}/permissions", h.Roles.SetRolePermissions)
					})
				})
				pr.Route("/permissions", func(pm chi.Router) {
					pm.With(guard.Require(permission.RolesRead)).Get("/", h.Roles.ListPermissions)
					pm.With(guard.Require(permission.RolesRead)).Get("/matrix", h.Roles.PermissionMatrix)
					pm.With(guard.Require(permission.PermissionsManage)).Post("/", h.Roles.CreatePermission)
				})
				pr.With(guard.Require(permission.RolesRead)).Get("/organizations/{orgID}/users/{profileID}/roles", h.Roles.ListUserRoles)
				pr.With(guard.Require(permission.RolesAdminister)).Post("/organizations/{orgID}/users/{profileID}/roles", h.Roles.GrantRole)
				pr.With(guard.Require(permission.RolesAdminister)).Delete("/organizations/{orgID}/role-assignments/{assignmentID}", h.Roles.RevokeAssignment)
			}

			if h.Ownership != nil {
				owners := "/organizations/{orgID}/objects/{objectType}/{objectID}/owners"
				pr.With(guard.RequireOnObject(ownership.ActionRead)).Get(owners, h.Ownership.GetOwners)
				pr.With(guard.Require(permission.OwnershipAdminister)).Post(owners, h.Ownership.AssignOwner)
				pr.With(guard.Require(permission.OwnershipAdminister)).Delete(owners+"/{userID}/{relationship}", h.Ownership.RemoveOwner)
			}

			if h.Audit != nil {
				pr.With(guard.Require(permission.AuditRead)).Get("/organizations/{orgID}/audit-logs", h.Audit.ListAuditLogs)
				pr.With(guard.Require(permission.AuditRead)).Get("/organizations/{orgID}/audit-logs/{entryID}", h.Audit.GetAuditLog)
			}
		})
	})

	base := transport.NewBaseHandler(logger)
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		base.WriteAppError(w, internal.ErrResourceNotFound)
	})
}
