package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type Enforcer interface {
	Enforce(ctx context.Context, req Request) error
}

// Middleware guards routes with Enforce. The target organization comes
// from the {orgID} route parameter when the route has one.
type Middleware struct {
	*transport.BaseHandler
	enforcer Enforcer
}

func NewMiddleware(enforcer Enforcer, logger *slog.Logger) *Middleware {
	return &Middleware{
		BaseHandler: transport.NewBaseHandler(logger),
		enforcer:    enforcer,
	}
}

// Require allows the request only if the caller holds key in the target
// organization.
func (m *Middleware) Require(key permission.Key) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := identity.CallerFromContext(r.Context())
			if !ok {
				m.Logger.WarnContext(r.Context(), "authorization check failed: caller not found in context")
				m.WriteAppError(w, internal.ErrMissingToken)
				return
			}
			if !m.check(w, r, Request{
				ProfileID:      caller.ProfileID,
				OrganizationID: caller.OrganizationID,
				TargetOrgID:    chi.URLParam(r, "orgID"),
				Permission:     key,
			}) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOnObject builds the key from the {objectType} route parameter and
// action, e.g. "deals.reassign", and lets ownership of {objectID} count.
func (m *Middleware) RequireOnObject(action ownership.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := identity.CallerFromContext(r.Context())
			if !ok {
				m.WriteAppError(w, internal.ErrMissingToken)
				return
			}
			ref, err := ownership.NewObjectRef(chi.URLParam(r, "objectType"), chi.URLParam(r, "objectID"))
			if err != nil {
				m.HandleServiceError(w, err)
				return
			}
			if !m.check(w, r, Request{
				ProfileID:      caller.ProfileID,
				OrganizationID: caller.OrganizationID,
				TargetOrgID:    chi.URLParam(r, "orgID"),
				Permission:     permission.NewKey(ref.Type.Plural(), string(action)),
				Object:         &ref,
			}) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, req Request) bool {
	err := m.enforcer.Enforce(r.Context(), req)
	if err == nil {
		return true
	}
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
		m.Logger.InfoContext(r.Context(), "access denied",
			"profile_id", req.ProfileID,
			"required_permission", req.Permission,
			"code", appErr.Code)
	}
	m.HandleServiceError(w, err)
	return false
}
