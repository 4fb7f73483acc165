package authz

import (
	"context"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/ownership"
	"github.com/frahmantamala/workforce-authz/internal/permission"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Explain(ctx context.Context, req Request) (*Explanation, error)
	Enforce(ctx context.Context, req Request) error
	BuildContext(ctx context.Context, scope tenant.Scope, profileID string) (*AuthorizationContext, error)
}

type ProfileLookup interface {
	ProfileInScope(ctx context.Context, scope tenant.Scope, profileID string) (*identity.Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Profiles ProfileLookup
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, profiles ProfileLookup) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Profiles:    profiles,
	}
}

// Me returns the caller's authorization context in their home
// organization.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return
	}
	scope, err := caller.Scope()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	authCtx, err := h.Service.BuildContext(r.Context(), scope, caller.ProfileID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := authCtx.ToResponse()
	resp.LegacyIdentity = caller.Legacy
	h.WriteJSON(w, http.StatusOK, resp)
}

// Authorize evaluates a permission for the caller, or for another profile
// of the organization when the caller holds authorization.explain.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return
	}
	var dto AuthorizeDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	key, err := permission.ParseKey(dto.Permission)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	targetOrgID := chi.URLParam(r, "orgID")
	req := Request{
		ProfileID:      caller.ProfileID,
		OrganizationID: caller.OrganizationID,
		TargetOrgID:    targetOrgID,
		Permission:     key,
	}
	if dto.ObjectType != "" || dto.ObjectID != "" {
		ref, err := ownership.NewObjectRef(dto.ObjectType, dto.ObjectID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		req.Object = &ref
	}

	if dto.ProfileID != "" && dto.ProfileID != caller.ProfileID {
		err := h.Service.Enforce(r.Context(), Request{
			ProfileID:      caller.ProfileID,
			OrganizationID: caller.OrganizationID,
			TargetOrgID:    targetOrgID,
			Permission:     permission.AuthorizationExplain,
		})
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		scope, err := caller.ScopeFor(targetOrgID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		if _, err := h.Profiles.ProfileInScope(r.Context(), scope, dto.ProfileID); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		req.ProfileID = dto.ProfileID
	}

	exp, err := h.Service.Explain(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, exp.ToResponse(req.ProfileID, key.String()))
}
