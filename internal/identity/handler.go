package identity

import (
	"context"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListProfiles(ctx context.Context, scope tenant.Scope) ([]*Profile, error)
	ProfileInScope(ctx context.Context, scope tenant.Scope, profileID string) (*Profile, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) scope(r *http.Request) (tenant.Scope, error) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		return tenant.Scope{}, internal.ErrMissingToken
	}
	return caller.ScopeFor(chi.URLParam(r, "orgID"))
}

// ListUsers handles GET /organizations/{orgID}/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	profiles, err := h.Service.ListProfiles(r.Context(), scope)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := ProfilesResponse{Users: make([]ProfileResponse, 0, len(profiles))}
	for _, p := range profiles {
		resp.Users = append(resp.Users, p.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetUser handles GET /organizations/{orgID}/users/{profileID}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	profile, err := h.Service.ProfileInScope(r.Context(), scope, chi.URLParam(r, "profileID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile.ToResponse())
}
