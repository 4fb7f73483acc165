package ownership

import (
	"context"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/core/common/validation"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetOwners(ctx context.Context, scope tenant.Scope, ref ObjectRef) (Owners, error)
	Assign(ctx context.Context, scope tenant.Scope, req AssignRequest) (*Entry, error)
	Unassign(ctx context.Context, scope tenant.Scope, ref ObjectRef, userID string, rel Relationship, actorID string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetOwners(w http.ResponseWriter, r *http.Request) {
	_, scope, ref, ok := h.target(w, r)
	if !ok {
		return
	}
	owners, err := h.Service.GetOwners(r.Context(), scope, ref)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, owners.ToResponse(ref))
}

func (h *Handler) AssignOwner(w http.ResponseWriter, r *http.Request) {
	caller, scope, ref, ok := h.target(w, r)
	if !ok {
		return
	}
	var dto AssignOwnerDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	v := validation.NewValidator()
	v.Field("user_id", dto.UserID).Required()
	v.Field("relationship", dto.Relationship).Required()
	if appErr := v.Validate(); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	rel, err := ParseRelationship(dto.Relationship)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entry, err := h.Service.Assign(r.Context(), scope, AssignRequest{
		Object:       ref,
		UserID:       dto.UserID,
		Relationship: rel,
		AssignedBy:   caller.ProfileID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, entry.ToResponse())
}

func (h *Handler) RemoveOwner(w http.ResponseWriter, r *http.Request) {
	caller, scope, ref, ok := h.target(w, r)
	if !ok {
		return
	}
	rel, err := ParseRelationship(chi.URLParam(r, "relationship"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Service.Unassign(r.Context(), scope, ref, chi.URLParam(r, "userID"), rel, caller.ProfileID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (identity.Caller, tenant.Scope, ObjectRef, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return identity.Caller{}, tenant.Scope{}, ObjectRef{}, false
	}
	scope, err := caller.ScopeFor(chi.URLParam(r, "orgID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return identity.Caller{}, tenant.Scope{}, ObjectRef{}, false
	}
	ref, err := NewObjectRef(chi.URLParam(r, "objectType"), chi.URLParam(r, "objectID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return identity.Caller{}, tenant.Scope{}, ObjectRef{}, false
	}
	return caller, scope, ref, true
}
