package role

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type AssignmentServiceAPI interface {
	ListProfileRoles(ctx context.Context, scope tenant.Scope, profileID string) ([]*Assignment, error)
	Grant(ctx context.Context, scope tenant.Scope, req GrantRequest) (*Assignment, error)
	Revoke(ctx context.Context, scope tenant.Scope, assignmentID string, at time.Time, actorID string) error
}

type CatalogServiceAPI interface {
	ListRoles(ctx context.Context) ([]*Role, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error)
	DeleteRole(ctx context.Context, id, actorID string) error
	SetRolePermissions(ctx context.Context, id string, keys []string, actorID string) (*Role, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	CreatePermission(ctx context.Context, key, description, actorID string) (*Permission, error)
	Matrix(ctx context.Context, resource string) (*Matrix, error)
	CompareRoles(ctx context.Context, idA, idB string) (*RoleComparison, error)
}

type Handler struct {
	*transport.BaseHandler
	Assignments AssignmentServiceAPI
	Catalog     CatalogServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, assignments AssignmentServiceAPI, catalog CatalogServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Assignments: assignments,
		Catalog:     catalog,
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Catalog.ListRoles(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := RolesResponse{Roles: make([]RoleResponse, 0, len(roles))}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, role.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var dto CreateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	role, err := h.Catalog.CreateRole(r.Context(), CreateRoleRequest{
		Name:        dto.Name,
		Category:    dto.Category,
		Description: dto.Description,
		Permissions: dto.Permissions,
		ActorID:     caller.ProfileID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role.ToResponse())
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var dto UpdateRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	role, err := h.Catalog.UpdateRole(r.Context(), chi.URLParam(r, "roleID"), UpdateRoleRequest{
		Name:        dto.Name,
		Category:    dto.Category,
		Description: dto.Description,
		ActorID:     caller.ProfileID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role.ToResponse())
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteRole(r.Context(), chi.URLParam(r, "roleID"), caller.ProfileID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var dto SetRolePermissionsDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	role, err := h.Catalog.SetRolePermissions(r.Context(), chi.URLParam(r, "roleID"), dto.Permissions, caller.ProfileID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role.ToResponse())
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Catalog.ListPermissions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := PermissionsResponse{Permissions: make([]PermissionResponse, 0, len(perms))}
	for _, p := range perms {
		resp.Permissions = append(resp.Permissions, p.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var dto CreatePermissionDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	perm, err := h.Catalog.CreatePermission(r.Context(), dto.Key, dto.Description, caller.ProfileID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, perm.ToResponse())
}

// PermissionMatrix takes the resource from ?object_type=, e.g. "jobs".
func (h *Handler) PermissionMatrix(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("object_type")
	if resource == "" {
		h.WriteAppError(w, internal.NewValidationFieldError("object_type", "object_type is required", internal.ErrCodeValidationFailed))
		return
	}
	matrix, err := h.Catalog.Matrix(r.Context(), resource)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, matrix.ToResponse())
}

func (h *Handler) CompareRoles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmp, err := h.Catalog.CompareRoles(r.Context(), q.Get("role_a"), q.Get("role_b"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cmp.ToResponse())
}

func (h *Handler) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	_, scope, ok := h.callerScope(w, r)
	if !ok {
		return
	}
	assignments, err := h.Assignments.ListProfileRoles(r.Context(), scope, chi.URLParam(r, "profileID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	resp := AssignmentsResponse{Assignments: make([]AssignmentResponse, 0, len(assignments))}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, a.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GrantRole(w http.ResponseWriter, r *http.Request) {
	caller, scope, ok := h.callerScope(w, r)
	if !ok {
		return
	}
	var dto GrantRoleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	assignment, err := h.Assignments.Grant(r.Context(), scope, GrantRequest{
		ProfileID: chi.URLParam(r, "profileID"),
		RoleID:    dto.RoleID,
		IsPrimary: dto.IsPrimary,
		ExpiresAt: dto.ExpiresAt,
		GrantedBy: caller.ProfileID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, assignment.ToResponse())
}

// RevokeAssignment ends an assignment now, or at ?effective_at= (RFC 3339).
func (h *Handler) RevokeAssignment(w http.ResponseWriter, r *http.Request) {
	caller, scope, ok := h.callerScope(w, r)
	if !ok {
		return
	}
	var at time.Time
	if raw := r.URL.Query().Get("effective_at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.WriteAppError(w, internal.NewValidationFieldError("effective_at", "effective_at must be an RFC 3339 timestamp", internal.ErrCodeValidationFailed))
			return
		}
		at = parsed.UTC()
	}
	if err := h.Assignments.Revoke(r.Context(), scope, chi.URLParam(r, "assignmentID"), at, caller.ProfileID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return identity.Caller{}, false
	}
	return caller, true
}

func (h *Handler) callerScope(w http.ResponseWriter, r *http.Request) (identity.Caller, tenant.Scope, bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return identity.Caller{}, tenant.Scope{}, false
	}
	scope, err := caller.ScopeFor(chi.URLParam(r, "orgID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return identity.Caller{}, tenant.Scope{}, false
	}
	return caller, scope, true
}
