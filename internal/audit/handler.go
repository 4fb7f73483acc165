package audit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/tenant"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, scope tenant.Scope, q Query) ([]*Entry, error)
	Get(ctx context.Context, scope tenant.Scope, id string) (*Detail, error)
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

func (h *Handler) targetScope(w http.ResponseWriter, r *http.Request) (tenant.Scope, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return tenant.Scope{}, false
	}
	scope, err := caller.ScopeFor(chi.URLParam(r, "orgID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return tenant.Scope{}, false
	}
	return scope, true
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.targetScope(w, r)
	if !ok {
		return
	}
	q, appErr := parseQuery(r)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	entries, err := h.Service.List(r.Context(), scope, q)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	q = q.normalized()
	resp := ListResponse{Entries: make([]EntryResponse, 0, len(entries)), Limit: q.Limit, Offset: q.Offset}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, e.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.targetScope(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.Get(r.Context(), scope, chi.URLParam(r, "entryID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, detail.ToResponse())
}

func parseQuery(r *http.Request) (Query, *internal.AppError) {
	values := r.URL.Query()
	q := Query{
		Action:       values.Get("action"),
		ResourceType: values.Get("resource_type"),
		ResourceID:   values.Get("resource_id"),
		ActorID:      values.Get("actor_id"),
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Query{}, internal.NewValidationFieldError(name, name+" must be a non-negative integer", internal.ErrCodeValidationFailed)
		}
		*dst = n
	}
	if raw := values.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Query{}, internal.NewValidationFieldError("since", "since must be an RFC3339 timestamp", internal.ErrCodeValidationFailed)
		}
		q.Since = &since
	}
	return q, nil
}
