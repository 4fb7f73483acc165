package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/internal/identity"
	"github.com/frahmantamala/workforce-authz/internal/transport"
	"github.com/frahmantamala/workforce-authz/pkg/logger"
)

type CallerResolver interface {
	ResolveCaller(ctx context.Context, authID string) (identity.Caller, error)
}

type Handler struct {
	*transport.BaseHandler
	Verifier TokenVerifier
	Callers  CallerResolver
}

func NewHandler(baseHandler *transport.BaseHandler, verifier TokenVerifier, callers CallerResolver) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Verifier:    verifier,
		Callers:     callers,
	}
}

type WhoAmIResponse struct {
	AuthID         string `json:"auth_id"`
	ProfileID      string `json:"profile_id"`
	OrganizationID string `json:"organization_id"`
	LegacyIdentity bool   `json:"legacy_identity,omitempty"`
}

// AuthMiddleware verifies the bearer token and stores the resolved Caller
// in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteAppError(w, internal.ErrMissingToken)
			return
		}

		claims, err := h.Verifier.Verify(token)
		if err != nil {
			h.Logger.WarnContext(r.Context(), "token verification failed", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := r.Context()
		caller, err := h.Callers.ResolveCaller(ctx, claims.Subject)
		if err != nil {
			h.Logger.WarnContext(ctx, "caller resolution failed", "auth_id", claims.Subject, "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx = identity.ContextWithCaller(ctx, caller)
		ctx = logger.With(ctx, "profile_id", caller.ProfileID, "organization_id", caller.OrganizationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrMissingToken)
		return
	}
	h.WriteJSON(w, http.StatusOK, WhoAmIResponse{
		AuthID:         caller.AuthID,
		ProfileID:      caller.ProfileID,
		OrganizationID: caller.OrganizationID,
		LegacyIdentity: caller.Legacy,
	})
}
