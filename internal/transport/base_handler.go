package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/workforce-authz/internal"
	"github.com/frahmantamala/workforce-authz/pkg/logger"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a generic error envelope for failures that carry no
// AppError of their own.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	appErr := &errors.AppError{
		Type:       errors.ErrorTypeInternal,
		Code:       errors.ErrCodeInternalError,
		Message:    message,
		StatusCode: status,
	}
	if status == http.StatusBadRequest {
		appErr.Type = errors.ErrorTypeValidation
		appErr.Code = errors.ErrCodeValidationFailed
	}
	h.WriteAppError(w, appErr)
}

func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *errors.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if appErr.Type == errors.ErrorTypeRateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(1))
	}
	h.WriteJSON(w, status, body)
}

// HandleServiceError renders err using its AppError status and code. Errors
// without one become a 500 whose message hides the cause.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("service error", "code", appErr.Code, "error", err)
		}
		h.WriteAppError(w, appErr)
		return
	}
	h.Logger.Error("unhandled service error", "error", err)
	h.WriteAppError(w, errors.NewInternalError("Internal server error", err))
}

// DecodeJSON reads a JSON body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return BearerToken(r)
}

func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}
