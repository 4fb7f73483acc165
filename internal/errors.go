package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidExpiry        ErrorCode = "INVALID_EXPIRY"
	ErrCodeInvalidPermissionKey ErrorCode = "INVALID_PERMISSION_KEY"
	ErrCodeInvalidObjectType    ErrorCode = "INVALID_OBJECT_TYPE"
	ErrCodeInvalidRelationship  ErrorCode = "INVALID_RELATIONSHIP"
	ErrCodeOrganizationRequired ErrorCode = "ORGANIZATION_REQUIRED"

	ErrCodeResourceNotFound   ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeRoleNotFound       ErrorCode = "ROLE_NOT_FOUND"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"

	ErrCodeInsufficientPermission ErrorCode = "INSUFFICIENT_PERMISSION"
	ErrCodeSystemRoleImmutable    ErrorCode = "SYSTEM_ROLE_IMMUTABLE"

	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeDuplicateRole       ErrorCode = "DUPLICATE_ROLE"
	ErrCodeDuplicatePermission ErrorCode = "DUPLICATE_PERMISSION"

	ErrCodeUnknownIdentity ErrorCode = "UNKNOWN_IDENTITY"
	ErrCodeUserInactive    ErrorCode = "USER_INACTIVE"
	ErrCodeMissingToken    ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken    ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired    ErrorCode = "TOKEN_EXPIRED"

	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrCodeMissingScoping ErrorCode = "MISSING_TENANT_FILTER"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`

	// origin points at the shared error value this one was derived from.
	origin *AppError
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the shared error value an AppError was derived from, so
// errors.Is(ErrX.WithCause(err), ErrX) holds. Values that render the same
// way (ErrCrossTenantAccess, ErrResourceNotFound) stay distinguishable.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.origin != nil && e.origin == t)
}

func (e *AppError) derive() *AppError {
	cp := *e
	if e.origin == nil {
		cp.origin = e
	}
	return &cp
}

// WithCause returns a copy carrying cause; the receiver is left untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := e.derive()
	cp.Cause = cause
	return cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := e.derive()
	cp.Details = details
	return cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

var (
	ErrResourceNotFound = NewNotFoundError("Resource not found", ErrCodeResourceNotFound)
	// ErrCrossTenantAccess renders exactly like ErrResourceNotFound.
	ErrCrossTenantAccess      = NewNotFoundError("Resource not found", ErrCodeResourceNotFound)
	ErrInsufficientPermission = NewForbiddenError("You do not have permission to perform this action", ErrCodeInsufficientPermission)

	ErrInvalidExpiry        = NewValidationError("expires_at must be in the future", ErrCodeInvalidExpiry)
	ErrInvalidPermissionKey = NewValidationError("permission key must look like <resource>.<action>", ErrCodeInvalidPermissionKey)
	ErrInvalidObjectType    = NewValidationError("unknown object type", ErrCodeInvalidObjectType)
	ErrInvalidRelationship  = NewValidationError("relationship must be one of responsible, accountable, consulted, informed", ErrCodeInvalidRelationship)
	ErrOrganizationRequired = NewValidationError("organization id is required", ErrCodeOrganizationRequired)

	ErrMissingTenantFilter = &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeMissingScoping,
		Message:    "tenant filter was not set on a tenant-scoped query",
		StatusCode: http.StatusInternalServerError,
	}

	ErrConcurrencyConflict = NewConflictError("The resource was modified concurrently, please try again", ErrCodeConcurrencyConflict)
	ErrDuplicateRole       = NewConflictError("A role with this name already exists", ErrCodeDuplicateRole)
	ErrDuplicatePermission = NewConflictError("A permission with this key already exists", ErrCodeDuplicatePermission)

	ErrRoleNotFound        = NewNotFoundError("Role not found", ErrCodeRoleNotFound)
	ErrPermissionNotFound  = NewNotFoundError("Permission not found", ErrCodePermissionNotFound)
	ErrSystemRoleImmutable = NewForbiddenError("System roles cannot be renamed or deleted", ErrCodeSystemRoleImmutable)

	ErrUnknownIdentity = NewUnauthorizedError("Unknown identity", ErrCodeUnknownIdentity)
	ErrUserInactive    = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrMissingToken    = NewUnauthorizedError("Missing authorization token", ErrCodeMissingToken)
	ErrInvalidToken    = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired    = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrRateLimited = NewRateLimitedError("Too many requests")
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
