package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeBadRequest   ErrorType = "BAD_REQUEST"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountDisabled    ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionInvalid     ErrorCode = "SESSION_INVALID"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"

	ErrCodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	ErrCodePermissionNotFound ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeRoleNotFound       ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeMenuNotFound       ErrorCode = "MENU_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"

	ErrCodeDuplicateUsername  ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmail     ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicatePhone     ErrorCode = "DUPLICATE_PHONE"
	ErrCodeDuplicateCode      ErrorCode = "DUPLICATE_CODE"
	ErrCodeDuplicateName      ErrorCode = "DUPLICATE_NAME"
	ErrCodeInvalidCode        ErrorCode = "INVALID_PERMISSION_CODE"
	ErrCodeInvalidParent      ErrorCode = "INVALID_PARENT"
	ErrCodeCircularReference  ErrorCode = "CIRCULAR_REFERENCE"
	ErrCodeSystemProtected    ErrorCode = "SYSTEM_PROTECTED"
	ErrCodeHasDependents      ErrorCode = "HAS_DEPENDENTS"
	ErrCodeInvalidRequirement ErrorCode = "INVALID_REQUIREMENT"
	ErrCodeInvalidDuration    ErrorCode = "INVALID_DURATION_FORMAT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
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

func NewBadRequestError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeBadRequest,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
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

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("incorrect username or password", ErrCodeInvalidCredentials)
	ErrAccountDisabled    = NewUnauthorizedError("account is disabled, contact an administrator", ErrCodeAccountDisabled)
	ErrInvalidToken       = NewUnauthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("token has expired", ErrCodeTokenExpired)
	ErrInvalidRefresh     = NewUnauthorizedError("invalid refresh token", ErrCodeInvalidToken)
	ErrSessionInvalid     = NewUnauthorizedError("session is no longer valid", ErrCodeSessionInvalid)
	ErrNotAuthenticated   = NewForbiddenError("user is not authenticated", ErrCodeNotAuthenticated)
	ErrPrincipalDisabled  = NewForbiddenError("user account is disabled", ErrCodeAccountDisabled)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
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

// JoinValidationMessages flattens field errors into one message string.
func JoinValidationMessages(errs ValidationErrors) string {
	messages := make([]string, len(errs.Errors))
	for i, err := range errs.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}
