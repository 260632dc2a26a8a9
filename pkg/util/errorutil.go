package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewMissingCredential() error {
	return NewDomainError("MISSING_CREDENTIAL", "missing or invalid authorization header", http.StatusUnauthorized, nil)
}

func NewInvalidToken() error {
	return NewDomainError("INVALID_TOKEN", "invalid or expired token", http.StatusUnauthorized, nil)
}

func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

// NewAccountBlocked discloses the blocked status, and the reason when one
// was recorded. Intentional: blocked and deleted accounts are told apart
// from bad credentials.
func NewAccountBlocked(reason string) error {
	message := "account is blocked"
	if reason != "" {
		message = fmt.Sprintf("account is blocked: %s", reason)
	}
	return NewDomainError("ACCOUNT_BLOCKED", message, http.StatusForbidden, nil)
}

func NewAccountDeleted() error {
	return NewDomainError("ACCOUNT_DELETED", "account has been deleted", http.StatusForbidden, nil)
}

func NewPendingVerification() error {
	return NewDomainError("PENDING_VERIFICATION", "email address is not verified yet", http.StatusForbidden, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInsufficientRole() error {
	return NewDomainError("FORBIDDEN", "insufficient permissions", http.StatusForbidden, nil)
}

func NewRateLimited(retryAfterSeconds int) error {
	return NewDomainError("RATE_LIMITED", "too many requests", http.StatusTooManyRequests,
		map[string]any{"retry_after_seconds": retryAfterSeconds})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
