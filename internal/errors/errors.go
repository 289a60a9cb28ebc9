// Package errors defines the domain error taxonomy shared by services and handlers.
package errors

import (
	stderrors "errors"
	"net/http"
)

// DomainError is a user-facing failure with a stable code and an HTTP status.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so that wrapped copies compare equal to their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	return &DomainError{Code: e.Code, Message: msg, Status: e.Status}
}

// As extracts a DomainError from err.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func notFound(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Status: http.StatusNotFound}
}

func invalid(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Status: http.StatusBadRequest}
}

func forbidden(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Status: http.StatusForbidden}
}

func conflict(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Status: http.StatusConflict}
}

// Accounts
var (
	ErrUserNotFound       = notFound("USER_NOT_FOUND", "user not found")
	ErrUsernameTaken      = conflict("USERNAME_TAKEN", "Username already exists")
	ErrInvalidCredentials = &DomainError{Code: "INVALID_CREDENTIALS", Message: "invalid credentials", Status: http.StatusUnauthorized}
	ErrUnauthenticated    = &DomainError{Code: "UNAUTHENTICATED", Message: "authentication required", Status: http.StatusUnauthorized}
	ErrMerchantRequired   = forbidden("MERCHANT_REQUIRED", "Access denied. Merchant account required.")
	ErrClientRequired     = forbidden("CLIENT_REQUIRED", "Access denied. API client account required.")
	ErrAdminRequired      = forbidden("ADMIN_REQUIRED", "Insufficient permissions")
)

// Validation
var (
	ErrValidation = &DomainError{Code: "VALIDATION_FAILED", Message: "validation failed", Status: http.StatusUnprocessableEntity}
	ErrBadRequest = invalid("BAD_REQUEST", "invalid request")
)

// FieldErrors carries field-scoped validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return ErrValidation.Message
}

func (f FieldErrors) Is(target error) bool {
	return target == ErrValidation
}
