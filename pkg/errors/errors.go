// Package errors holds the typed errors the API renders: access and
// validation failures around courses, outcomes and marks, spreadsheet upload
// rejections and report export failures.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxUploadProblems bounds how many rejected rows an upload error lists.
const maxUploadProblems = 5

// Error is a typed error carrying the code and HTTP status it renders with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Errors rendered by the API. Handlers never build statuses themselves.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUploadInvalid      = New("UPLOAD_INVALID", http.StatusUnprocessableEntity, "uploaded file could not be processed")
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
	ErrFeatureDisabled    = New("FEATURE_DISABLED", http.StatusNotFound, "feature disabled")

	// ErrCacheMiss signals an absent cache entry; never rendered to clients.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Is reports whether err carries the same code as target, through any
// wrapping. Clones with a different message still match.
func Is(err error, target *Error) bool {
	if target == nil {
		return err == nil
	}
	var e *Error
	return errors.As(err, &e) && e.Code == target.Code
}

// UploadRows builds the error for a sheet with no usable row. It lists the
// first few problems and counts the rest.
func UploadRows(problems []string) *Error {
	if len(problems) == 0 {
		return Clone(ErrUploadInvalid, "no valid rows")
	}
	shown := problems
	if len(shown) > maxUploadProblems {
		shown = append(append([]string(nil), problems[:maxUploadProblems]...), fmt.Sprintf("and %d more", len(problems)-maxUploadProblems))
	}
	return Clone(ErrUploadInvalid, "no valid rows: "+strings.Join(shown, "; "))
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
