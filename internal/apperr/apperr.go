// Package apperr holds the error taxonomy shared by the ledger, the query
// layer and the session code, and its mapping to HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrAuth               = errors.New("authentication failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error is a classified failure with a message safe to show to the caller.
type Error struct {
	Kind    error
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// WithDetails attaches extra response fields.
func (e *Error) WithDetails(kv map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		e.Details[k] = v
	}
	return e
}

func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(ErrNotFound, format, args...)
}

func Validation(format string, args ...any) *Error {
	return New(ErrValidation, format, args...)
}

func Duplicate(format string, args ...any) *Error {
	return New(ErrDuplicateName, format, args...)
}

func Auth(format string, args ...any) *Error {
	return New(ErrAuth, format, args...)
}

// InsufficientStock reports a rejected decrement.
func InsufficientStock(available, requested int, unit string) *Error {
	return New(ErrInsufficientStock, "Insufficient quantity. Only %d %s available.", available, unit).
		WithDetails(map[string]any{
			"current_quantity":   available,
			"requested_quantity": requested,
		})
}

// Storage classifies an error returned by gorm. what names the entity for
// not-found and duplicate messages.
func Storage(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Message: what + " not found"}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrDuplicateName, Message: what + " name already exists"}
	default:
		return &Error{Kind: ErrStorageUnavailable, Message: "Storage unavailable", Err: err}
	}
}

// Code is the stable machine-readable code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	}
	return "internal_error"
}

func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
