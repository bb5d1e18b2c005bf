// Package apperr provides the unified error taxonomy for the scoring
// engine's API boundary (C7/C8). Internal components (rule engine,
// consensus engine) never construct these directly — they return tagged
// result values and let the boundary translate them here.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the error kinds from the scoring engine's error taxonomy.
type Code string

const (
	InvalidArgument    Code = "INVALID_ARGUMENT"
	Unauthenticated    Code = "UNAUTHENTICATED"
	PermissionDenied   Code = "PERMISSION_DENIED"
	NotFound           Code = "NOT_FOUND"
	FailedPrecondition Code = "FAILED_PRECONDITION"
	Conflict           Code = "CONFLICT"
	Disputed           Code = "DISPUTED"
	Transient          Code = "TRANSIENT"
	Internal           Code = "INTERNAL"
)

var httpStatus = map[Code]int{
	InvalidArgument:    http.StatusBadRequest,
	Unauthenticated:    http.StatusUnauthorized,
	PermissionDenied:   http.StatusForbidden,
	NotFound:           http.StatusNotFound,
	FailedPrecondition: http.StatusPreconditionFailed,
	Conflict:           http.StatusConflict,
	Disputed:           http.StatusOK,
	Transient:          http.StatusServiceUnavailable,
	Internal:           http.StatusInternalServerError,
}

// Error is the structured error returned from every command/query handler.
type Error struct {
	Code          Code
	Message       string
	Details       map[string]any
	CorrelationID string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *Error) WithCorrelationID(id string) *Error {
	e.CorrelationID = id
	return e
}

// HTTPStatus returns the status code a command/query handler should use.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func InvalidArg(field, reason string) *Error {
	return New(InvalidArgument, "invalid argument").WithDetail("field", field).WithDetail("reason", reason)
}

func NotFoundf(resource, id string) *Error {
	return New(NotFound, "resource not found").WithDetail("resource", resource).WithDetail("id", id)
}

func FailedPrecond(reason string) *Error {
	return New(FailedPrecondition, reason)
}

func Conflictf(reason string) *Error {
	return New(Conflict, reason)
}

func Unauth(message string) *Error {
	return New(Unauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(PermissionDenied, message)
}

func Internalf(message string, err error) *Error {
	return Wrap(Internal, message, err)
}

func Transientf(message string, err error) *Error {
	return Wrap(Transient, message, err)
}

// As extracts an *Error from err's chain, if present.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// CodeOf returns the taxonomy code of err, or Internal if err is not an *Error.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return Internal
}
