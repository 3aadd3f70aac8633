package most

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error class carried in every error response
// body. Procedures may raise any code they like; unknown codes map to 500.
type Code string

const (
	CodeBadRequest           Code = "BAD_REQUEST"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeNotFound             Code = "NOT_FOUND"
	CodeMethodNotSupported   Code = "METHOD_NOT_SUPPORTED"
	CodeTimeout              Code = "TIMEOUT"
	CodeConflict             Code = "CONFLICT"
	CodePreconditionFailed   Code = "PRECONDITION_FAILED"
	CodePayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
	CodeUnprocessableContent Code = "UNPROCESSABLE_CONTENT"
	CodeTooManyRequests      Code = "TOO_MANY_REQUESTS"
	CodeClientClosedRequest  Code = "CLIENT_CLOSED_REQUEST"
	CodeInternalServerError  Code = "INTERNAL_SERVER_ERROR"
	CodeNotImplemented       Code = "NOT_IMPLEMENTED"
)

// statusClientClosedRequest is nginx's non-standard 499. Go's status text
// table does not know it, but the wire contract does.
const statusClientClosedRequest = 499

var codeStatus = map[Code]int{
	CodeBadRequest:           http.StatusBadRequest,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeNotFound:             http.StatusNotFound,
	CodeMethodNotSupported:   http.StatusMethodNotAllowed,
	CodeTimeout:              http.StatusRequestTimeout,
	CodeConflict:             http.StatusConflict,
	CodePreconditionFailed:   http.StatusPreconditionFailed,
	CodePayloadTooLarge:      http.StatusRequestEntityTooLarge,
	CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	CodeUnprocessableContent: http.StatusUnprocessableEntity,
	CodeTooManyRequests:      http.StatusTooManyRequests,
	CodeClientClosedRequest:  statusClientClosedRequest,
	CodeInternalServerError:  http.StatusInternalServerError,
	CodeNotImplemented:       http.StatusNotImplemented,
}

// StatusForCode maps an error code to its HTTP status. Codes outside the
// table resolve to 500.
func StatusForCode(c Code) int {
	if status, ok := codeStatus[c]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// Error is the failure value the adapter serializes. Procedures can return
// one directly to pick the response status; anything else is wrapped as
// INTERNAL_SERVER_ERROR.
type Error struct {
	Code    Code
	Message string

	// Issues carries schema violations for validation failures.
	Issues []Issue

	cause error
}

// NewError creates an error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error satisfies the `error` interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return string(e.Code)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status that should be sent to the client for
// this error.
func (e *Error) Status() int {
	return StatusForCode(e.Code)
}

// wrapError attaches a cause to a new error value.
func wrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// AsError folds an arbitrary failure into the adapter's error model. Typed
// errors pass through untouched; `http.MaxBytesError` becomes
// PAYLOAD_TOO_LARGE with the code string as its message; everything else is
// INTERNAL_SERVER_ERROR.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return wrapError(CodePayloadTooLarge, string(CodePayloadTooLarge), err)
	}

	return wrapError(CodeInternalServerError, err.Error(), err)
}

// ErrorFormatter reshapes the error body before serialization. The returned
// map is merged over the default `{message, code, issues}` body; the `code`
// key and the HTTP status stay authoritative with the adapter and cannot be
// overridden.
type ErrorFormatter func(r *http.Request, err *Error) map[string]any
