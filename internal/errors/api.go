// Package errors holds the two error families of the service: ExchangeError
// for calls to the remote endpoints, and APIError for the JSON error bodies
// of the local API.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in APIError bodies
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeControlDisabled    = "CONTROL_DISABLED"
	CodeViewInactive       = "VIEW_INACTIVE"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError is the body written for a rejected local API call. It renders
// through chi/render with its own status code.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Render sets the response status
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithTrace returns a copy of e carrying traceID. The shared values below
// are never modified.
func (e *APIError) WithTrace(traceID string) *APIError {
	cp := *e
	cp.TraceID = traceID
	return &cp
}

// Shared rejections of the local API
var (
	ErrInvalidRequest     = &APIError{StatusCode: http.StatusBadRequest, ErrorCode: CodeInvalidRequest, Message: "Request body is not valid JSON"}
	ErrControlDisabled    = &APIError{StatusCode: http.StatusConflict, ErrorCode: CodeControlDisabled, Message: "The control is disabled while a request is pending"}
	ErrViewInactive       = &APIError{StatusCode: http.StatusConflict, ErrorCode: CodeViewInactive, Message: "The control is not part of the visible view"}
	ErrRateLimitExceeded  = &APIError{StatusCode: http.StatusTooManyRequests, ErrorCode: CodeRateLimited, Message: "Too many requests"}
	ErrInternalServer     = &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: CodeInternal, Message: "Internal server error"}
	ErrServiceUnavailable = &APIError{StatusCode: http.StatusServiceUnavailable, ErrorCode: CodeServiceUnavailable, Message: "The portal is shutting down"}
)

// BadRequest is ErrInvalidRequest with the decode failure as details
func BadRequest(err error) *APIError {
	cp := *ErrInvalidRequest
	cp.Details = err.Error()
	return &cp
}
