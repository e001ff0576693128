package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a remote exchange failure
type Kind int

const (
	// KindValidation is a local input failure detected before any network call
	KindValidation Kind = iota + 1
	// KindServer is a non-2xx response, optionally carrying a detail message
	KindServer
	// KindTransport means no response was received at all
	KindTransport
)

// Sentinels matched by errors.Is against an *ExchangeError of the same kind
var (
	ErrValidation = errors.New("validation failed")
	ErrServer     = errors.New("server reported an error")
	ErrTransport  = errors.New("request could not be completed")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindServer:
		return ErrServer
	case KindTransport:
		return ErrTransport
	default:
		return nil
	}
}

// ExchangeError is the single error type returned by the remote exchange clients.
// Detail is the human-readable message; it is empty for a server error whose
// body carried none.
type ExchangeError struct {
	Kind       Kind
	Action     string
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	switch e.Kind {
	case KindServer:
		if e.Detail != "" {
			return fmt.Sprintf("%s: server returned %d: %s", e.Action, e.StatusCode, e.Detail)
		}
		return fmt.Sprintf("%s: server returned %d", e.Action, e.StatusCode)
	case KindTransport:
		return fmt.Sprintf("%s: %v: %v", e.Action, ErrTransport, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Action, e.Detail)
	}
}

// Is reports whether target is the sentinel for e's kind
func (e *ExchangeError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Unwrap returns the underlying cause, if any
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Validation creates a validation error for action
func Validation(action, detail string) *ExchangeError {
	return &ExchangeError{Kind: KindValidation, Action: action, Detail: detail}
}

// Server creates a server-reported error for action
func Server(action string, statusCode int, detail string) *ExchangeError {
	return &ExchangeError{Kind: KindServer, Action: action, StatusCode: statusCode, Detail: detail}
}

// Transport wraps err as a transport failure for action
func Transport(action string, err error) *ExchangeError {
	return &ExchangeError{Kind: KindTransport, Action: action, Err: err}
}

// AsExchange extracts an *ExchangeError from err's chain
func AsExchange(err error) (*ExchangeError, bool) {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
