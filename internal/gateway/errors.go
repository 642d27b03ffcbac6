package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies gateway failures by who has to fix them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthorization
	KindDispatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindDispatch:
		return "dispatch"
	default:
		return "internal"
	}
}

// Error is the error type returned across the gateway boundary.
// Message is safe to show to clients; Err carries the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError reports bad or missing client input.
func ValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports a credential issuer rejection.
func AuthorizationError(err error) error {
	return &Error{Kind: KindAuthorization, Message: "Failed to generate upload URL.", Err: err}
}

// DispatchError reports a workflow orchestrator rejection.
func DispatchError(message string, err error) error {
	return &Error{Kind: KindDispatch, Message: message, Err: err}
}

// InternalError wraps anything unexpected.
func InternalError(err error) error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return "Internal Server Error"
}

// StatusCode maps err to the HTTP status returned to the uploading client.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if KindOf(err) == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
