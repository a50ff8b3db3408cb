// Package errs is the front-end's error taxonomy. Every failure that reaches a
// user carries a Kind that decides how it is presented: a dismissible
// notification for transient failures, a dedicated page for terminal ones.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorises an error.
type Kind string

const (
	// KindAuth covers bad credentials, password mismatch and missing login.
	KindAuth Kind = "auth"
	// KindAuthorization is a non-owner attempting a mutation.
	KindAuthorization Kind = "authorization"
	// KindNotFound is a missing post or user.
	KindNotFound Kind = "not_found"
	// KindNetwork is a transport failure talking to the service.
	KindNetwork Kind = "network"
	// KindValidation is missing or invalid form input.
	KindValidation Kind = "validation"
	// KindUpstream is any other non-success answer from the service, including
	// a 2xx body that does not decode.
	KindUpstream Kind = "upstream"
)

// Error is a classified failure with the message shown to the user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto the status the web front answers with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindNetwork, KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// E builds an error of the given kind.
func E(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds an error of the given kind around cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func Auth(op, message string) *Error          { return E(KindAuth, op, message) }
func Authorization(op, message string) *Error { return E(KindAuthorization, op, message) }
func NotFound(op, message string) *Error      { return E(KindNotFound, op, message) }
func Validation(op, message string) *Error    { return E(KindValidation, op, message) }

// Network wraps a transport failure.
func Network(op, message string, cause error) *Error {
	return Wrap(KindNetwork, op, message, cause)
}

// FromStatus classifies a non-success HTTP answer from the service.
func FromStatus(op string, status int, message string) *Error {
	var kind Kind
	switch status {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindAuthorization
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	default:
		kind = KindUpstream
	}
	return &Error{Kind: kind, Op: op, Message: message, Status: status}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return "An unknown error occurred"
}
