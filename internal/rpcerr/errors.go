// Package rpcerr defines the error taxonomy shared by the provider components.
package rpcerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindValidation
	KindTransport
	KindProtocol
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

var (
	ErrDuplicateName           = errors.New("duplicate client name")
	ErrInvalidAddress          = errors.New("invalid address")
	ErrNoEndpoints             = errors.New("no endpoints configured")
	ErrMalformedQuantity       = errors.New("malformed quantity")
	ErrInconsistentResponse    = errors.New("inconsistent responses across endpoints")
	ErrAllEndpointsUnreachable = errors.New("all endpoints unreachable")
)

// Error carries the kind of a failure together with where it happened.
// Code is the JSON-RPC error code for protocol failures and zero otherwise.
type Error struct {
	Kind     Kind
	Op       string
	Endpoint string
	Code     int
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Endpoint != "" {
		msg += fmt.Sprintf(" (endpoint %s)", e.Endpoint)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind wrapping err.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configuration wraps a configuration failure. The format follows fmt.Errorf, so %w is honoured.
func Configuration(op string, format string, args ...any) *Error {
	return New(KindConfiguration, op, fmt.Errorf(format, args...))
}

// Validation wraps an input validation failure.
func Validation(op string, format string, args ...any) *Error {
	return New(KindValidation, op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is a transport failure worth retrying.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransport
}
