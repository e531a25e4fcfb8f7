package provider

import "rpc-provider/internal/rpcerr"

// Error is the typed failure returned by every Provider operation.
type Error = rpcerr.Error

// Kind classifies an Error.
type Kind = rpcerr.Kind

const (
	KindUnknown       = rpcerr.KindUnknown
	KindConfiguration = rpcerr.KindConfiguration
	KindValidation    = rpcerr.KindValidation
	KindTransport     = rpcerr.KindTransport
	KindProtocol      = rpcerr.KindProtocol
	KindConsistency   = rpcerr.KindConsistency
)

// Sentinels for errors.Is.
var (
	ErrDuplicateName           = rpcerr.ErrDuplicateName
	ErrInvalidAddress          = rpcerr.ErrInvalidAddress
	ErrNoEndpoints             = rpcerr.ErrNoEndpoints
	ErrMalformedQuantity       = rpcerr.ErrMalformedQuantity
	ErrInconsistentResponse    = rpcerr.ErrInconsistentResponse
	ErrAllEndpointsUnreachable = rpcerr.ErrAllEndpointsUnreachable
)

// KindOf returns the Kind of err, or KindUnknown for foreign errors such as
// context cancellation.
func KindOf(err error) Kind {
	return rpcerr.KindOf(err)
}
