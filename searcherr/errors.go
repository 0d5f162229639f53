// Package searcherr defines the searcher daemon's typed error taxonomy and
// the propagation policy each kind implies for its caller.
package searcherr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error categories the searcher pipeline distinguishes
// for retry, logging, and alerting purposes.
type Kind string

const (
	ConnectionError    Kind = "connection_error"
	DecodeError        Kind = "decode_error"
	InvalidInput       Kind = "invalid_input"
	SimulationFailed   Kind = "simulation_failed"
	InsufficientProfit Kind = "insufficient_profit"
	GasCapExceeded     Kind = "gas_cap_exceeded"
	NonceError         Kind = "nonce_error"
	RateLimited        Kind = "rate_limited"
	RelayRejected      Kind = "relay_rejected"
	Timeout            Kind = "timeout"
	Fatal              Kind = "fatal"
)

// Error is the searcher's single wrapped-error type. Reason carries a
// human-readable detail (e.g. the relay's rejection message); Err wraps
// the underlying cause when one exists.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind with a reason and no wrapped cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap constructs an Error of the given kind, wrapping cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// Retryable reports whether the propagation policy calls for a local,
// bounded retry of an error of this kind (ConnectionError, RateLimited) as
// opposed to surfacing it directly to the caller.
func (k Kind) Retryable() bool {
	switch k {
	case ConnectionError, RateLimited:
		return true
	default:
		return false
	}
}

// OperatorAlert reports whether an error of this kind should page an
// operator rather than be treated as routine pipeline noise.
func (k Kind) OperatorAlert() bool {
	switch k {
	case Fatal, RelayRejected:
		return true
	default:
		return false
	}
}
