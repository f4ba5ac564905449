// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Tenant isolation
	CodeOwnershipViolation Code = "OWNERSHIP_VIOLATION"

	// Ledger errors
	CodeInvalidState     Code = "INVALID_STATE"
	CodeAlreadyCorrected Code = "ALREADY_CORRECTED"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeLedgerAborted    Code = "LEDGER_ABORTED"

	// Lifecycle errors
	CodeIllegalTransition Code = "ILLEGAL_TRANSITION"

	// Lookup errors
	CodeNotFound Code = "NOT_FOUND"

	// Connection-level authorization
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeHandshakeTimeout Code = "HANDSHAKE_TIMEOUT"
)

// GRPCCode maps a domain error code to the appropriate gRPC status code.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeValidation:
		return codes.InvalidArgument

	// FailedPrecondition - the request is well-formed but the match is not in a
	// state that allows it
	case CodeInvalidState,
		CodeAlreadyCorrected,
		CodeIllegalTransition:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeOwnershipViolation,
		CodeForbidden:
		return codes.PermissionDenied

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeHandshakeTimeout:
		return codes.DeadlineExceeded

	// The match ledger refuses every mutation until the process restarts.
	case CodeLedgerAborted:
		return codes.Aborted

	default:
		return codes.Internal
	}
}
