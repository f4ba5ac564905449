package fanout

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

// CloseReason explains why a connection ended.
type CloseReason string

const (
	ReasonUnauthenticated CloseReason = "unauthenticated"
	ReasonNotFound        CloseReason = "not_found"
	ReasonForbidden       CloseReason = "forbidden"
	ReasonTimeout         CloseReason = "timeout"
	ReasonSlowConsumer    CloseReason = "slow_consumer"
	ReasonDisconnected    CloseReason = "disconnected"
	ReasonShutdown        CloseReason = "shutdown"
	ReasonInternal        CloseReason = "internal_error"
)

// Application close codes carried by the websocket close frame.
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	CloseInternalError   = 1011
	CloseUnauthenticated = 4001
	CloseForbidden       = 4003
	CloseNotFound        = 4004
	CloseTimeout         = 4008
	CloseSlowConsumer    = 4009
)

// Code returns the close code for the reason.
func (r CloseReason) Code() int {
	switch r {
	case ReasonUnauthenticated:
		return CloseUnauthenticated
	case ReasonForbidden:
		return CloseForbidden
	case ReasonNotFound:
		return CloseNotFound
	case ReasonTimeout:
		return CloseTimeout
	case ReasonSlowConsumer:
		return CloseSlowConsumer
	case ReasonShutdown:
		return CloseGoingAway
	case ReasonInternal:
		return CloseInternalError
	default:
		return CloseNormal
	}
}

// ReasonFor classifies an authorization failure. Each failure kind maps
// to its own reason so clients can tell them apart.
func ReasonFor(err error) CloseReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	switch apperrors.GetCode(err) {
	case apperrors.CodeUnauthenticated:
		return ReasonUnauthenticated
	case apperrors.CodeNotFound:
		return ReasonNotFound
	case apperrors.CodeForbidden, apperrors.CodeOwnershipViolation:
		return ReasonForbidden
	case apperrors.CodeHandshakeTimeout:
		return ReasonTimeout
	default:
		return ReasonInternal
	}
}
