package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// State is the lifecycle position of a live connection.
type State string

const (
	StateConnecting  State = "connecting"
	StateAuthorizing State = "authorizing"
	StateSubscribed  State = "subscribed"
	StateClosed      State = "closed"
)

// Handshake tracks one connection through
// connecting -> authorizing -> subscribed -> closed.
type Handshake struct {
	mu     sync.Mutex
	state  State
	reason CloseReason
}

// NewHandshake starts a handshake in the connecting state.
func NewHandshake() *Handshake {
	return &Handshake{state: StateConnecting}
}

// State returns the current state.
func (h *Handshake) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reason returns the close reason once closed.
func (h *Handshake) Reason() CloseReason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

func (h *Handshake) move(from, to State) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != from {
		return apperrors.New(apperrors.CodeInvalidState, fmt.Sprintf("handshake is %s, not %s", h.state, from))
	}
	h.state = to
	return nil
}

// Begin records that the subscribe frame arrived.
func (h *Handshake) Begin() error {
	return h.move(StateConnecting, StateAuthorizing)
}

// Subscribed records a successful authorization.
func (h *Handshake) Subscribed() error {
	return h.move(StateAuthorizing, StateSubscribed)
}

// Close moves to closed from any state. The first reason sticks.
func (h *Handshake) Close(reason CloseReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed {
		return
	}
	h.state = StateClosed
	h.reason = reason
}

// Request is the content of a subscribe frame.
type Request struct {
	CallerIdentity string
	MatchID        string
}

// Grant is a successful authorization.
type Grant struct {
	Caller tenant.Caller
	Match  match.Match
}

// Authorizer decides whether a caller may watch a match. Failures carry
// Unauthenticated, NotFound or Forbidden codes.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (Grant, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req Request) (Grant, error)

// Authorize implements Authorizer.
func (fn AuthorizerFunc) Authorize(ctx context.Context, req Request) (Grant, error) {
	return fn(ctx, req)
}

// Admit authorizes req within timeout and, on success, joins sub to the
// match group. Failures close the handshake with the matching reason and
// never create group membership.
func Admit(ctx context.Context, registry *Registry, auth Authorizer, hs *Handshake, req Request, sub Subscriber, timeout time.Duration) (Grant, CloseReason, error) {
	if err := hs.Begin(); err != nil {
		return Grant{}, ReasonInternal, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		grant Grant
		err   error
	}
	done := make(chan result, 1)
	go func() {
		grant, err := auth.Authorize(ctx, req)
		done <- result{grant: grant, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = apperrors.Wrap(apperrors.CodeHandshakeTimeout, "handshake authorization timed out", ctx.Err())
	}
	if res.err == nil && res.grant.Match.ID != req.MatchID {
		res.err = apperrors.New(apperrors.CodeForbidden, "grant does not cover the requested match")
	}
	if res.err != nil {
		reason := ReasonFor(res.err)
		hs.Close(reason)
		return Grant{}, reason, res.err
	}

	registry.Join(req.MatchID, sub)
	if err := hs.Subscribed(); err != nil {
		registry.Leave(req.MatchID, sub.ID())
		return Grant{}, ReasonInternal, err
	}
	return res.grant, "", nil
}
