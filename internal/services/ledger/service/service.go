// Package service is the inbound command surface and the stats read
// surface of the ledger. Every call carries an explicit caller and is
// checked against the club that owns the target.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/id"
	"github.com/louisbranch/pitchside/internal/services/ledger/auth"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/snapshot"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// IdentityVerifier turns a presented token into a verified identity.
type IdentityVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Service implements ledger commands and reads.
type Service struct {
	store        storage.Store
	ledger       *ledger.Ledger
	identities   IdentityVerifier
	recentEvents int
	now          func() time.Time
	newID        func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithIdentityVerifier enables token-based authorization of live
// connections.
func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *Service) {
		s.identities = v
	}
}

// WithRecentEvents sets the snapshot recent-events window.
func WithRecentEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentEvents = n
		}
	}
}

// WithClock overrides the wall clock used for directory writes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides match id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New builds a service over store and its ledger.
func New(store storage.Store, l *ledger.Ledger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("service store is required")
	}
	if l == nil {
		return nil, errors.New("service ledger is required")
	}
	s := &Service{
		store:        store,
		ledger:       l,
		recentEvents: snapshot.DefaultRecentEvents,
		now:          time.Now,
		newID:        id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ResolveCaller loads the membership of userID. A club hint, when given,
// must name that membership's club.
func (s *Service) ResolveCaller(ctx context.Context, userID, clubHint string) (tenant.Caller, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return tenant.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "caller identity is required")
	}
	member, err := s.store.GetMember(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return tenant.Caller{}, forbidden(fmt.Sprintf("user %s has no club membership", userID))
		}
		return tenant.Caller{}, err
	}
	clubHint = strings.TrimSpace(clubHint)
	if clubHint != "" && clubHint != member.ClubID {
		return tenant.Caller{}, forbidden(fmt.Sprintf("user %s is not a member of club %s", userID, clubHint))
	}
	return tenant.CallerFor(member), nil
}

// requireWriter checks the caller may change ledger state for their club.
func (s *Service) requireWriter(ctx context.Context, caller tenant.Caller) error {
	if err := caller.Validate(); err != nil {
		return err
	}
	if !caller.CanEdit() {
		return forbidden(fmt.Sprintf("role %s cannot record match data", caller.Role))
	}
	club, err := s.store.GetClub(ctx, caller.ClubID)
	if err != nil {
		return err
	}
	if !club.CanWrite() {
		return forbidden(fmt.Sprintf("club %s is %s", club.ID, club.Status))
	}
	return nil
}

func forbidden(message string) error {
	return apperrors.New(apperrors.CodeForbidden, message)
}
