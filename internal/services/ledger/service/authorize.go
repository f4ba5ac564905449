package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// Authorize implements fanout.Authorizer. Checks run in order: identity,
// match, membership, club. A caller without any membership is forbidden
// rather than unauthenticated because the identity itself was valid.
func (s *Service) Authorize(ctx context.Context, req fanout.Request) (fanout.Grant, error) {
	if s.identities == nil {
		return fanout.Grant{}, errors.New("identity verifier is not configured")
	}
	if strings.TrimSpace(req.CallerIdentity) == "" {
		return fanout.Grant{}, apperrors.New(apperrors.CodeUnauthenticated, "caller identity is required")
	}
	identity, err := s.identities.Verify(req.CallerIdentity)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeUnknown {
			return fanout.Grant{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "caller identity is invalid", err)
		}
		return fanout.Grant{}, err
	}

	m, err := s.store.GetMatch(ctx, strings.TrimSpace(req.MatchID))
	if err != nil {
		return fanout.Grant{}, err
	}

	member, err := s.store.GetMember(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fanout.Grant{}, forbidden(fmt.Sprintf("user %s has no club membership", identity.UserID))
		}
		return fanout.Grant{}, err
	}
	if member.ClubID != m.ClubID {
		return fanout.Grant{}, forbidden(fmt.Sprintf("match %s belongs to another club", m.ID))
	}
	return fanout.Grant{Caller: tenant.CallerFor(member), Match: m}, nil
}

var _ fanout.Authorizer = (*Service)(nil)
