// Package storage defines the persistence contracts of the ledger service.
package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// ErrNotFound indicates a requested record is missing. Every not-found
// error returned by a store matches it with errors.Is.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAlreadyCorrected indicates the correction target already has a successor.
var ErrAlreadyCorrected = apperrors.New(apperrors.CodeAlreadyCorrected, "event already corrected")

// NotFound builds a not-found error naming the missing resource.
func NotFound(resource, id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %s not found", resource, id),
		map[string]string{"Resource": resource, "ID": id},
	)
}

// AlreadyCorrected builds the error for a second correction of eventID.
func AlreadyCorrected(eventID, successorID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeAlreadyCorrected,
		fmt.Sprintf("event %s already corrected by %s", eventID, successorID),
		map[string]string{"EventID": eventID, "CorrectedBy": successorID},
	)
}

// ClubStore persists tenants.
type ClubStore interface {
	PutClub(ctx context.Context, c tenant.Club) error
	GetClub(ctx context.Context, id string) (tenant.Club, error)
}

// MemberStore resolves users to their club membership.
type MemberStore interface {
	PutMember(ctx context.Context, m tenant.Member) error
	// GetMember returns the membership of userID.
	GetMember(ctx context.Context, userID string) (tenant.Member, error)
}

// PlayerStore persists squad members. Jersey numbers are unique per club
// when assigned; PutPlayer returns tenant.ErrJerseyNumberTaken otherwise.
type PlayerStore interface {
	PutPlayer(ctx context.Context, p tenant.Player) error
	GetPlayer(ctx context.Context, id string) (tenant.Player, error)
	ListPlayers(ctx context.Context, clubID string) ([]tenant.Player, error)
}

// MatchStore persists fixtures and their lifecycle phase.
type MatchStore interface {
	PutMatch(ctx context.Context, m match.Match) error
	GetMatch(ctx context.Context, id string) (match.Match, error)
	ListMatches(ctx context.Context, clubID string) ([]match.Match, error)
	// UpdateMatchPhase stores a phase already validated by the lifecycle.
	UpdateMatchPhase(ctx context.Context, matchID string, phase match.Phase, at time.Time) error
}

// LineupStore persists match-day squads.
type LineupStore interface {
	PutLineup(ctx context.Context, matchID string, entries []tenant.LineupEntry) error
	GetLineup(ctx context.Context, matchID string) ([]tenant.LineupEntry, error)
}

// EventStore is the append-only match ledger.
type EventStore interface {
	// AppendEvent stores evt with the next sequence number of its match and
	// returns the stored event.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// CorrectEvent atomically stores successor with the next sequence number
	// and links originalID to it. It fails with ErrAlreadyCorrected, leaving
	// the ledger untouched, when originalID already has a successor.
	CorrectEvent(ctx context.Context, originalID string, successor event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id string) (event.Event, error)
	// ListEvents returns events of matchID in sequence order with
	// Seq <= asOf, or all events when asOf is 0.
	ListEvents(ctx context.Context, matchID string, asOf uint64) ([]event.Event, error)
	// LatestSeq returns the highest sequence number of matchID, 0 if empty.
	LatestSeq(ctx context.Context, matchID string) (uint64, error)
}

// Store is the full set of ledger service persistence.
type Store interface {
	ClubStore
	MemberStore
	PlayerStore
	MatchStore
	LineupStore
	EventStore
	Close() error
}
