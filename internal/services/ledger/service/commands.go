package service

import (
	"context"
	"strings"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// AppendEventRequest is an inbound append command.
type AppendEventRequest struct {
	MatchID  string
	Kind     event.Kind
	PlayerID string
	Minute   int
	Payload  event.Payload
}

// CorrectEventRequest is an inbound correction command.
type CorrectEventRequest struct {
	EventID string
	Void    bool
	Payload event.Payload
}

// AppendEvent records an event on a match owned by the caller's club.
func (s *Service) AppendEvent(ctx context.Context, caller tenant.Caller, req AppendEventRequest) (event.Event, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return event.Event{}, err
	}
	if _, err := s.ownedMatch(ctx, caller, req.MatchID); err != nil {
		return event.Event{}, err
	}
	return s.ledger.Append(ctx, ledger.AppendInput{
		MatchID:  strings.TrimSpace(req.MatchID),
		Kind:     req.Kind,
		PlayerID: strings.TrimSpace(req.PlayerID),
		Minute:   req.Minute,
		Payload:  req.Payload,
	})
}

// CorrectEvent supersedes an event owned by the caller's club.
func (s *Service) CorrectEvent(ctx context.Context, caller tenant.Caller, req CorrectEventRequest) (event.Event, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return event.Event{}, err
	}
	eventID := strings.TrimSpace(req.EventID)
	evt, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return event.Event{}, err
	}
	if err := caller.RequireOwner("event", evt.ID, evt.ClubID); err != nil {
		return event.Event{}, err
	}
	return s.ledger.Correct(ctx, ledger.CorrectInput{EventID: eventID, Void: req.Void, Payload: req.Payload})
}

// TransitionMatch moves a match owned by the caller's club to phase.
func (s *Service) TransitionMatch(ctx context.Context, caller tenant.Caller, matchID string, phase match.Phase) (match.Match, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return match.Match{}, err
	}
	if _, err := s.ownedMatch(ctx, caller, matchID); err != nil {
		return match.Match{}, err
	}
	return s.ledger.Transition(ctx, ledger.TransitionInput{MatchID: strings.TrimSpace(matchID), Phase: phase})
}

func (s *Service) ownedMatch(ctx context.Context, caller tenant.Caller, matchID string) (match.Match, error) {
	m, err := s.store.GetMatch(ctx, strings.TrimSpace(matchID))
	if err != nil {
		return match.Match{}, err
	}
	if err := caller.RequireOwner("match", m.ID, m.ClubID); err != nil {
		return match.Match{}, err
	}
	return m, nil
}
