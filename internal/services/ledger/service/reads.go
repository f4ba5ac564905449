package service

import (
	"context"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/snapshot"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// ComputeMatchStats folds the committed ledger of one match.
func (s *Service) ComputeMatchStats(ctx context.Context, caller tenant.Caller, matchID string) (stats.MatchStats, error) {
	m, err := s.ownedMatch(ctx, caller, matchID)
	if err != nil {
		return stats.MatchStats{}, err
	}
	return s.ledger.MatchStats(ctx, m)
}

// ComputeSeasonStats folds every match of the caller's club.
func (s *Service) ComputeSeasonStats(ctx context.Context, caller tenant.Caller) (stats.SeasonStats, error) {
	if err := caller.Validate(); err != nil {
		return stats.SeasonStats{}, err
	}
	matches, err := s.store.ListMatches(ctx, caller.ClubID)
	if err != nil {
		return stats.SeasonStats{}, err
	}
	folded := make([]stats.MatchEvents, 0, len(matches))
	for _, m := range matches {
		events, err := s.ledger.EventsFor(ctx, m.ID, 0)
		if err != nil {
			return stats.SeasonStats{}, err
		}
		if len(events) == 0 {
			continue
		}
		folded = append(folded, stats.MatchEvents{MatchID: m.ID, ClubID: m.ClubID, Events: events})
	}
	return stats.ComputeSeason(caller.ClubID, folded), nil
}

// Snapshot builds the current state of a match for resynchronization.
func (s *Service) Snapshot(ctx context.Context, caller tenant.Caller, matchID string) (snapshot.Snapshot, error) {
	m, err := s.ownedMatch(ctx, caller, matchID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	events, err := s.ledger.EventsFor(ctx, m.ID, 0)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	lineup, err := s.store.GetLineup(ctx, m.ID)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return snapshot.Build(m, events, lineup, s.recentEvents), nil
}
