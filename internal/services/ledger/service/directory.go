package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// CreateMatch schedules a fixture for the caller's club.
func (s *Service) CreateMatch(ctx context.Context, caller tenant.Caller, input match.CreateInput) (match.Match, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return match.Match{}, err
	}
	input.ClubID = caller.ClubID
	m, err := match.Create(input, s.now, s.newID)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.store.PutMatch(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("put match: %w", err)
	}
	return m, nil
}

// SetLineup replaces the match-day squad. Every player must belong to the
// match's club and appear once.
func (s *Service) SetLineup(ctx context.Context, caller tenant.Caller, matchID string, entries []tenant.LineupEntry) ([]tenant.LineupEntry, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return nil, err
	}
	m, err := s.ownedMatch(ctx, caller, matchID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	normalized := make([]tenant.LineupEntry, 0, len(entries))
	for _, entry := range entries {
		playerID := strings.TrimSpace(entry.PlayerID)
		if seen[playerID] {
			reason := fmt.Sprintf("player %s appears twice in the lineup", playerID)
			return nil, apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
		}
		seen[playerID] = true
		player, err := s.store.GetPlayer(ctx, playerID)
		if err != nil {
			return nil, err
		}
		if err := caller.RequireOwner("player", player.ID, player.ClubID); err != nil {
			return nil, err
		}
		normalized = append(normalized, tenant.LineupEntry{
			MatchID:  m.ID,
			PlayerID: player.ID,
			Position: strings.TrimSpace(entry.Position),
			Starting: entry.Starting,
		})
	}
	if err := s.store.PutLineup(ctx, m.ID, normalized); err != nil {
		return nil, fmt.Errorf("put lineup: %w", err)
	}
	return normalized, nil
}

// RegisterPlayer adds or updates a squad member of the caller's club.
func (s *Service) RegisterPlayer(ctx context.Context, caller tenant.Caller, p tenant.Player) (tenant.Player, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return tenant.Player{}, err
	}
	if strings.TrimSpace(p.ID) == "" {
		playerID, err := s.newID()
		if err != nil {
			return tenant.Player{}, fmt.Errorf("generate player id: %w", err)
		}
		p.ID = playerID
	} else if existing, err := s.store.GetPlayer(ctx, strings.TrimSpace(p.ID)); err == nil {
		if err := caller.RequireOwner("player", existing.ID, existing.ClubID); err != nil {
			return tenant.Player{}, err
		}
	}
	p.ClubID = caller.ClubID
	p, err := tenant.NormalizePlayer(p)
	if err != nil {
		return tenant.Player{}, err
	}
	if err := s.store.PutPlayer(ctx, p); err != nil {
		return tenant.Player{}, err
	}
	return p, nil
}

// DisablePlayer soft-disables a player; past events keep their attribution.
func (s *Service) DisablePlayer(ctx context.Context, caller tenant.Caller, playerID string) (tenant.Player, error) {
	if err := s.requireWriter(ctx, caller); err != nil {
		return tenant.Player{}, err
	}
	p, err := s.store.GetPlayer(ctx, strings.TrimSpace(playerID))
	if err != nil {
		return tenant.Player{}, err
	}
	if err := caller.RequireOwner("player", p.ID, p.ClubID); err != nil {
		return tenant.Player{}, err
	}
	p = tenant.Disable(p)
	if err := s.store.PutPlayer(ctx, p); err != nil {
		return tenant.Player{}, err
	}
	return p, nil
}
