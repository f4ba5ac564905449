// Package view holds the JSON wire forms of statistics shared by the
// gRPC and HTTP surfaces.
package view

import (
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
)

// Rates carries the derived ratios of a tally.
type Rates struct {
	Points               int     `json:"points"`
	Shots                int     `json:"shots"`
	ShotAccuracy         float64 `json:"shot_accuracy"`
	TackleSuccessRate    float64 `json:"tackle_success_rate"`
	TurnoverDifferential int     `json:"turnover_differential"`
	KickoutWinRate       float64 `json:"kickout_win_rate"`
}

// NewRates derives the ratios of t.
func NewRates(t stats.Tally) Rates {
	return Rates{
		Points:               t.Points(),
		Shots:                t.Shots(),
		ShotAccuracy:         t.ShotAccuracy(),
		TackleSuccessRate:    t.TackleSuccessRate(),
		TurnoverDifferential: t.TurnoverDifferential(),
		KickoutWinRate:       t.KickoutWinRate(),
	}
}

// Tally is a tally with its rates and score.
type Tally struct {
	Counts stats.Tally      `json:"counts"`
	Rates  Rates            `json:"rates"`
	Score  fanout.ScoreData `json:"score"`
}

// NewTally converts t.
func NewTally(t stats.Tally) Tally {
	return Tally{Counts: t, Rates: NewRates(t), Score: fanout.NewScoreData(t.Score())}
}

// PlayerStats is one player's line.
type PlayerStats struct {
	PlayerID      string `json:"player_id"`
	MatchesPlayed int    `json:"matches_played,omitempty"`
	Stats         Tally  `json:"stats"`
}

// MatchStats is the wire form of stats.MatchStats.
type MatchStats struct {
	MatchID   string        `json:"match_id"`
	LastSeq   uint64        `json:"last_seq"`
	Team      Tally         `json:"team_stats"`
	Players   []PlayerStats `json:"per_player_stats"`
	Corrected int           `json:"corrected"`
	Voided    int           `json:"voided"`
}

// NewMatchStats converts m.
func NewMatchStats(m stats.MatchStats) MatchStats {
	out := MatchStats{
		MatchID:   m.MatchID,
		LastSeq:   m.LastSeq,
		Team:      NewTally(m.Team),
		Players:   make([]PlayerStats, 0, len(m.Players)),
		Corrected: m.Corrected,
		Voided:    m.Voided,
	}
	for _, p := range m.Players {
		out.Players = append(out.Players, PlayerStats{PlayerID: p.PlayerID, Stats: NewTally(p.Tally)})
	}
	return out
}

// SeasonStats is the wire form of stats.SeasonStats.
type SeasonStats struct {
	ClubID  string        `json:"club_id"`
	Matches int           `json:"matches"`
	Team    Tally         `json:"team_stats"`
	Players []PlayerStats `json:"per_player_stats"`
}

// NewSeasonStats converts s.
func NewSeasonStats(s stats.SeasonStats) SeasonStats {
	out := SeasonStats{
		ClubID:  s.ClubID,
		Matches: s.Matches,
		Team:    NewTally(s.Team),
		Players: make([]PlayerStats, 0, len(s.Players)),
	}
	for _, p := range s.Players {
		out.Players = append(out.Players, PlayerStats{PlayerID: p.PlayerID, MatchesPlayed: p.MatchesPlayed, Stats: NewTally(p.Tally)})
	}
	return out
}
