package stats

import (
	"sort"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
)

// PlayerStats is one player's tally within a match or season.
type PlayerStats struct {
	PlayerID      string `json:"player_id"`
	Tally         Tally  `json:"tally"`
	MatchesPlayed int    `json:"matches_played,omitempty"`
}

// MatchStats is the derived view of one match ledger.
type MatchStats struct {
	MatchID     string        `json:"match_id"`
	ClubID      string        `json:"club_id"`
	LastSeq     uint64        `json:"last_seq"`
	Team        Tally         `json:"team"`
	Players     []PlayerStats `json:"players"`
	PlayersUsed int           `json:"players_used"`
	Corrected   int           `json:"corrected"`
	Voided      int           `json:"voided"`
}

// Score is the team scoreboard for the match.
func (m MatchStats) Score() Score {
	return m.Team.Score()
}

// Player returns the tally for playerID, zero if the player has none.
func (m MatchStats) Player(playerID string) Tally {
	for _, p := range m.Players {
		if p.PlayerID == playerID {
			return p.Tally
		}
	}
	return Tally{}
}

// ComputeMatch folds one match's events into statistics. Events may arrive
// in any order; the result depends only on the set of events.
func ComputeMatch(matchID, clubID string, events []event.Event) MatchStats {
	acc := NewAccumulator(matchID, clubID)
	for _, evt := range events {
		acc.observe(evt)
	}
	return acc.Stats()
}

// Accumulator maintains match statistics incrementally. Feeding it every
// append and correction in commit order yields the same MatchStats as
// ComputeMatch over the final ledger.
type Accumulator struct {
	matchID   string
	clubID    string
	lastSeq   uint64
	team      Tally
	players   map[string]Tally
	corrected int
	voided    int
}

// NewAccumulator starts an empty accumulator for one match.
func NewAccumulator(matchID, clubID string) *Accumulator {
	return &Accumulator{matchID: matchID, clubID: clubID, players: map[string]Tally{}}
}

// Append records a newly committed event.
func (a *Accumulator) Append(evt event.Event) {
	a.observe(evt)
}

// Correct records that original was superseded by successor. original is
// the event as it was before the correction link was set.
func (a *Accumulator) Correct(original, successor event.Event) {
	if original.IsVoid() {
		a.voided--
	} else {
		a.apply(original, -1)
	}
	a.corrected++
	a.observe(successor)
}

func (a *Accumulator) observe(evt event.Event) {
	if evt.Seq > a.lastSeq {
		a.lastSeq = evt.Seq
	}
	switch {
	case !evt.Active():
		a.corrected++
	case evt.IsVoid():
		a.voided++
	default:
		a.apply(evt, 1)
	}
}

func (a *Accumulator) apply(evt event.Event, delta int) {
	a.team.apply(evt.Kind, delta)
	if evt.PlayerID == "" {
		return
	}
	tally := a.players[evt.PlayerID]
	tally.apply(evt.Kind, delta)
	if tally.IsZero() {
		delete(a.players, evt.PlayerID)
		return
	}
	a.players[evt.PlayerID] = tally
}

// Score is the current team scoreboard.
func (a *Accumulator) Score() Score {
	return a.team.Score()
}

// Stats returns a snapshot of the accumulated statistics.
func (a *Accumulator) Stats() MatchStats {
	players := make([]PlayerStats, 0, len(a.players))
	for id, tally := range a.players {
		players = append(players, PlayerStats{PlayerID: id, Tally: tally})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return MatchStats{
		MatchID:     a.matchID,
		ClubID:      a.clubID,
		LastSeq:     a.lastSeq,
		Team:        a.team,
		Players:     players,
		PlayersUsed: len(players),
		Corrected:   a.corrected,
		Voided:      a.voided,
	}
}
