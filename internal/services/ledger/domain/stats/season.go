package stats

import (
	"sort"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
)

// MatchEvents pairs a match with its ledger for season folding.
type MatchEvents struct {
	MatchID string
	ClubID  string
	Events  []event.Event
}

// SeasonStats rolls every match of one club together.
type SeasonStats struct {
	ClubID  string        `json:"club_id"`
	Matches int           `json:"matches"`
	Team    Tally         `json:"team"`
	Players []PlayerStats `json:"players"`
}

// Score is the aggregate scoreboard across the season.
func (s SeasonStats) Score() Score {
	return s.Team.Score()
}

// ComputeSeason folds the matches owned by clubID. Matches owned by another
// club are skipped, as are events attributed to another club, so a player
// who changed clubs keeps earlier events with the club that recorded them.
func ComputeSeason(clubID string, matches []MatchEvents) SeasonStats {
	season := SeasonStats{ClubID: clubID}
	players := map[string]*PlayerStats{}
	for _, m := range matches {
		if m.ClubID != clubID {
			continue
		}
		owned := make([]event.Event, 0, len(m.Events))
		for _, evt := range m.Events {
			if evt.ClubID == clubID && evt.MatchID == m.MatchID {
				owned = append(owned, evt)
			}
		}
		result := ComputeMatch(m.MatchID, clubID, owned)
		season.Matches++
		season.Team = season.Team.add(result.Team)
		for _, p := range result.Players {
			agg, ok := players[p.PlayerID]
			if !ok {
				agg = &PlayerStats{PlayerID: p.PlayerID}
				players[p.PlayerID] = agg
			}
			agg.Tally = agg.Tally.add(p.Tally)
			agg.MatchesPlayed++
		}
	}
	season.Players = make([]PlayerStats, 0, len(players))
	for _, p := range players {
		season.Players = append(season.Players, *p)
	}
	sort.Slice(season.Players, func(i, j int) bool {
		return season.Players[i].PlayerID < season.Players[j].PlayerID
	})
	return season
}
