// Package stats derives team and player statistics from ledger events.
//
// Every figure is a pure fold over events; nothing here reads or writes
// storage. Only events that are the tail of their correction chain and are
// not void placeholders contribute.
package stats

import (
	"fmt"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
)

// Tally counts each event kind for a team or a player.
type Tally struct {
	Goals          int `json:"goals"`
	OnePointers    int `json:"one_pointers"`
	TwoPointers    int `json:"two_pointers"`
	ShotsOnTarget  int `json:"shots_on_target"`
	ShotsWide      int `json:"shots_wide"`
	ShotsSaved     int `json:"shots_saved"`
	TacklesWon     int `json:"tackles_won"`
	TacklesLost    int `json:"tackles_lost"`
	Blocks         int `json:"blocks"`
	TurnoversWon   int `json:"turnovers_won"`
	TurnoversLost  int `json:"turnovers_lost"`
	KickoutsWon    int `json:"kickouts_won"`
	KickoutsLost   int `json:"kickouts_lost"`
	Substitutions  int `json:"substitutions"`
	Injuries       int `json:"injuries"`
	FoulsCommitted int `json:"fouls_committed"`
	FoulsConceded  int `json:"fouls_conceded"`
}

// apply adds delta to the counter for kind. Unknown kinds never pass
// ledger validation and are ignored.
func (t *Tally) apply(kind event.Kind, delta int) {
	switch kind {
	case event.KindScoreGoal:
		t.Goals += delta
	case event.KindScoreOnePoint:
		t.OnePointers += delta
	case event.KindScoreTwoPoint:
		t.TwoPointers += delta
	case event.KindShotOnTarget:
		t.ShotsOnTarget += delta
	case event.KindShotWide:
		t.ShotsWide += delta
	case event.KindShotSaved:
		t.ShotsSaved += delta
	case event.KindTackleWon:
		t.TacklesWon += delta
	case event.KindTackleLost:
		t.TacklesLost += delta
	case event.KindBlock:
		t.Blocks += delta
	case event.KindTurnoverWon:
		t.TurnoversWon += delta
	case event.KindTurnoverLost:
		t.TurnoversLost += delta
	case event.KindKickoutWon:
		t.KickoutsWon += delta
	case event.KindKickoutLost:
		t.KickoutsLost += delta
	case event.KindSubstitution:
		t.Substitutions += delta
	case event.KindInjury:
		t.Injuries += delta
	case event.KindFoulCommitted:
		t.FoulsCommitted += delta
	case event.KindFoulConceded:
		t.FoulsConceded += delta
	}
}

func (t Tally) add(other Tally) Tally {
	t.Goals += other.Goals
	t.OnePointers += other.OnePointers
	t.TwoPointers += other.TwoPointers
	t.ShotsOnTarget += other.ShotsOnTarget
	t.ShotsWide += other.ShotsWide
	t.ShotsSaved += other.ShotsSaved
	t.TacklesWon += other.TacklesWon
	t.TacklesLost += other.TacklesLost
	t.Blocks += other.Blocks
	t.TurnoversWon += other.TurnoversWon
	t.TurnoversLost += other.TurnoversLost
	t.KickoutsWon += other.KickoutsWon
	t.KickoutsLost += other.KickoutsLost
	t.Substitutions += other.Substitutions
	t.Injuries += other.Injuries
	t.FoulsCommitted += other.FoulsCommitted
	t.FoulsConceded += other.FoulsConceded
	return t
}

// IsZero reports whether nothing has been counted.
func (t Tally) IsZero() bool {
	return t == Tally{}
}

// Points is the total score in points: goals*3 + one-pointers + two-pointers*2.
func (t Tally) Points() int {
	return t.Goals*3 + t.OnePointers + t.TwoPointers*2
}

// Score returns the scoreboard view of the tally.
func (t Tally) Score() Score {
	return Score{
		Goals:       t.Goals,
		OnePointers: t.OnePointers,
		TwoPointers: t.TwoPointers,
		Total:       t.Points(),
	}
}

// Shots is the number of recorded shot attempts.
func (t Tally) Shots() int {
	return t.ShotsOnTarget + t.ShotsWide + t.ShotsSaved
}

// ShotAccuracy is on-target shots over all shots, or 0 with no shots.
func (t Tally) ShotAccuracy() float64 {
	return ratio(t.ShotsOnTarget, t.Shots())
}

// TackleSuccessRate is tackles won over tackles attempted, or 0.
func (t Tally) TackleSuccessRate() float64 {
	return ratio(t.TacklesWon, t.TacklesWon+t.TacklesLost)
}

// TurnoverDifferential is turnovers won minus turnovers lost.
func (t Tally) TurnoverDifferential() int {
	return t.TurnoversWon - t.TurnoversLost
}

// Kickouts is the number of kick-outs contested.
func (t Tally) Kickouts() int {
	return t.KickoutsWon + t.KickoutsLost
}

// KickoutWinRate is kick-outs won over kick-outs contested, or 0.
func (t Tally) KickoutWinRate() float64 {
	return ratio(t.KickoutsWon, t.Kickouts())
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Score is the scoreboard for one side.
type Score struct {
	Goals       int `json:"goals"`
	OnePointers int `json:"one_pointers"`
	TwoPointers int `json:"two_pointers"`
	Total       int `json:"total"`
}

// Line formats the score the way it is read out: goals-points (total).
func (s Score) Line() string {
	return fmt.Sprintf("%d-%d (%d)", s.Goals, s.OnePointers+s.TwoPointers*2, s.Total)
}
