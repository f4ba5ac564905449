package event

import "strings"

// Kind identifies what happened on the pitch.
type Kind string

const (
	KindUnspecified   Kind = ""
	KindScoreGoal     Kind = "score_goal"
	KindScoreOnePoint Kind = "score_1point"
	KindScoreTwoPoint Kind = "score_2point"
	KindShotOnTarget  Kind = "shot_on_target"
	KindShotWide      Kind = "shot_wide"
	KindShotSaved     Kind = "shot_saved"
	KindTackleWon     Kind = "tackle_won"
	KindTackleLost    Kind = "tackle_lost"
	KindBlock         Kind = "block"
	KindTurnoverLost  Kind = "turnover_lost"
	KindTurnoverWon   Kind = "turnover_won"
	KindKickoutWon    Kind = "kickout_won"
	KindKickoutLost   Kind = "kickout_lost"
	KindSubstitution  Kind = "substitution"
	KindInjury        Kind = "injury"
	KindFoulCommitted Kind = "foul_committed"
	KindFoulConceded  Kind = "foul_conceded"
)

// Kinds lists every recordable kind in display order.
var Kinds = []Kind{
	KindScoreGoal,
	KindScoreOnePoint,
	KindScoreTwoPoint,
	KindShotOnTarget,
	KindShotWide,
	KindShotSaved,
	KindTackleWon,
	KindTackleLost,
	KindBlock,
	KindTurnoverLost,
	KindTurnoverWon,
	KindKickoutWon,
	KindKickoutLost,
	KindSubstitution,
	KindInjury,
	KindFoulCommitted,
	KindFoulConceded,
}

// Valid reports whether k is one of the recordable kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindScoreGoal, KindScoreOnePoint, KindScoreTwoPoint,
		KindShotOnTarget, KindShotWide, KindShotSaved,
		KindTackleWon, KindTackleLost, KindBlock,
		KindTurnoverLost, KindTurnoverWon,
		KindKickoutWon, KindKickoutLost,
		KindSubstitution, KindInjury,
		KindFoulCommitted, KindFoulConceded:
		return true
	default:
		return false
	}
}

// RequiresPlayer reports whether an event of this kind must name a player.
// Kick-outs are team restarts and injuries may be logged before the player
// is identified; every score, shot, duel and possession kind is individual.
func (k Kind) RequiresPlayer() bool {
	switch k {
	case KindScoreGoal, KindScoreOnePoint, KindScoreTwoPoint,
		KindShotOnTarget, KindShotWide, KindShotSaved,
		KindTackleWon, KindTackleLost, KindBlock,
		KindTurnoverLost, KindTurnoverWon,
		KindSubstitution,
		KindFoulCommitted, KindFoulConceded:
		return true
	case KindKickoutWon, KindKickoutLost, KindInjury:
		return false
	default:
		return false
	}
}

// AffectsScore reports whether the kind changes the scoreboard.
func (k Kind) AffectsScore() bool {
	switch k {
	case KindScoreGoal, KindScoreOnePoint, KindScoreTwoPoint:
		return true
	default:
		return false
	}
}

// KindFromLabel parses wire labels. Hyphenated and upper-case forms are
// accepted, as is "score_1pt"/"score_2pt".
func KindFromLabel(value string) (Kind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "score_1pt":
		return KindScoreOnePoint, true
	case "score_2pt":
		return KindScoreTwoPoint, true
	}
	kind := Kind(normalized)
	if !kind.Valid() {
		return KindUnspecified, false
	}
	return kind, true
}
