package ledger

import (
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
)

// MutationType names a committed ledger change.
type MutationType string

const (
	MutationEventAppended  MutationType = "event_appended"
	MutationEventCorrected MutationType = "event_corrected"
	MutationPhaseChanged   MutationType = "phase_changed"
	MutationScoreUpdate    MutationType = "score_update"
)

// Mutation describes one committed change to a match.
type Mutation struct {
	Type    MutationType
	MatchID string
	ClubID  string

	// Seq is the highest ledger sequence number once the mutation committed.
	Seq uint64

	// Event is the appended event, or the successor for a correction.
	Event *event.Event

	// Original is the corrected event with its link set.
	Original *event.Event

	// Match is the match after a phase change.
	Match *match.Match

	// Score is the running team score after a score-affecting change.
	Score *stats.Score
}

// Publisher receives every committed mutation, per match in commit order.
// Publish is called while the match is locked and must not block.
type Publisher interface {
	Publish(Mutation)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Mutation)

// Publish implements Publisher.
func (fn PublisherFunc) Publish(m Mutation) {
	fn(m)
}

type discardPublisher struct{}

func (discardPublisher) Publish(Mutation) {}
