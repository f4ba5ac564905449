// Package match defines a fixture and its lifecycle state machine.
package match

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/id"
)

// Match is a fixture owned by one club.
type Match struct {
	ID          string
	ClubID      string
	Opponent    string
	Venue       string
	Competition string
	ScheduledAt time.Time
	Phase       Phase
	EntryMode   EntryMode
	UpdatedAt   time.Time
}

// CreateInput describes a new fixture.
type CreateInput struct {
	ClubID      string
	Opponent    string
	Venue       string
	Competition string
	ScheduledAt time.Time
	EntryMode   EntryMode
}

var (
	// ErrClubIDRequired indicates a fixture without an owning club.
	ErrClubIDRequired = validation("club id is required")
	// ErrOpponentRequired indicates a fixture without an opponent label.
	ErrOpponentRequired = validation("opponent is required")
	// ErrInvalidEntryMode indicates an unknown entry mode.
	ErrInvalidEntryMode = validation("entry mode is invalid")
)

func validation(reason string) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
}

// NormalizeCreateInput trims input and fills defaults.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.ClubID = strings.TrimSpace(input.ClubID)
	input.Opponent = strings.TrimSpace(input.Opponent)
	input.Venue = strings.TrimSpace(input.Venue)
	input.Competition = strings.TrimSpace(input.Competition)
	if input.ClubID == "" {
		return CreateInput{}, ErrClubIDRequired
	}
	if input.Opponent == "" {
		return CreateInput{}, ErrOpponentRequired
	}
	mode, ok := EntryModeFromLabel(string(input.EntryMode))
	if !ok {
		return CreateInput{}, ErrInvalidEntryMode
	}
	input.EntryMode = mode
	return input, nil
}

// Create builds a scheduled match from input.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Match, error) {
	input, err := NormalizeCreateInput(input)
	if err != nil {
		return Match{}, err
	}
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	matchID, err := idGenerator()
	if err != nil {
		return Match{}, fmt.Errorf("generate match id: %w", err)
	}
	return Match{
		ID:          matchID,
		ClubID:      input.ClubID,
		Opponent:    input.Opponent,
		Venue:       input.Venue,
		Competition: input.Competition,
		ScheduledAt: input.ScheduledAt.UTC(),
		Phase:       PhaseScheduled,
		EntryMode:   input.EntryMode,
		UpdatedAt:   now().UTC(),
	}, nil
}

// TransitionPhase returns m moved to target, or IllegalTransition with m
// left untouched.
func TransitionPhase(m Match, target Phase, now func() time.Time) (Match, error) {
	if !IsTransitionAllowed(m.Phase, target) {
		return m, apperrors.WithMetadata(
			apperrors.CodeIllegalTransition,
			fmt.Sprintf("match phase transition not allowed: %s -> %s", m.Phase, target),
			map[string]string{"FromPhase": string(m.Phase), "ToPhase": string(target)},
		)
	}
	if now == nil {
		now = time.Now
	}
	updated := m
	updated.Phase = target
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// AcceptsEvents reports whether new events may be appended to m.
// Completed matches accept events only in post-match entry mode.
func AcceptsEvents(m Match) bool {
	switch m.Phase {
	case PhaseInProgress:
		return true
	case PhaseCompleted:
		return m.EntryMode == EntryModePostMatch
	default:
		return false
	}
}

// RequireAcceptsEvents returns InvalidState when m cannot take new events.
func RequireAcceptsEvents(m Match) error {
	if AcceptsEvents(m) {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeInvalidState,
		fmt.Sprintf("match %s does not accept events in phase %s (entry mode %s)", m.ID, m.Phase, m.EntryMode),
		map[string]string{"Phase": string(m.Phase), "EntryMode": string(m.EntryMode)},
	)
}
