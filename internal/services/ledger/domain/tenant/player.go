package tenant

import (
	"strings"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

// PlayerStatus is the roster status of a player.
type PlayerStatus string

const (
	PlayerStatusActive   PlayerStatus = "active"
	PlayerStatusDisabled PlayerStatus = "disabled"
)

// Player is a squad member. Players are never deleted once created;
// Disable hides them from selection while keeping event attribution intact.
type Player struct {
	ID       string
	ClubID   string
	Name     string
	Number   int // 0 when unassigned
	Position string
	Status   PlayerStatus
}

// NormalizePlayer trims fields and applies defaults.
func NormalizePlayer(p Player) (Player, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.ClubID = strings.TrimSpace(p.ClubID)
	p.Name = strings.TrimSpace(p.Name)
	p.Position = strings.TrimSpace(p.Position)
	if p.ID == "" || p.ClubID == "" {
		return Player{}, validation("player id and club id are required")
	}
	if p.Name == "" {
		return Player{}, validation("player name is required")
	}
	if p.Number < 0 {
		return Player{}, validation("jersey number must not be negative")
	}
	if p.Status == "" {
		p.Status = PlayerStatusActive
	}
	if p.Status != PlayerStatusActive && p.Status != PlayerStatusDisabled {
		return Player{}, validation("player status is invalid")
	}
	return p, nil
}

// Disable returns the player soft-disabled.
func Disable(p Player) Player {
	p.Status = PlayerStatusDisabled
	return p
}

// ErrJerseyNumberTaken is returned when a number is already worn within a club.
var ErrJerseyNumberTaken = validation("jersey number is already assigned within the club")

// LineupEntry places a player in a match-day squad.
type LineupEntry struct {
	MatchID  string
	PlayerID string
	Position string
	Starting bool
}

func validation(reason string) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
}
