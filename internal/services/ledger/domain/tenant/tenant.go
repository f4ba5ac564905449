// Package tenant models clubs, their members and their players.
//
// A club is the isolation boundary: every match, player and event belongs to
// exactly one club, and nothing is read or written across clubs except the
// opponent display label on a match.
package tenant

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

// ClubStatus describes whether a club may record data.
type ClubStatus string

const (
	ClubStatusActive    ClubStatus = "active"
	ClubStatusSuspended ClubStatus = "suspended"
	ClubStatusTrial     ClubStatus = "trial"
)

// Club is a tenant.
type Club struct {
	ID        string
	Name      string
	Status    ClubStatus
	CreatedAt time.Time
}

// CanWrite reports whether the club may record or change data.
func (c Club) CanWrite() bool {
	return c.Status == ClubStatusActive || c.Status == ClubStatusTrial
}

// Role is a member's permission level within their club.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// Member links a user to the one club they belong to.
type Member struct {
	UserID string
	ClubID string
	Role   Role
}

// Caller is the authenticated tenant context threaded into every command.
type Caller struct {
	UserID string
	ClubID string
	Role   Role
}

// CallerFor builds the caller context for a resolved membership.
func CallerFor(m Member) Caller {
	return Caller{UserID: m.UserID, ClubID: m.ClubID, Role: m.Role}
}

// CanEdit reports whether the caller may change ledger state.
func (c Caller) CanEdit() bool {
	return c.Role == RoleAdmin
}

// Validate rejects a caller context without a club.
func (c Caller) Validate() error {
	if strings.TrimSpace(c.ClubID) == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "caller has no club")
	}
	return nil
}

// RequireOwner returns OwnershipViolation unless resourceClubID is the
// caller's club.
func (c Caller) RequireOwner(resource, resourceID, resourceClubID string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if resourceClubID != c.ClubID {
		return apperrors.WithMetadata(
			apperrors.CodeOwnershipViolation,
			fmt.Sprintf("%s %s is not owned by club %s", resource, resourceID, c.ClubID),
			map[string]string{"Resource": resource, "ResourceID": resourceID},
		)
	}
	return nil
}
