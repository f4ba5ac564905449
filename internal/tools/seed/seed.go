// Package seed loads club fixtures into a ledger store for local
// development and demos.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// DefaultFixture is the embedded fixture used when no path is given.
const DefaultFixture = "demo"

// Fixture describes the clubs to create.
type Fixture struct {
	Clubs []ClubFixture `json:"clubs"`
}

// ClubFixture is one club with its roster and fixtures.
type ClubFixture struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Status  string          `json:"status"`
	Members []MemberFixture `json:"members"`
	Players []PlayerFixture `json:"players"`
	Matches []MatchFixture  `json:"matches"`
}

// MemberFixture grants a user a role in the club.
type MemberFixture struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// PlayerFixture is a roster entry.
type PlayerFixture struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Position string `json:"position"`
}

// MatchFixture is a scheduled match with an optional lineup.
type MatchFixture struct {
	ID          string          `json:"id"`
	Opponent    string          `json:"opponent"`
	Venue       string          `json:"venue"`
	Competition string          `json:"competition"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	EntryMode   string          `json:"entry_mode"`
	Lineup      []LineupFixture `json:"lineup"`
}

// LineupFixture places a player in a match.
type LineupFixture struct {
	PlayerID string `json:"player_id"`
	Position string `json:"position"`
	Starting bool   `json:"starting"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Clubs   int
	Members int
	Players int
	Matches int
}

// ListFixtures names the embedded fixtures.
func ListFixtures() ([]string, error) {
	entries, err := fixtures.ReadDir("fixtures")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}

// Load reads an embedded fixture by name, or a file when name is a path.
func Load(name string) (Fixture, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFixture
	}
	var r io.ReadCloser
	var err error
	if strings.HasSuffix(name, ".json") {
		r, err = os.Open(name)
	} else {
		r, err = fixtures.Open("fixtures/" + name + ".json")
	}
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture %s: %w", name, err)
	}
	defer r.Close()
	return Decode(r)
}

// Decode parses a fixture document.
func Decode(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if len(f.Clubs) == 0 {
		return Fixture{}, errors.New("fixture has no clubs")
	}
	return f, nil
}

// Apply writes f to store. Records are upserted, so applying the same
// fixture twice leaves the store unchanged.
func Apply(ctx context.Context, store storage.Store, f Fixture, now func() time.Time) (Summary, error) {
	if store == nil {
		return Summary{}, errors.New("store is required")
	}
	if now == nil {
		now = time.Now
	}
	var sum Summary
	for _, c := range f.Clubs {
		club := tenant.Club{ID: strings.TrimSpace(c.ID), Name: strings.TrimSpace(c.Name), Status: tenant.ClubStatus(c.Status), CreatedAt: now().UTC()}
		if club.ID == "" {
			return sum, errors.New("club id is required")
		}
		if club.Status == "" {
			club.Status = tenant.ClubStatusActive
		}
		if err := store.PutClub(ctx, club); err != nil {
			return sum, fmt.Errorf("put club %s: %w", club.ID, err)
		}
		sum.Clubs++

		for _, m := range c.Members {
			role := tenant.Role(strings.TrimSpace(m.Role))
			if role != tenant.RoleAdmin && role != tenant.RoleViewer {
				return sum, fmt.Errorf("member %s: unknown role %q", m.UserID, m.Role)
			}
			if err := store.PutMember(ctx, tenant.Member{UserID: strings.TrimSpace(m.UserID), ClubID: club.ID, Role: role}); err != nil {
				return sum, fmt.Errorf("put member %s: %w", m.UserID, err)
			}
			sum.Members++
		}

		for _, p := range c.Players {
			player, err := tenant.NormalizePlayer(tenant.Player{ID: p.ID, ClubID: club.ID, Name: p.Name, Number: p.Number, Position: p.Position})
			if err != nil {
				return sum, fmt.Errorf("player %s: %w", p.ID, err)
			}
			if err := store.PutPlayer(ctx, player); err != nil {
				return sum, fmt.Errorf("put player %s: %w", p.ID, err)
			}
			sum.Players++
		}

		for _, mf := range c.Matches {
			if err := applyMatch(ctx, store, club.ID, mf, now); err != nil {
				return sum, err
			}
			sum.Matches++
		}
	}
	return sum, nil
}

func applyMatch(ctx context.Context, store storage.Store, clubID string, mf MatchFixture, now func() time.Time) error {
	matchID := strings.TrimSpace(mf.ID)
	if matchID == "" {
		return errors.New("match id is required")
	}
	mode, ok := match.EntryModeFromLabel(mf.EntryMode)
	if !ok {
		return fmt.Errorf("match %s: unknown entry mode %q", matchID, mf.EntryMode)
	}
	m, err := match.Create(match.CreateInput{
		ClubID:      clubID,
		Opponent:    mf.Opponent,
		Venue:       mf.Venue,
		Competition: mf.Competition,
		ScheduledAt: mf.ScheduledAt,
		EntryMode:   mode,
	}, now, func() (string, error) { return matchID, nil })
	if err != nil {
		return fmt.Errorf("match %s: %w", matchID, err)
	}
	if existing, err := store.GetMatch(ctx, matchID); err == nil {
		// Keep the lifecycle of a match that already exists.
		m.Phase = existing.Phase
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("get match %s: %w", matchID, err)
	}
	if err := store.PutMatch(ctx, m); err != nil {
		return fmt.Errorf("put match %s: %w", matchID, err)
	}
	if len(mf.Lineup) == 0 {
		return nil
	}
	entries := make([]tenant.LineupEntry, 0, len(mf.Lineup))
	for _, l := range mf.Lineup {
		entries = append(entries, tenant.LineupEntry{MatchID: matchID, PlayerID: l.PlayerID, Position: l.Position, Starting: l.Starting})
	}
	if err := store.PutLineup(ctx, matchID, entries); err != nil {
		return fmt.Errorf("put lineup %s: %w", matchID, err)
	}
	return nil
}
