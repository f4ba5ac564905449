package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// PutClub upserts a club.
func (s *Store) PutClub(ctx context.Context, c tenant.Club) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO clubs (id, name, status, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, status = excluded.status`,
		c.ID, c.Name, string(c.Status), toMillis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("put club: %w", err)
	}
	return nil
}

// GetClub loads a club by id.
func (s *Store) GetClub(ctx context.Context, id string) (tenant.Club, error) {
	if err := s.check(ctx); err != nil {
		return tenant.Club{}, err
	}
	var (
		c         tenant.Club
		status    string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, status, created_at FROM clubs WHERE id = ?`, strings.TrimSpace(id),
	).Scan(&c.ID, &c.Name, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Club{}, storage.NotFound("club", id)
	}
	if err != nil {
		return tenant.Club{}, fmt.Errorf("get club: %w", err)
	}
	c.Status = tenant.ClubStatus(status)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

// PutMember upserts a membership.
func (s *Store) PutMember(ctx context.Context, m tenant.Member) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO members (user_id, club_id, role) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET club_id = excluded.club_id, role = excluded.role`,
		m.UserID, m.ClubID, string(m.Role))
	if err != nil {
		return fmt.Errorf("put member: %w", err)
	}
	return nil
}

// GetMember loads the membership of userID.
func (s *Store) GetMember(ctx context.Context, userID string) (tenant.Member, error) {
	if err := s.check(ctx); err != nil {
		return tenant.Member{}, err
	}
	var (
		m    tenant.Member
		role string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT user_id, club_id, role FROM members WHERE user_id = ?`, strings.TrimSpace(userID),
	).Scan(&m.UserID, &m.ClubID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Member{}, storage.NotFound("member", userID)
	}
	if err != nil {
		return tenant.Member{}, fmt.Errorf("get member: %w", err)
	}
	m.Role = tenant.Role(role)
	return m, nil
}

// PutPlayer upserts a player, enforcing jersey uniqueness within the club.
func (s *Store) PutPlayer(ctx context.Context, p tenant.Player) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (id, club_id, name, number, position, status) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    number = excluded.number,
    position = excluded.position,
    status = excluded.status`,
		p.ID, p.ClubID, p.Name, p.Number, p.Position, string(p.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrJerseyNumberTaken
		}
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

const playerColumns = `id, club_id, name, number, position, status`

func scanPlayer(row interface{ Scan(...any) error }) (tenant.Player, error) {
	var (
		p      tenant.Player
		status string
	)
	if err := row.Scan(&p.ID, &p.ClubID, &p.Name, &p.Number, &p.Position, &status); err != nil {
		return tenant.Player{}, err
	}
	p.Status = tenant.PlayerStatus(status)
	return p, nil
}

// GetPlayer loads a player by id.
func (s *Store) GetPlayer(ctx context.Context, id string) (tenant.Player, error) {
	if err := s.check(ctx); err != nil {
		return tenant.Player{}, err
	}
	p, err := scanPlayer(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return tenant.Player{}, storage.NotFound("player", id)
	}
	if err != nil {
		return tenant.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// ListPlayers returns a club's players ordered by id.
func (s *Store) ListPlayers(ctx context.Context, clubID string) ([]tenant.Player, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE club_id = ? ORDER BY id`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()
	var out []tenant.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return out, nil
}

// PutMatch upserts a match.
func (s *Store) PutMatch(ctx context.Context, m match.Match) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO matches (id, club_id, opponent, venue, competition, scheduled_at, phase, entry_mode, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    opponent = excluded.opponent,
    venue = excluded.venue,
    competition = excluded.competition,
    scheduled_at = excluded.scheduled_at,
    phase = excluded.phase,
    entry_mode = excluded.entry_mode,
    updated_at = excluded.updated_at`,
		m.ID, m.ClubID, m.Opponent, m.Venue, m.Competition,
		toMillis(m.ScheduledAt), string(m.Phase), string(m.EntryMode), toMillis(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put match: %w", err)
	}
	return nil
}

const matchColumns = `id, club_id, opponent, venue, competition, scheduled_at, phase, entry_mode, updated_at`

func scanMatch(row interface{ Scan(...any) error }) (match.Match, error) {
	var (
		m                      match.Match
		scheduledAt, updatedAt int64
		phase, entryMode       string
	)
	if err := row.Scan(&m.ID, &m.ClubID, &m.Opponent, &m.Venue, &m.Competition,
		&scheduledAt, &phase, &entryMode, &updatedAt); err != nil {
		return match.Match{}, err
	}
	m.ScheduledAt = fromMillis(scheduledAt)
	m.UpdatedAt = fromMillis(updatedAt)
	m.Phase = match.Phase(phase)
	m.EntryMode = match.EntryMode(entryMode)
	return m, nil
}

// GetMatch loads a match by id.
func (s *Store) GetMatch(ctx context.Context, id string) (match.Match, error) {
	if err := s.check(ctx); err != nil {
		return match.Match{}, err
	}
	m, err := scanMatch(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = ?`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return match.Match{}, storage.NotFound("match", id)
	}
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

// ListMatches returns a club's matches ordered by kick-off.
func (s *Store) ListMatches(ctx context.Context, clubID string) ([]match.Match, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE club_id = ? ORDER BY scheduled_at, id`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()
	var out []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

// UpdateMatchPhase stores a new lifecycle phase.
func (s *Store) UpdateMatchPhase(ctx context.Context, matchID string, phase match.Phase, at time.Time) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE matches SET phase = ?, updated_at = ? WHERE id = ?`, string(phase), toMillis(at), matchID)
	if err != nil {
		return fmt.Errorf("update match phase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match phase: %w", err)
	}
	if affected == 0 {
		return storage.NotFound("match", matchID)
	}
	return nil
}

// PutLineup replaces the match-day squad for matchID.
func (s *Store) PutLineup(ctx context.Context, matchID string, entries []tenant.LineupEntry) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lineups WHERE match_id = ?`, matchID); err != nil {
			return fmt.Errorf("clear lineup: %w", err)
		}
		for slot, entry := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lineups (match_id, player_id, position, starting, slot) VALUES (?, ?, ?, ?, ?)`,
				matchID, entry.PlayerID, entry.Position, entry.Starting, slot,
			); err != nil {
				return fmt.Errorf("insert lineup entry: %w", err)
			}
		}
		return nil
	})
}

// GetLineup returns the match-day squad in the order it was stored.
func (s *Store) GetLineup(ctx context.Context, matchID string) ([]tenant.LineupEntry, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT match_id, player_id, position, starting FROM lineups WHERE match_id = ? ORDER BY slot`, matchID)
	if err != nil {
		return nil, fmt.Errorf("get lineup: %w", err)
	}
	defer rows.Close()
	var out []tenant.LineupEntry
	for rows.Next() {
		var entry tenant.LineupEntry
		if err := rows.Scan(&entry.MatchID, &entry.PlayerID, &entry.Position, &entry.Starting); err != nil {
			return nil, fmt.Errorf("scan lineup entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get lineup: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
