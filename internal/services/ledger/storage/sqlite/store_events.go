package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

const eventColumns = `id, match_id, club_id, seq, kind, player_id, minute, timestamp, payload_json, corrects, corrected_by`

// AppendEvent stores evt with the next sequence number of its match.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := s.check(ctx); err != nil {
		return event.Event{}, err
	}
	var stored event.Event
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		stored, err = insertEvent(ctx, tx, evt)
		return err
	})
	if err != nil {
		return event.Event{}, err
	}
	return stored, nil
}

// CorrectEvent stores successor and links originalID to it in one transaction.
func (s *Store) CorrectEvent(ctx context.Context, originalID string, successor event.Event) (event.Event, error) {
	if err := s.check(ctx); err != nil {
		return event.Event{}, err
	}
	var stored event.Event
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var correctedBy sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT corrected_by FROM events WHERE id = ?`, originalID).Scan(&correctedBy)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotFound("event", originalID)
		}
		if err != nil {
			return fmt.Errorf("load correction target: %w", err)
		}
		if correctedBy.Valid {
			return storage.AlreadyCorrected(originalID, correctedBy.String)
		}

		successor.Corrects = originalID
		stored, err = insertEvent(ctx, tx, successor)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET corrected_by = ? WHERE id = ? AND corrected_by IS NULL`, stored.ID, originalID)
		if err != nil {
			return fmt.Errorf("link correction: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("link correction: %w", err)
		}
		if affected != 1 {
			return storage.AlreadyCorrected(originalID, "")
		}
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}
	return stored, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, evt event.Event) (event.Event, error) {
	var lastSeq uint64
	err := tx.QueryRowContext(ctx,
		`SELECT last_seq FROM match_event_seq WHERE match_id = ?`, evt.MatchID).Scan(&lastSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("load event seq: %w", err)
	}
	evt.Seq = lastSeq + 1
	evt.CorrectedBy = ""

	payload := []byte("{}")
	if evt.Payload != nil {
		payload, err = json.Marshal(evt.Payload)
		if err != nil {
			return event.Event{}, fmt.Errorf("marshal payload: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO match_event_seq (match_id, last_seq) VALUES (?, ?)
ON CONFLICT (match_id) DO UPDATE SET last_seq = excluded.last_seq`, evt.MatchID, evt.Seq); err != nil {
		return event.Event{}, fmt.Errorf("advance event seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		evt.ID, evt.MatchID, evt.ClubID, evt.Seq, string(evt.Kind), toNullString(evt.PlayerID),
		evt.Minute, toMillis(evt.Timestamp), string(payload), toNullString(evt.Corrects),
	); err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return evt.Clone(), nil
}

func scanEvent(row interface{ Scan(...any) error }) (event.Event, error) {
	var (
		evt                             event.Event
		kind, payload                   string
		playerID, corrects, correctedBy sql.NullString
		timestamp                       int64
	)
	if err := row.Scan(&evt.ID, &evt.MatchID, &evt.ClubID, &evt.Seq, &kind, &playerID,
		&evt.Minute, &timestamp, &payload, &corrects, &correctedBy); err != nil {
		return event.Event{}, err
	}
	evt.Kind = event.Kind(kind)
	evt.PlayerID = playerID.String
	evt.Timestamp = fromMillis(timestamp)
	evt.Corrects = corrects.String
	evt.CorrectedBy = correctedBy.String
	if strings.TrimSpace(payload) != "" && payload != "{}" {
		if err := json.Unmarshal([]byte(payload), &evt.Payload); err != nil {
			return event.Event{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	return evt, nil
}

// GetEvent loads an event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if err := s.check(ctx); err != nil {
		return event.Event{}, err
	}
	evt, err := scanEvent(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.NotFound("event", id)
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	return evt, nil
}

// ListEvents returns events of matchID in sequence order up to asOf.
func (s *Store) ListEvents(ctx context.Context, matchID string, asOf uint64) ([]event.Event, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE match_id = ?`
	args := []any{matchID}
	if asOf > 0 {
		query += ` AND seq <= ?`
		args = append(args, asOf)
	}
	query += ` ORDER BY seq`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	out := []event.Event{}
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// LatestSeq returns the highest sequence number recorded for matchID.
func (s *Store) LatestSeq(ctx context.Context, matchID string) (uint64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	var lastSeq uint64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT last_seq FROM match_event_seq WHERE match_id = ?`, matchID).Scan(&lastSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("latest event seq: %w", err)
	}
	return lastSeq, nil
}
