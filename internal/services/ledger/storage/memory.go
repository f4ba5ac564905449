package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// Memory is an in-process Store for tests and ephemeral deployments.
type Memory struct {
	mu      sync.RWMutex
	clubs   map[string]tenant.Club
	members map[string]tenant.Member
	players map[string]tenant.Player
	matches map[string]match.Match
	lineups map[string][]tenant.LineupEntry
	events  map[string]event.Event
	ledgers map[string][]string // match id -> event ids in seq order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		clubs:   make(map[string]tenant.Club),
		members: make(map[string]tenant.Member),
		players: make(map[string]tenant.Player),
		matches: make(map[string]match.Match),
		lineups: make(map[string][]tenant.LineupEntry),
		events:  make(map[string]event.Event),
		ledgers: make(map[string][]string),
	}
}

var errMemoryRequired = errors.New("memory store is required")

func (m *Memory) check(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if m == nil {
		return errMemoryRequired
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// PutClub implements ClubStore.
func (m *Memory) PutClub(ctx context.Context, c tenant.Club) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clubs[c.ID] = c
	return nil
}

// GetClub implements ClubStore.
func (m *Memory) GetClub(ctx context.Context, id string) (tenant.Club, error) {
	if err := m.check(ctx); err != nil {
		return tenant.Club{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clubs[strings.TrimSpace(id)]
	if !ok {
		return tenant.Club{}, NotFound("club", id)
	}
	return c, nil
}

// PutMember implements MemberStore.
func (m *Memory) PutMember(ctx context.Context, member tenant.Member) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.UserID] = member
	return nil
}

// GetMember implements MemberStore.
func (m *Memory) GetMember(ctx context.Context, userID string) (tenant.Member, error) {
	if err := m.check(ctx); err != nil {
		return tenant.Member{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.members[strings.TrimSpace(userID)]
	if !ok {
		return tenant.Member{}, NotFound("member", userID)
	}
	return member, nil
}

// PutPlayer implements PlayerStore.
func (m *Memory) PutPlayer(ctx context.Context, p tenant.Player) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Number != 0 {
		for _, existing := range m.players {
			if existing.ID != p.ID && existing.ClubID == p.ClubID && existing.Number == p.Number {
				return tenant.ErrJerseyNumberTaken
			}
		}
	}
	m.players[p.ID] = p
	return nil
}

// GetPlayer implements PlayerStore.
func (m *Memory) GetPlayer(ctx context.Context, id string) (tenant.Player, error) {
	if err := m.check(ctx); err != nil {
		return tenant.Player{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[strings.TrimSpace(id)]
	if !ok {
		return tenant.Player{}, NotFound("player", id)
	}
	return p, nil
}

// ListPlayers implements PlayerStore.
func (m *Memory) ListPlayers(ctx context.Context, clubID string) ([]tenant.Player, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tenant.Player
	for _, p := range m.players {
		if p.ClubID == clubID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutMatch implements MatchStore.
func (m *Memory) PutMatch(ctx context.Context, mt match.Match) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[mt.ID] = mt
	return nil
}

// GetMatch implements MatchStore.
func (m *Memory) GetMatch(ctx context.Context, id string) (match.Match, error) {
	if err := m.check(ctx); err != nil {
		return match.Match{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	mt, ok := m.matches[strings.TrimSpace(id)]
	if !ok {
		return match.Match{}, NotFound("match", id)
	}
	return mt, nil
}

// ListMatches implements MatchStore.
func (m *Memory) ListMatches(ctx context.Context, clubID string) ([]match.Match, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []match.Match
	for _, mt := range m.matches {
		if mt.ClubID == clubID {
			out = append(out, mt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateMatchPhase implements MatchStore.
func (m *Memory) UpdateMatchPhase(ctx context.Context, matchID string, phase match.Phase, at time.Time) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.matches[matchID]
	if !ok {
		return NotFound("match", matchID)
	}
	mt.Phase = phase
	mt.UpdatedAt = at
	m.matches[matchID] = mt
	return nil
}

// PutLineup implements LineupStore.
func (m *Memory) PutLineup(ctx context.Context, matchID string, entries []tenant.LineupEntry) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]tenant.LineupEntry, len(entries))
	for i, entry := range entries {
		entry.MatchID = matchID
		stored[i] = entry
	}
	m.lineups[matchID] = stored
	return nil
}

// GetLineup implements LineupStore.
func (m *Memory) GetLineup(ctx context.Context, matchID string) ([]tenant.LineupEntry, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]tenant.LineupEntry(nil), m.lineups[matchID]...), nil
}

// AppendEvent implements EventStore.
func (m *Memory) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := m.check(ctx); err != nil {
		return event.Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(evt), nil
}

func (m *Memory) appendLocked(evt event.Event) event.Event {
	evt = evt.Clone()
	evt.Seq = uint64(len(m.ledgers[evt.MatchID])) + 1
	evt.CorrectedBy = ""
	m.events[evt.ID] = evt
	m.ledgers[evt.MatchID] = append(m.ledgers[evt.MatchID], evt.ID)
	return evt.Clone()
}

// CorrectEvent implements EventStore.
func (m *Memory) CorrectEvent(ctx context.Context, originalID string, successor event.Event) (event.Event, error) {
	if err := m.check(ctx); err != nil {
		return event.Event{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	original, ok := m.events[originalID]
	if !ok {
		return event.Event{}, NotFound("event", originalID)
	}
	if original.CorrectedBy != "" {
		return event.Event{}, AlreadyCorrected(originalID, original.CorrectedBy)
	}
	successor.Corrects = originalID
	stored := m.appendLocked(successor)
	original.CorrectedBy = stored.ID
	m.events[originalID] = original
	return stored, nil
}

// GetEvent implements EventStore.
func (m *Memory) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if err := m.check(ctx); err != nil {
		return event.Event{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	evt, ok := m.events[strings.TrimSpace(id)]
	if !ok {
		return event.Event{}, NotFound("event", id)
	}
	return evt.Clone(), nil
}

// ListEvents implements EventStore.
func (m *Memory) ListEvents(ctx context.Context, matchID string, asOf uint64) ([]event.Event, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.ledgers[matchID]
	out := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		evt := m.events[id]
		if asOf > 0 && evt.Seq > asOf {
			break
		}
		out = append(out, evt.Clone())
	}
	return out, nil
}

// LatestSeq implements EventStore.
func (m *Memory) LatestSeq(ctx context.Context, matchID string) (uint64, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.ledgers[matchID])), nil
}
