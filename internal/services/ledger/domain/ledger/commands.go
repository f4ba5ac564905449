package ledger

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// AppendInput describes a new event.
type AppendInput struct {
	MatchID  string
	Kind     event.Kind
	PlayerID string
	Minute   int
	Payload  event.Payload
}

// CorrectInput describes a correction of an existing event.
type CorrectInput struct {
	EventID string
	// Payload replaces the copied payload when set.
	Payload event.Payload
	// Void marks the successor as a zero-effect placeholder.
	Void bool
}

// TransitionInput describes a match phase change.
type TransitionInput struct {
	MatchID string
	Phase   match.Phase
}

// Append records a new event at the end of its match ledger.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (evt event.Event, err error) {
	ctx, span := l.startSpan(ctx, "ledger.append", in.MatchID)
	defer func() { endSpan(span, evt.Seq, err) }()

	matchID, err := requireID("match id", in.MatchID)
	if err != nil {
		return event.Event{}, err
	}
	if !in.Kind.Valid() {
		reason := fmt.Sprintf("unknown event kind %q", in.Kind)
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
	}
	if in.Kind.RequiresPlayer() && in.PlayerID == "" {
		reason := fmt.Sprintf("event kind %s requires a player", in.Kind)
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
	}
	if in.Minute < 0 || in.Minute > MaxMinute {
		reason := fmt.Sprintf("minute %d is outside 0-%d", in.Minute, MaxMinute)
		return event.Event{}, apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
	}

	d := l.domain(matchID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAborted(); err != nil {
		return event.Event{}, err
	}
	m, err := l.store.GetMatch(ctx, matchID)
	if err != nil {
		return event.Event{}, err
	}
	if err := match.RequireAcceptsEvents(m); err != nil {
		return event.Event{}, err
	}
	if in.PlayerID != "" {
		player, err := l.store.GetPlayer(ctx, in.PlayerID)
		if err != nil {
			return event.Event{}, err
		}
		if player.ClubID != m.ClubID {
			return event.Event{}, apperrors.WithMetadata(
				apperrors.CodeOwnershipViolation,
				fmt.Sprintf("player %s does not belong to club %s", player.ID, m.ClubID),
				map[string]string{"Resource": "player", "ResourceID": player.ID},
			)
		}
	}
	if err := l.load(ctx, d, m.ClubID); err != nil {
		return event.Event{}, err
	}

	eventID, err := l.newID()
	if err != nil {
		return event.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	stored, err := l.store.AppendEvent(ctx, event.Event{
		ID:        eventID,
		MatchID:   m.ID,
		ClubID:    m.ClubID,
		Kind:      in.Kind,
		PlayerID:  in.PlayerID,
		Minute:    in.Minute,
		Timestamp: l.now().UTC(),
		Payload:   in.Payload.Clone(),
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	if err := d.commit(stored); err != nil {
		return event.Event{}, err
	}
	d.score.Append(stored)

	published := stored.Clone()
	l.publisher.Publish(Mutation{
		Type:    MutationEventAppended,
		MatchID: m.ID,
		ClubID:  m.ClubID,
		Seq:     stored.Seq,
		Event:   &published,
	})
	if stored.Kind.AffectsScore() && !stored.IsVoid() {
		l.publishScore(d, m.ClubID)
	}
	return stored.Clone(), nil
}

// Correct supersedes an event with a copy carrying the next sequence
// number. An event can be corrected once; its successor can itself be
// corrected later, extending the chain.
func (l *Ledger) Correct(ctx context.Context, in CorrectInput) (successor event.Event, err error) {
	eventID, err := requireID("event id", in.EventID)
	if err != nil {
		return event.Event{}, err
	}
	target, err := l.store.GetEvent(ctx, eventID)
	if err != nil {
		return event.Event{}, err
	}

	ctx, span := l.startSpan(ctx, "ledger.correct", target.MatchID)
	defer func() { endSpan(span, successor.Seq, err) }()

	d := l.domain(target.MatchID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAborted(); err != nil {
		return event.Event{}, err
	}
	// Re-read under the lock; a concurrent correction may have linked it.
	original, err := l.store.GetEvent(ctx, eventID)
	if err != nil {
		return event.Event{}, err
	}
	if !original.Active() {
		return event.Event{}, storage.AlreadyCorrected(original.ID, original.CorrectedBy)
	}
	m, err := l.store.GetMatch(ctx, original.MatchID)
	if err != nil {
		return event.Event{}, err
	}
	if err := match.RequireAcceptsEvents(m); err != nil {
		return event.Event{}, err
	}
	if err := l.load(ctx, d, m.ClubID); err != nil {
		return event.Event{}, err
	}

	successorID, err := l.newID()
	if err != nil {
		return event.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	next := original.Clone()
	next.ID = successorID
	next.Seq = 0
	next.Timestamp = l.now().UTC()
	next.Corrects = original.ID
	next.CorrectedBy = ""
	if in.Payload != nil {
		next.Payload = in.Payload.Clone()
	}
	if in.Void {
		if next.Payload == nil {
			next.Payload = event.Payload{}
		}
		next.Payload[event.PayloadVoid] = true
	}

	stored, err := l.store.CorrectEvent(ctx, original.ID, next)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyCorrected) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("correct event: %w", err)
	}
	if err := d.commit(stored); err != nil {
		return event.Event{}, err
	}
	d.score.Correct(original, stored)

	linked := original.Clone()
	linked.CorrectedBy = stored.ID
	published := stored.Clone()
	l.publisher.Publish(Mutation{
		Type:     MutationEventCorrected,
		MatchID:  m.ID,
		ClubID:   m.ClubID,
		Seq:      stored.Seq,
		Event:    &published,
		Original: &linked,
	})
	if original.Kind.AffectsScore() || stored.Kind.AffectsScore() {
		l.publishScore(d, m.ClubID)
	}
	return stored.Clone(), nil
}

// Transition moves a match through its lifecycle.
func (l *Ledger) Transition(ctx context.Context, in TransitionInput) (updated match.Match, err error) {
	ctx, span := l.startSpan(ctx, "ledger.transition", in.MatchID)
	defer func() { endSpan(span, 0, err) }()

	matchID, err := requireID("match id", in.MatchID)
	if err != nil {
		return match.Match{}, err
	}
	d := l.domain(matchID)
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkAborted(); err != nil {
		return match.Match{}, err
	}
	m, err := l.store.GetMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	updated, err = match.TransitionPhase(m, in.Phase, l.now)
	if err != nil {
		return m, err
	}
	if err := l.store.UpdateMatchPhase(ctx, updated.ID, updated.Phase, updated.UpdatedAt); err != nil {
		return m, fmt.Errorf("update match phase: %w", err)
	}

	published := updated
	l.publisher.Publish(Mutation{
		Type:    MutationPhaseChanged,
		MatchID: updated.ID,
		ClubID:  updated.ClubID,
		Seq:     d.lastSeq,
		Match:   &published,
	})
	return updated, nil
}

func (l *Ledger) publishScore(d *domain, clubID string) {
	score := d.score.Score()
	l.publisher.Publish(Mutation{
		Type:    MutationScoreUpdate,
		MatchID: d.matchID,
		ClubID:  clubID,
		Seq:     d.lastSeq,
		Score:   &score,
	})
}

// EventsFor returns the committed events of matchID in sequence order,
// up to asOf when non-zero. It never waits on in-flight mutations.
func (l *Ledger) EventsFor(ctx context.Context, matchID string, asOf uint64) ([]event.Event, error) {
	matchID, err := requireID("match id", matchID)
	if err != nil {
		return nil, err
	}
	events, err := l.store.ListEvents(ctx, matchID, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]event.Event, len(events))
	for i, evt := range events {
		out[i] = evt.Clone()
	}
	return out, nil
}

// MatchStats computes statistics from the committed ledger of matchID.
func (l *Ledger) MatchStats(ctx context.Context, m match.Match) (stats.MatchStats, error) {
	events, err := l.EventsFor(ctx, m.ID, 0)
	if err != nil {
		return stats.MatchStats{}, err
	}
	return stats.ComputeMatch(m.ID, m.ClubID, events), nil
}
