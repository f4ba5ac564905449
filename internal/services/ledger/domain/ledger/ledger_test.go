package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage/storagetest"
)

type recorder struct {
	mu        sync.Mutex
	mutations []Mutation
}

func (r *recorder) Publish(m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations = append(r.mutations, m)
}

func (r *recorder) types() []MutationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MutationType, len(r.mutations))
	for i, m := range r.mutations {
		out[i] = m.Type
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, 6, 14, 15, 30, 0, 0, time.UTC)
}

func newTestLedger(t *testing.T, store Store) (*Ledger, *recorder) {
	t.Helper()
	rec := &recorder{}
	l, err := New(store, WithPublisher(rec), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l, rec
}

func seededMemory(t *testing.T) *storage.Memory {
	t.Helper()
	store := storage.NewMemory()
	storagetest.Seed(t, store, "club-a", "match-1")
	return store
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestAppendAssignsSequenceAndPublishes(t *testing.T) {
	ctx := context.Background()
	l, rec := newTestLedger(t, seededMemory(t))

	inputs := []AppendInput{
		{MatchID: "match-1", Kind: event.KindScoreGoal, PlayerID: "club-a-p1", Minute: 10},
		{MatchID: "match-1", Kind: event.KindTackleWon, PlayerID: "club-a-p2", Minute: 12},
		{MatchID: "match-1", Kind: event.KindKickoutWon, Minute: 13},
	}
	for i, in := range inputs {
		evt, err := l.Append(ctx, in)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if evt.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, evt.Seq)
		}
		if evt.ClubID != "club-a" || !evt.Timestamp.Equal(fixedClock()) {
			t.Fatalf("unexpected event: %+v", evt)
		}
	}

	want := []MutationType{MutationEventAppended, MutationScoreUpdate, MutationEventAppended, MutationEventAppended}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if score := rec.mutations[1].Score; score == nil || score.Total != 3 {
		t.Fatalf("expected score total 3, got %+v", score)
	}
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	storagetest.Seed(t, store, "club-b", "match-b")
	l, rec := newTestLedger(t, store)

	tests := []struct {
		name string
		in   AppendInput
		code apperrors.Code
	}{
		{name: "missing match", in: AppendInput{Kind: event.KindBlock, PlayerID: "club-a-p1"}, code: apperrors.CodeValidation},
		{name: "unknown kind", in: AppendInput{MatchID: "match-1", Kind: "hurl"}, code: apperrors.CodeValidation},
		{name: "player required", in: AppendInput{MatchID: "match-1", Kind: event.KindScoreGoal}, code: apperrors.CodeValidation},
		{name: "minute out of range", in: AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: MaxMinute + 1}, code: apperrors.CodeValidation},
		{name: "negative minute", in: AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: -1}, code: apperrors.CodeValidation},
		{name: "foreign player", in: AppendInput{MatchID: "match-1", Kind: event.KindScoreGoal, PlayerID: "club-b-p1"}, code: apperrors.CodeOwnershipViolation},
		{name: "unknown player", in: AppendInput{MatchID: "match-1", Kind: event.KindScoreGoal, PlayerID: "nobody"}, code: apperrors.CodeNotFound},
		{name: "unknown match", in: AppendInput{MatchID: "match-x", Kind: event.KindInjury}, code: apperrors.CodeNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Append(ctx, tc.in)
			if !apperrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}

	seq, err := store.LatestSeq(ctx, "match-1")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected no events, got seq %d", seq)
	}
	if len(rec.types()) != 0 {
		t.Fatalf("expected no publications, got %v", rec.types())
	}
}

func TestAppendRespectsLifecycle(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, _ := newTestLedger(t, store)

	if _, err := l.Transition(ctx, TransitionInput{MatchID: "match-1", Phase: match.PhaseCompleted}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: 70})
	if !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	m, err := store.GetMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	m.EntryMode = match.EntryModePostMatch
	if err := store.PutMatch(ctx, m); err != nil {
		t.Fatalf("put match: %v", err)
	}
	if _, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: 70}); err != nil {
		t.Fatalf("expected post-match entry to be accepted, got %v", err)
	}
}

func TestCorrectCreatesSuccessor(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, rec := newTestLedger(t, store)

	e1, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindTackleWon, PlayerID: "club-a-p1", Minute: 5, Payload: event.Payload{"zone": "D"}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	e2, err := l.Correct(ctx, CorrectInput{EventID: e1.ID})
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if e2.Seq != 2 || e2.Corrects != e1.ID || e2.Kind != e1.Kind || e2.PlayerID != e1.PlayerID || e2.Minute != e1.Minute {
		t.Fatalf("unexpected successor: %+v", e2)
	}
	if e2.Payload.String("zone") != "D" {
		t.Fatalf("expected payload copy, got %v", e2.Payload)
	}

	original, err := store.GetEvent(ctx, e1.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if original.CorrectedBy != e2.ID {
		t.Fatalf("expected link to %s, got %q", e2.ID, original.CorrectedBy)
	}

	m, err := store.GetMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	got, err := l.MatchStats(ctx, m)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got.Team.TacklesWon != 1 {
		t.Fatalf("expected one tackle won, got %d", got.Team.TacklesWon)
	}

	last := rec.mutations[len(rec.mutations)-1]
	if last.Type != MutationEventCorrected || last.Original == nil || last.Original.CorrectedBy != e2.ID {
		t.Fatalf("unexpected correction mutation: %+v", last)
	}
}

func TestCorrectTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, _ := newTestLedger(t, store)

	e1, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindScoreGoal, PlayerID: "club-a-p1", Minute: 5})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.Correct(ctx, CorrectInput{EventID: e1.ID, Void: true}); err != nil {
		t.Fatalf("correct: %v", err)
	}
	_, err = l.Correct(ctx, CorrectInput{EventID: e1.ID})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyCorrected) {
		t.Fatalf("expected already corrected, got %v", err)
	}
	seq, err := store.LatestSeq(ctx, "match-1")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 2 {
		t.Fatalf("expected failed correction to consume no seq, got %d", seq)
	}
}

func TestCorrectVoidRemovesScore(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, rec := newTestLedger(t, store)

	e1, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindScoreGoal, PlayerID: "club-a-p1", Minute: 5})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	e2, err := l.Correct(ctx, CorrectInput{EventID: e1.ID, Void: true})
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if !e2.IsVoid() {
		t.Fatalf("expected void successor, got %v", e2.Payload)
	}
	last := rec.mutations[len(rec.mutations)-1]
	if last.Type != MutationScoreUpdate || last.Score == nil || last.Score.Total != 0 {
		t.Fatalf("expected zero score update, got %+v", last)
	}

	// A later correction of the placeholder restores the goal.
	e3, err := l.Correct(ctx, CorrectInput{EventID: e2.ID, Payload: event.Payload{}})
	if err != nil {
		t.Fatalf("correct placeholder: %v", err)
	}
	if e3.Seq != 3 || e3.IsVoid() {
		t.Fatalf("unexpected successor: %+v", e3)
	}
	last = rec.mutations[len(rec.mutations)-1]
	if last.Score == nil || last.Score.Total != 3 {
		t.Fatalf("expected restored score 3, got %+v", last.Score)
	}
}

func TestCorrectRequiresAcceptingMatch(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, _ := newTestLedger(t, store)

	e1, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindBlock, PlayerID: "club-a-p1", Minute: 5})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := l.Transition(ctx, TransitionInput{MatchID: "match-1", Phase: match.PhaseCompleted}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = l.Correct(ctx, CorrectInput{EventID: e1.ID})
	if !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := l.Correct(ctx, CorrectInput{EventID: "missing"}); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	l, rec := newTestLedger(t, store)

	_, err := l.Transition(ctx, TransitionInput{MatchID: "match-1", Phase: match.PhaseScheduled})
	if !apperrors.IsCode(err, apperrors.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	m, err := store.GetMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if m.Phase != match.PhaseInProgress {
		t.Fatalf("expected phase unchanged, got %s", m.Phase)
	}
	if len(rec.types()) != 0 {
		t.Fatalf("expected no publications, got %v", rec.types())
	}

	updated, err := l.Transition(ctx, TransitionInput{MatchID: "match-1", Phase: match.PhaseCompleted})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Phase != match.PhaseCompleted || !updated.UpdatedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected match: %+v", updated)
	}
	if got := rec.types(); len(got) != 1 || got[0] != MutationPhaseChanged {
		t.Fatalf("expected phase change, got %v", got)
	}
}

// gapStore skips a sequence number on the nth append.
type gapStore struct {
	*storage.Memory
	mu    sync.Mutex
	calls int
	skip  int
}

func (s *gapStore) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	stored, err := s.Memory.AppendEvent(ctx, evt)
	if err != nil {
		return stored, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == s.skip {
		stored.Seq++
	}
	return stored, nil
}

func TestSequenceGapAbortsMatch(t *testing.T) {
	ctx := context.Background()
	store := &gapStore{Memory: seededMemory(t), skip: 2}
	storagetest.Seed(t, store.Memory, "club-b", "match-b")
	l, rec := newTestLedger(t, store)

	if _, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	_, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: 2})
	if !apperrors.IsCode(err, apperrors.CodeLedgerAborted) {
		t.Fatalf("expected ledger aborted, got %v", err)
	}
	aborted, reason := l.Aborted("match-1")
	if !aborted || reason == nil {
		t.Fatalf("expected aborted match, got %v %v", aborted, reason)
	}

	published := len(rec.types())
	if _, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindInjury, Minute: 3}); !apperrors.IsCode(err, apperrors.CodeLedgerAborted) {
		t.Fatalf("expected append to stay aborted, got %v", err)
	}
	if _, err := l.Transition(ctx, TransitionInput{MatchID: "match-1", Phase: match.PhaseCompleted}); !apperrors.IsCode(err, apperrors.CodeLedgerAborted) {
		t.Fatalf("expected transition to stay aborted, got %v", err)
	}
	if len(rec.types()) != published {
		t.Fatal("expected no publications after abort")
	}

	// Other matches keep working.
	if _, err := l.Append(ctx, AppendInput{MatchID: "match-b", Kind: event.KindInjury, Minute: 1}); err != nil {
		t.Fatalf("expected other match unaffected, got %v", err)
	}
}

func TestVerifySequence(t *testing.T) {
	if err := VerifySequence([]event.Event{{Seq: 1}, {Seq: 2}}); err != nil {
		t.Fatalf("expected contiguous sequence, got %v", err)
	}
	if err := VerifySequence([]event.Event{{Seq: 1}, {Seq: 3}}); err == nil {
		t.Fatal("expected gap error")
	}
	if err := VerifySequence([]event.Event{{Seq: 1}, {Seq: 1}}); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestConcurrentAppendsStayOrdered(t *testing.T) {
	ctx := context.Background()
	store := seededMemory(t)
	storagetest.Seed(t, store, "club-b", "match-b")
	l, rec := newTestLedger(t, store)

	const perMatch = 40
	var wg sync.WaitGroup
	errs := make(chan error, perMatch*2)
	for _, target := range []struct{ matchID, playerID string }{{"match-1", "club-a-p1"}, {"match-b", "club-b-p1"}} {
		for i := 0; i < perMatch; i++ {
			wg.Add(1)
			go func(matchID, playerID string, minute int) {
				defer wg.Done()
				if _, err := l.Append(ctx, AppendInput{MatchID: matchID, Kind: event.KindScoreOnePoint, PlayerID: playerID, Minute: minute % 60}); err != nil {
					errs <- fmt.Errorf("append %s: %w", matchID, err)
				}
			}(target.matchID, target.playerID, i)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	for _, matchID := range []string{"match-1", "match-b"} {
		events, err := l.EventsFor(ctx, matchID, 0)
		if err != nil {
			t.Fatalf("events: %v", err)
		}
		if len(events) != perMatch {
			t.Fatalf("expected %d events, got %d", perMatch, len(events))
		}
		if err := VerifySequence(events); err != nil {
			t.Fatalf("sequence: %v", err)
		}

		var lastSeq uint64
		var lastTotal int
		for _, m := range rec.mutations {
			if m.MatchID != matchID {
				continue
			}
			if m.Seq < lastSeq {
				t.Fatalf("publication out of order: %d after %d", m.Seq, lastSeq)
			}
			lastSeq = m.Seq
			if m.Type == MutationScoreUpdate {
				if m.Score.Total != int(m.Seq) || m.Score.Total < lastTotal {
					t.Fatalf("score %d does not match seq %d", m.Score.Total, m.Seq)
				}
				lastTotal = m.Score.Total
			}
		}
		if lastTotal != perMatch {
			t.Fatalf("expected final score %d, got %d", perMatch, lastTotal)
		}
	}
}

func TestEventsForAsOf(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, seededMemory(t))
	for i := 0; i < 3; i++ {
		if _, err := l.Append(ctx, AppendInput{MatchID: "match-1", Kind: event.KindKickoutLost, Minute: i}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	events, err := l.EventsFor(ctx, "match-1", 2)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[1].Seq != 2 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if _, err := l.EventsFor(ctx, " ", 0); !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
