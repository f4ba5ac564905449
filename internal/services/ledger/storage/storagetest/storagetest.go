// Package storagetest holds behavior tests shared by every storage.Store.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// Opener returns a fresh, empty store for one test.
type Opener func(t *testing.T) storage.Store

var kickoff = time.Date(2026, 6, 14, 15, 0, 0, 0, time.UTC)

// Run exercises the full storage contract against open.
func Run(t *testing.T, open Opener) {
	t.Run("directory round trip", func(t *testing.T) { testDirectory(t, open(t)) })
	t.Run("jersey numbers unique per club", func(t *testing.T) { testJerseyNumbers(t, open(t)) })
	t.Run("match phase update", func(t *testing.T) { testMatchPhase(t, open(t)) })
	t.Run("lineup replace", func(t *testing.T) { testLineup(t, open(t)) })
	t.Run("append assigns sequence", func(t *testing.T) { testAppendSequence(t, open(t)) })
	t.Run("correction links once", func(t *testing.T) { testCorrection(t, open(t)) })
	t.Run("list events as of", func(t *testing.T) { testListAsOf(t, open(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, open(t)) })
	t.Run("concurrent matches", func(t *testing.T) { testConcurrentMatches(t, open(t)) })
}

// Seed creates a club with an admin member, two players and a match.
func Seed(t *testing.T, store storage.Store, clubID, matchID string) {
	t.Helper()
	ctx := context.Background()
	if err := store.PutClub(ctx, tenant.Club{ID: clubID, Name: "Club " + clubID, Status: tenant.ClubStatusActive, CreatedAt: kickoff}); err != nil {
		t.Fatalf("put club: %v", err)
	}
	if err := store.PutMember(ctx, tenant.Member{UserID: "admin-" + clubID, ClubID: clubID, Role: tenant.RoleAdmin}); err != nil {
		t.Fatalf("put member: %v", err)
	}
	for i, name := range []string{"Aoife", "Ciara"} {
		p := tenant.Player{ID: fmt.Sprintf("%s-p%d", clubID, i+1), ClubID: clubID, Name: name, Number: i + 1, Status: tenant.PlayerStatusActive}
		if err := store.PutPlayer(ctx, p); err != nil {
			t.Fatalf("put player: %v", err)
		}
	}
	if err := store.PutMatch(ctx, match.Match{
		ID:          matchID,
		ClubID:      clubID,
		Opponent:    "Kilmacud",
		ScheduledAt: kickoff,
		Phase:       match.PhaseInProgress,
		EntryMode:   match.EntryModeLive,
		UpdatedAt:   kickoff,
	}); err != nil {
		t.Fatalf("put match: %v", err)
	}
}

func testEvent(id, clubID, matchID string, kind event.Kind, playerID string, minute int) event.Event {
	return event.Event{
		ID:        id,
		MatchID:   matchID,
		ClubID:    clubID,
		Kind:      kind,
		PlayerID:  playerID,
		Minute:    minute,
		Timestamp: kickoff.Add(time.Duration(minute) * time.Minute),
		Payload:   event.Payload{"note": "from the stand"},
	}
}

func testDirectory(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")

	club, err := store.GetClub(ctx, "club-a")
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if club.Status != tenant.ClubStatusActive || !club.CreatedAt.Equal(kickoff) {
		t.Fatalf("unexpected club: %+v", club)
	}
	member, err := store.GetMember(ctx, "admin-club-a")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if member.ClubID != "club-a" || member.Role != tenant.RoleAdmin {
		t.Fatalf("unexpected member: %+v", member)
	}
	players, err := store.ListPlayers(ctx, "club-a")
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 2 || players[0].ID != "club-a-p1" {
		t.Fatalf("unexpected players: %+v", players)
	}
	disabled := tenant.Disable(players[0])
	if err := store.PutPlayer(ctx, disabled); err != nil {
		t.Fatalf("disable player: %v", err)
	}
	got, err := store.GetPlayer(ctx, disabled.ID)
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if got.Status != tenant.PlayerStatusDisabled {
		t.Fatalf("expected disabled player, got %s", got.Status)
	}
	m, err := store.GetMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if m.Opponent != "Kilmacud" || !m.ScheduledAt.Equal(kickoff) || m.EntryMode != match.EntryModeLive {
		t.Fatalf("unexpected match: %+v", m)
	}
	matches, err := store.ListMatches(ctx, "club-a")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	other, err := store.ListMatches(ctx, "club-b")
	if err != nil {
		t.Fatalf("list other matches: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no matches for another club, got %d", len(other))
	}
}

func testJerseyNumbers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	Seed(t, store, "club-b", "match-2")

	clash := tenant.Player{ID: "club-a-p9", ClubID: "club-a", Name: "Dup", Number: 1, Status: tenant.PlayerStatusActive}
	if err := store.PutPlayer(ctx, clash); !errors.Is(err, tenant.ErrJerseyNumberTaken) {
		t.Fatalf("expected jersey clash, got %v", err)
	}
	unnumbered := tenant.Player{ID: "club-a-p10", ClubID: "club-a", Name: "Sub", Status: tenant.PlayerStatusActive}
	again := tenant.Player{ID: "club-a-p11", ClubID: "club-a", Name: "Sub 2", Status: tenant.PlayerStatusActive}
	if err := store.PutPlayer(ctx, unnumbered); err != nil {
		t.Fatalf("put unnumbered: %v", err)
	}
	if err := store.PutPlayer(ctx, again); err != nil {
		t.Fatalf("expected unnumbered players not to clash: %v", err)
	}
}

func testMatchPhase(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	at := kickoff.Add(80 * time.Minute)
	if err := store.UpdateMatchPhase(ctx, "match-1", match.PhaseCompleted, at); err != nil {
		t.Fatalf("update phase: %v", err)
	}
	m, err := store.GetMatch(ctx, "match-1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if m.Phase != match.PhaseCompleted || !m.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected match after update: %+v", m)
	}
	if err := store.UpdateMatchPhase(ctx, "missing", match.PhaseCompleted, at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testLineup(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	first := []tenant.LineupEntry{
		{PlayerID: "club-a-p2", Position: "full-forward", Starting: true},
		{PlayerID: "club-a-p1", Position: "goalkeeper", Starting: false},
	}
	if err := store.PutLineup(ctx, "match-1", first); err != nil {
		t.Fatalf("put lineup: %v", err)
	}
	got, err := store.GetLineup(ctx, "match-1")
	if err != nil {
		t.Fatalf("get lineup: %v", err)
	}
	if len(got) != 2 || got[0].PlayerID != "club-a-p2" || !got[0].Starting || got[1].Starting || got[0].MatchID != "match-1" {
		t.Fatalf("unexpected lineup: %+v", got)
	}
	if err := store.PutLineup(ctx, "match-1", first[:1]); err != nil {
		t.Fatalf("replace lineup: %v", err)
	}
	got, err = store.GetLineup(ctx, "match-1")
	if err != nil {
		t.Fatalf("get lineup: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected replaced lineup of 1, got %d", len(got))
	}
}

func testAppendSequence(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	for i := 1; i <= 3; i++ {
		stored, err := store.AppendEvent(ctx, testEvent(fmt.Sprintf("e%d", i), "club-a", "match-1", event.KindShotWide, "club-a-p1", 10*i))
		if err != nil {
			t.Fatalf("append event: %v", err)
		}
		if stored.Seq != uint64(i) {
			t.Fatalf("expected seq %d, got %d", i, stored.Seq)
		}
	}
	latest, err := store.LatestSeq(ctx, "match-1")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if latest != 3 {
		t.Fatalf("expected latest seq 3, got %d", latest)
	}
	empty, err := store.LatestSeq(ctx, "match-unknown")
	if err != nil {
		t.Fatalf("latest seq unknown: %v", err)
	}
	if empty != 0 {
		t.Fatalf("expected 0 for empty ledger, got %d", empty)
	}

	teamless, err := store.AppendEvent(ctx, testEvent("e4", "club-a", "match-1", event.KindKickoutWon, "", 41))
	if err != nil {
		t.Fatalf("append teamless: %v", err)
	}
	got, err := store.GetEvent(ctx, teamless.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.PlayerID != "" || got.Kind != event.KindKickoutWon || got.Seq != 4 {
		t.Fatalf("unexpected teamless event: %+v", got)
	}
	if got.Payload.String("note") != "from the stand" || !got.Timestamp.Equal(teamless.Timestamp) {
		t.Fatalf("expected payload and timestamp to round trip, got %+v", got)
	}
}

func testCorrection(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	original, err := store.AppendEvent(ctx, testEvent("e1", "club-a", "match-1", event.KindTackleWon, "club-a-p1", 5))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	successor := original
	successor.ID = "e2"
	stored, err := store.CorrectEvent(ctx, original.ID, successor)
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if stored.Seq != 2 || stored.Corrects != original.ID || stored.CorrectedBy != "" {
		t.Fatalf("unexpected successor: %+v", stored)
	}
	linked, err := store.GetEvent(ctx, original.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if linked.CorrectedBy != "e2" {
		t.Fatalf("expected original linked to e2, got %q", linked.CorrectedBy)
	}

	again := original
	again.ID = "e3"
	_, err = store.CorrectEvent(ctx, original.ID, again)
	if !apperrors.IsCode(err, apperrors.CodeAlreadyCorrected) {
		t.Fatalf("expected already corrected, got %v", err)
	}
	events, err := store.ListEvents(ctx, "match-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected failed correction to leave 2 events, got %d", len(events))
	}
	if latest, _ := store.LatestSeq(ctx, "match-1"); latest != 2 {
		t.Fatalf("expected failed correction not to consume a seq, got %d", latest)
	}

	if _, err := store.CorrectEvent(ctx, "missing", again); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testListAsOf(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	Seed(t, store, "club-b", "match-2")
	for i := 1; i <= 5; i++ {
		if _, err := store.AppendEvent(ctx, testEvent(fmt.Sprintf("a%d", i), "club-a", "match-1", event.KindBlock, "club-a-p2", 60-i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := store.AppendEvent(ctx, testEvent("b1", "club-b", "match-2", event.KindBlock, "club-b-p1", 1)); err != nil {
		t.Fatalf("append other match: %v", err)
	}

	all, err := store.ListEvents(ctx, "match-1", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 events, got %d", len(all))
	}
	for i, evt := range all {
		if evt.Seq != uint64(i+1) {
			t.Fatalf("expected seq order, got %d at %d", evt.Seq, i)
		}
	}
	partial, err := store.ListEvents(ctx, "match-1", 3)
	if err != nil {
		t.Fatalf("list as of: %v", err)
	}
	if len(partial) != 3 || partial[2].Seq != 3 {
		t.Fatalf("expected events up to seq 3, got %d", len(partial))
	}
	other, err := store.ListEvents(ctx, "match-2", 0)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 1 || other[0].Seq != 1 {
		t.Fatalf("expected independent sequence per match, got %+v", other)
	}
}

func testNotFound(t *testing.T, store storage.Store) {
	ctx := context.Background()
	checks := []error{
		second(store.GetClub(ctx, "missing")),
		second(store.GetMember(ctx, "missing")),
		second(store.GetPlayer(ctx, "missing")),
		second(store.GetMatch(ctx, "missing")),
		second(store.GetEvent(ctx, "missing")),
	}
	for i, err := range checks {
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("check %d: expected not found, got %v", i, err)
		}
	}
}

func second[T any](_ T, err error) error {
	return err
}

func testConcurrentMatches(t *testing.T, store storage.Store) {
	ctx := context.Background()
	Seed(t, store, "club-a", "match-1")
	Seed(t, store, "club-b", "match-2")

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for _, target := range []struct{ club, match, player string }{
		{"club-a", "match-1", "club-a-p1"},
		{"club-b", "match-2", "club-b-p1"},
	} {
		wg.Add(1)
		go func(club, matchID, player string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				id := fmt.Sprintf("%s-e%d", matchID, i)
				if _, err := store.AppendEvent(ctx, testEvent(id, club, matchID, event.KindTurnoverWon, player, i)); err != nil {
					errs <- err
				}
			}
		}(target.club, target.match, target.player)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent append: %v", err)
	}
	for _, matchID := range []string{"match-1", "match-2"} {
		latest, err := store.LatestSeq(ctx, matchID)
		if err != nil {
			t.Fatalf("latest seq: %v", err)
		}
		if latest != 20 {
			t.Fatalf("%s: expected 20 events, got %d", matchID, latest)
		}
	}
}
