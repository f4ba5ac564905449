package stats

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
)

func testEvent(seq uint64, kind event.Kind, playerID string, minute int) event.Event {
	return event.Event{
		ID:       fmt.Sprintf("evt-%d", seq),
		MatchID:  "match-1",
		ClubID:   "club-1",
		Seq:      seq,
		Kind:     kind,
		PlayerID: playerID,
		Minute:   minute,
	}
}

func TestComputeMatchScoreScenario(t *testing.T) {
	events := []event.Event{
		testEvent(1, event.KindScoreGoal, "p", 10),
		testEvent(2, event.KindScoreOnePoint, "p", 20),
		testEvent(3, event.KindScoreTwoPoint, "p", 30),
	}
	result := ComputeMatch("match-1", "club-1", events)
	if got := result.Score().Total; got != 6 {
		t.Fatalf("expected total score 6, got %d", got)
	}
	if got := result.Player("p").Points(); got != 6 {
		t.Fatalf("expected player score 6, got %d", got)
	}
	if result.Score().Line() != "1-3 (6)" {
		t.Fatalf("unexpected score line %q", result.Score().Line())
	}
	if result.LastSeq != 3 {
		t.Fatalf("expected last seq 3, got %d", result.LastSeq)
	}
}

func TestComputeMatchExcludesCorrectedEvent(t *testing.T) {
	e1 := testEvent(1, event.KindTackleWon, "p", 5)
	e2 := e1
	e2.ID, e2.Seq, e2.Corrects = "evt-2", 2, e1.ID
	e1.CorrectedBy = e2.ID

	result := ComputeMatch("match-1", "club-1", []event.Event{e1, e2})
	if result.Team.TacklesWon != 1 {
		t.Fatalf("expected exactly one tackle won, got %d", result.Team.TacklesWon)
	}
	if result.Corrected != 1 {
		t.Fatalf("expected one corrected event, got %d", result.Corrected)
	}
}

func TestCorrectionChainOnlyTailCounts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		chain := make([]event.Event, n)
		for i := range chain {
			chain[i] = testEvent(uint64(i+1), event.KindScoreGoal, "p", 12)
			if i > 0 {
				chain[i].Corrects = chain[i-1].ID
				chain[i-1].CorrectedBy = chain[i].ID
			}
		}
		result := ComputeMatch("match-1", "club-1", chain)
		if result.Team.Goals != 1 {
			t.Fatalf("chain of %d: expected 1 goal, got %d", n, result.Team.Goals)
		}
		if result.Corrected != n-1 {
			t.Fatalf("chain of %d: expected %d corrected, got %d", n, n-1, result.Corrected)
		}
	}
}

func TestVoidTailContributesNothing(t *testing.T) {
	e1 := testEvent(1, event.KindScoreGoal, "p", 40)
	e2 := e1
	e2.ID, e2.Seq, e2.Corrects = "evt-2", 2, e1.ID
	e2.Payload = event.Payload{event.PayloadVoid: true}
	e1.CorrectedBy = e2.ID

	result := ComputeMatch("match-1", "club-1", []event.Event{e1, e2})
	if result.Score().Total != 0 {
		t.Fatalf("expected void correction to remove the score, got %d", result.Score().Total)
	}
	if result.Voided != 1 || result.LastSeq != 2 {
		t.Fatalf("expected void placeholder to consume seq 2, got voided=%d last=%d", result.Voided, result.LastSeq)
	}
	if result.PlayersUsed != 0 {
		t.Fatalf("expected no players with stats, got %d", result.PlayersUsed)
	}
}

func TestComputeMatchDeterministicAndOrderIndependent(t *testing.T) {
	events := randomLedger(rand.New(rand.NewSource(7)), 120)
	first := ComputeMatch("match-1", "club-1", events)
	second := ComputeMatch("match-1", "club-1", events)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical results on repeated runs")
	}

	shuffled := append([]event.Event(nil), events...)
	rand.New(rand.NewSource(11)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if !reflect.DeepEqual(first, ComputeMatch("match-1", "club-1", shuffled)) {
		t.Fatal("expected result independent of input order")
	}
}

func TestAccumulatorMatchesFromScratch(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		acc := NewAccumulator("match-1", "club-1")
		var ledger []event.Event
		byID := map[string]int{}
		seq := uint64(0)

		for step := 0; step < 80; step++ {
			seq++
			if len(ledger) > 0 && rng.Intn(3) == 0 {
				idx := rng.Intn(len(ledger))
				if !ledger[idx].Active() {
					idx = byID[tailOf(ledger, byID, idx)]
				}
				original := ledger[idx]
				successor := original.Clone()
				successor.ID = fmt.Sprintf("evt-%d", seq)
				successor.Seq = seq
				successor.Corrects = original.ID
				if rng.Intn(2) == 0 {
					successor.Payload = event.Payload{event.PayloadVoid: true}
				}
				ledger[idx].CorrectedBy = successor.ID
				ledger = append(ledger, successor)
				byID[successor.ID] = len(ledger) - 1
				acc.Correct(original, successor)
			} else {
				evt := randomEvent(rng, seq)
				ledger = append(ledger, evt)
				byID[evt.ID] = len(ledger) - 1
				acc.Append(evt)
			}

			want := ComputeMatch("match-1", "club-1", ledger)
			if got := acc.Stats(); !reflect.DeepEqual(got, want) {
				t.Fatalf("seed %d step %d: incremental %+v != from scratch %+v", seed, step, got, want)
			}
		}
	}
}

func tailOf(ledger []event.Event, byID map[string]int, idx int) string {
	for !ledger[idx].Active() {
		idx = byID[ledger[idx].CorrectedBy]
	}
	return ledger[idx].ID
}

func randomEvent(rng *rand.Rand, seq uint64) event.Event {
	kind := event.Kinds[rng.Intn(len(event.Kinds))]
	player := ""
	if kind.RequiresPlayer() || rng.Intn(2) == 0 {
		player = fmt.Sprintf("p-%d", rng.Intn(4))
	}
	return testEvent(seq, kind, player, rng.Intn(75))
}

func randomLedger(rng *rand.Rand, n int) []event.Event {
	var ledger []event.Event
	for i := 1; i <= n; i++ {
		ledger = append(ledger, randomEvent(rng, uint64(i)))
	}
	return ledger
}

func TestEveryKindChangesTally(t *testing.T) {
	for _, kind := range event.Kinds {
		var tally Tally
		tally.apply(kind, 1)
		if tally.IsZero() {
			t.Fatalf("kind %s is not counted", kind)
		}
	}
}

func TestRatesWithZeroDenominator(t *testing.T) {
	var tally Tally
	if tally.ShotAccuracy() != 0 || tally.TackleSuccessRate() != 0 || tally.KickoutWinRate() != 0 {
		t.Fatal("expected zero rates with no attempts")
	}
}

func TestPlayerBreakdown(t *testing.T) {
	events := []event.Event{
		testEvent(1, event.KindShotOnTarget, "p", 1),
		testEvent(2, event.KindShotWide, "p", 2),
		testEvent(3, event.KindShotSaved, "p", 3),
		testEvent(4, event.KindShotOnTarget, "p", 4),
		testEvent(5, event.KindTackleWon, "p", 5),
		testEvent(6, event.KindTackleLost, "p", 6),
		testEvent(7, event.KindTackleWon, "p", 7),
		testEvent(8, event.KindTurnoverWon, "p", 8),
		testEvent(9, event.KindTurnoverLost, "p", 9),
		testEvent(10, event.KindTurnoverLost, "p", 10),
		testEvent(11, event.KindKickoutWon, "", 11),
		testEvent(12, event.KindKickoutLost, "", 12),
		testEvent(13, event.KindKickoutWon, "", 13),
	}
	result := ComputeMatch("match-1", "club-1", events)
	p := result.Player("p")
	if p.ShotAccuracy() != 0.5 {
		t.Fatalf("expected accuracy 0.5, got %v", p.ShotAccuracy())
	}
	if got := p.TackleSuccessRate(); got < 0.666 || got > 0.667 {
		t.Fatalf("expected tackle success 2/3, got %v", got)
	}
	if p.TurnoverDifferential() != -1 {
		t.Fatalf("expected turnover differential -1, got %d", p.TurnoverDifferential())
	}
	if result.Team.KickoutsWon != 2 || result.Team.KickoutsLost != 1 || result.Team.Kickouts() != 3 {
		t.Fatalf("unexpected kickouts: %+v", result.Team)
	}
	if p.Kickouts() != 0 {
		t.Fatal("expected teamless kickouts not to be attributed to a player")
	}
	if result.PlayersUsed != 1 {
		t.Fatalf("expected one player, got %d", result.PlayersUsed)
	}
}

func TestComputeSeasonIsolatesTenants(t *testing.T) {
	own1 := []event.Event{
		testEvent(1, event.KindScoreGoal, "p", 3),
		testEvent(2, event.KindScoreOnePoint, "q", 9),
	}
	own2 := []event.Event{
		{ID: "b1", MatchID: "match-2", ClubID: "club-1", Seq: 1, Kind: event.KindScoreTwoPoint, PlayerID: "p"},
		// Stray event tagged with another club must never count.
		{ID: "b2", MatchID: "match-2", ClubID: "club-2", Seq: 2, Kind: event.KindScoreGoal, PlayerID: "p"},
	}
	other := []event.Event{
		{ID: "c1", MatchID: "match-3", ClubID: "club-2", Seq: 1, Kind: event.KindScoreGoal, PlayerID: "p"},
	}

	season := ComputeSeason("club-1", []MatchEvents{
		{MatchID: "match-1", ClubID: "club-1", Events: own1},
		{MatchID: "match-2", ClubID: "club-1", Events: own2},
		{MatchID: "match-3", ClubID: "club-2", Events: other},
	})
	if season.Matches != 2 {
		t.Fatalf("expected 2 matches, got %d", season.Matches)
	}
	if season.Score().Total != 3+1+2 {
		t.Fatalf("expected season total 6, got %d", season.Score().Total)
	}
	if len(season.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(season.Players))
	}
	p := season.Players[0]
	if p.PlayerID != "p" || p.MatchesPlayed != 2 || p.Tally.Points() != 5 {
		t.Fatalf("unexpected player season: %+v", p)
	}
	if q := season.Players[1]; q.MatchesPlayed != 1 {
		t.Fatalf("expected q to have played once, got %d", q.MatchesPlayed)
	}
}
