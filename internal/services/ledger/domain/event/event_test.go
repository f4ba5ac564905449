package event

import "testing"

func TestKindFromLabel(t *testing.T) {
	tests := map[string]Kind{
		"score_goal":     KindScoreGoal,
		" SCORE_1POINT ": KindScoreOnePoint,
		"score-2pt":      KindScoreTwoPoint,
		"score_1pt":      KindScoreOnePoint,
		"kickout_lost":   KindKickoutLost,
		"foul-conceded":  KindFoulConceded,
	}
	for label, want := range tests {
		got, ok := KindFromLabel(label)
		if !ok || got != want {
			t.Fatalf("label %q: expected %s, got %s (ok=%v)", label, want, got, ok)
		}
	}
	if _, ok := KindFromLabel("own_goal"); ok {
		t.Fatal("expected unknown label to be rejected")
	}
	if _, ok := KindFromLabel(""); ok {
		t.Fatal("expected empty label to be rejected")
	}
}

func TestKindsAreValid(t *testing.T) {
	if len(Kinds) != 17 {
		t.Fatalf("expected 17 kinds, got %d", len(Kinds))
	}
	seen := map[Kind]bool{}
	for _, kind := range Kinds {
		if !kind.Valid() {
			t.Fatalf("kind %s should be valid", kind)
		}
		if seen[kind] {
			t.Fatalf("duplicate kind %s", kind)
		}
		seen[kind] = true
	}
	if KindUnspecified.Valid() {
		t.Fatal("unspecified kind should be invalid")
	}
}

func TestRequiresPlayer(t *testing.T) {
	teamless := map[Kind]bool{KindKickoutWon: true, KindKickoutLost: true, KindInjury: true}
	for _, kind := range Kinds {
		if got := kind.RequiresPlayer(); got == teamless[kind] {
			t.Fatalf("kind %s: RequiresPlayer = %v", kind, got)
		}
	}
}

func TestCountsExcludesCorrectedAndVoid(t *testing.T) {
	active := Event{Kind: KindTackleWon}
	if !active.Counts() {
		t.Fatal("expected active event to count")
	}
	corrected := Event{Kind: KindTackleWon, CorrectedBy: "e2"}
	if corrected.Counts() {
		t.Fatal("expected corrected event not to count")
	}
	void := Event{Kind: KindTackleWon, Payload: Payload{PayloadVoid: true}}
	if void.Counts() {
		t.Fatal("expected void event not to count")
	}
	notVoid := Event{Kind: KindTackleWon, Payload: Payload{PayloadVoid: "yes"}}
	if !notVoid.Counts() {
		t.Fatal("expected non-boolean void marker to be ignored")
	}
}

func TestCloneDoesNotSharePayload(t *testing.T) {
	original := Event{Payload: Payload{"zone": map[string]any{"x": 1}, "tags": []any{"a"}}}
	clone := original.Clone()
	clone.Payload["zone"].(map[string]any)["x"] = 2
	clone.Payload["tags"].([]any)[0] = "b"
	if original.Payload["zone"].(map[string]any)["x"] != 1 {
		t.Fatal("expected nested map to be copied")
	}
	if original.Payload["tags"].([]any)[0] != "a" {
		t.Fatal("expected nested slice to be copied")
	}
}

func TestDisplayLess(t *testing.T) {
	early := Event{Minute: 30, Seq: 5}
	late := Event{Minute: 45, Seq: 2}
	tie := Event{Minute: 30, Seq: 6}
	if !DisplayLess(early, late) || DisplayLess(late, early) {
		t.Fatal("expected minute to order first")
	}
	if !DisplayLess(early, tie) {
		t.Fatal("expected sequence to break minute ties")
	}
}
