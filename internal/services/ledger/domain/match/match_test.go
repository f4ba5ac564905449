package match

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

func TestCreateNormalizesInput(t *testing.T) {
	fixedTime := time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC)
	m, err := Create(CreateInput{
		ClubID:      " club-1 ",
		Opponent:    "  Ballyboden  ",
		Competition: "League",
	}, func() time.Time { return fixedTime }, func() (string, error) { return "m-1", nil })
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ID != "m-1" || m.ClubID != "club-1" || m.Opponent != "Ballyboden" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Phase != PhaseScheduled {
		t.Fatalf("expected scheduled, got %s", m.Phase)
	}
	if m.EntryMode != EntryModeLive {
		t.Fatalf("expected live entry mode default, got %s", m.EntryMode)
	}
	if !m.UpdatedAt.Equal(fixedTime) {
		t.Fatal("expected updated at to match fixed time")
	}
}

func TestNormalizeCreateInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  CreateInput
		reason string
	}{
		{name: "missing club", input: CreateInput{Opponent: "X"}, reason: "club id is required"},
		{name: "missing opponent", input: CreateInput{ClubID: "c", Opponent: "  "}, reason: "opponent is required"},
		{name: "bad entry mode", input: CreateInput{ClubID: "c", Opponent: "X", EntryMode: "replay"}, reason: "entry mode is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeCreateInput(tt.input)
			if !apperrors.IsCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := apperrors.GetMetadata(err)["Reason"]; got != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, got)
			}
		})
	}
}

func TestTransitionPhaseAllowed(t *testing.T) {
	at := time.Date(2026, 5, 3, 15, 0, 0, 0, time.UTC)
	allowed := []struct{ from, to Phase }{
		{PhaseScheduled, PhaseInProgress},
		{PhaseScheduled, PhasePostponed},
		{PhaseScheduled, PhaseCancelled},
		{PhaseInProgress, PhaseCompleted},
		{PhasePostponed, PhaseScheduled},
	}
	for _, tc := range allowed {
		t.Run(string(tc.from)+" to "+string(tc.to), func(t *testing.T) {
			updated, err := TransitionPhase(Match{ID: "m", Phase: tc.from}, tc.to, func() time.Time { return at })
			if err != nil {
				t.Fatalf("transition: %v", err)
			}
			if updated.Phase != tc.to {
				t.Fatalf("expected phase %s, got %s", tc.to, updated.Phase)
			}
			if !updated.UpdatedAt.Equal(at) {
				t.Fatal("expected updated at to be stamped")
			}
		})
	}
}

func TestTransitionPhaseRefusesEverythingElse(t *testing.T) {
	for _, from := range Phases {
		for _, to := range append(Phases, PhaseUnspecified) {
			if IsTransitionAllowed(from, to) {
				continue
			}
			original := Match{ID: "m", Phase: from}
			updated, err := TransitionPhase(original, to, nil)
			if !errors.Is(err, apperrors.New(apperrors.CodeIllegalTransition, "")) {
				t.Fatalf("%s -> %s: expected illegal transition, got %v", from, to, err)
			}
			if updated != original {
				t.Fatalf("%s -> %s: expected match unchanged", from, to)
			}
			var appErr *apperrors.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("expected domain error, got %T", err)
			}
			if appErr.Metadata["FromPhase"] != string(from) || appErr.Metadata["ToPhase"] != string(to) {
				t.Fatalf("unexpected metadata: %v", appErr.Metadata)
			}
		}
	}
}

func TestTerminalPhasesHaveNoExit(t *testing.T) {
	for _, from := range Phases {
		if !from.Terminal() {
			continue
		}
		for _, to := range Phases {
			if IsTransitionAllowed(from, to) {
				t.Fatalf("terminal phase %s should not move to %s", from, to)
			}
		}
	}
}

func TestAcceptsEvents(t *testing.T) {
	tests := []struct {
		phase Phase
		mode  EntryMode
		want  bool
	}{
		{PhaseScheduled, EntryModeLive, false},
		{PhaseInProgress, EntryModeLive, true},
		{PhaseInProgress, EntryModePostMatch, true},
		{PhaseCompleted, EntryModeLive, false},
		{PhaseCompleted, EntryModePostMatch, true},
		{PhasePostponed, EntryModePostMatch, false},
		{PhaseCancelled, EntryModePostMatch, false},
	}
	for _, tt := range tests {
		m := Match{ID: "m", Phase: tt.phase, EntryMode: tt.mode}
		if got := AcceptsEvents(m); got != tt.want {
			t.Fatalf("%s/%s: expected %v, got %v", tt.phase, tt.mode, tt.want, got)
		}
		err := RequireAcceptsEvents(m)
		if tt.want && err != nil {
			t.Fatalf("%s/%s: unexpected error %v", tt.phase, tt.mode, err)
		}
		if !tt.want && !apperrors.IsCode(err, apperrors.CodeInvalidState) {
			t.Fatalf("%s/%s: expected invalid state, got %v", tt.phase, tt.mode, err)
		}
	}
}

func TestPhaseFromLabel(t *testing.T) {
	tests := map[string]Phase{
		"scheduled":             PhaseScheduled,
		"IN_PROGRESS":           PhaseInProgress,
		"in-progress":           PhaseInProgress,
		"live":                  PhaseInProgress,
		"MATCH_PHASE_COMPLETED": PhaseCompleted,
		"canceled":              PhaseCancelled,
	}
	for label, want := range tests {
		got, ok := PhaseFromLabel(label)
		if !ok || got != want {
			t.Fatalf("label %q: expected %s, got %s", label, want, got)
		}
	}
	if _, ok := PhaseFromLabel("abandoned"); ok {
		t.Fatal("expected unknown label to be rejected")
	}
}
