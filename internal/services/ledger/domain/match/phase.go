package match

import "strings"

// Phase is the match lifecycle label.
type Phase string

const (
	PhaseUnspecified Phase = ""
	PhaseScheduled   Phase = "scheduled"
	PhaseInProgress  Phase = "in_progress"
	PhaseCompleted   Phase = "completed"
	PhasePostponed   Phase = "postponed"
	PhaseCancelled   Phase = "cancelled"
)

// Phases lists every lifecycle phase.
var Phases = []Phase{PhaseScheduled, PhaseInProgress, PhaseCompleted, PhasePostponed, PhaseCancelled}

// Valid reports whether p names a lifecycle phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseScheduled, PhaseInProgress, PhaseCompleted, PhasePostponed, PhaseCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// PhaseFromLabel parses a phase label, accepting upper-case, hyphenated and
// MATCH_PHASE_ prefixed forms.
func PhaseFromLabel(value string) (Phase, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "match_phase_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "live":
		return PhaseInProgress, true
	case "canceled":
		return PhaseCancelled, true
	}
	phase := Phase(normalized)
	if !phase.Valid() {
		return PhaseUnspecified, false
	}
	return phase, true
}

// IsTransitionAllowed reports whether from -> to is a legal lifecycle step.
func IsTransitionAllowed(from, to Phase) bool {
	switch from {
	case PhaseScheduled:
		return to == PhaseInProgress || to == PhasePostponed || to == PhaseCancelled
	case PhaseInProgress:
		return to == PhaseCompleted
	case PhasePostponed:
		return to == PhaseScheduled
	default:
		return false
	}
}

// EntryMode controls whether events are recorded live or after the final
// whistle from video.
type EntryMode string

const (
	EntryModeLive      EntryMode = "live"
	EntryModePostMatch EntryMode = "post_match"
)

// EntryModeFromLabel parses an entry mode label; empty means live.
func EntryModeFromLabel(value string) (EntryMode, bool) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_") {
	case "", "live":
		return EntryModeLive, true
	case "post_match":
		return EntryModePostMatch, true
	default:
		return "", false
	}
}
