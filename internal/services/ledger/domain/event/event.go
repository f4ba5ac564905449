// Package event defines the immutable match event recorded by the ledger.
package event

import (
	"strings"
	"time"
)

// PayloadVoid is the payload key marking an event as a zero-effect placeholder.
const PayloadVoid = "void"

// PayloadReplaces is the substitution payload key naming the player going off.
const PayloadReplaces = "replaces"

// Payload carries kind-specific detail, e.g. shot location or injury notes.
type Payload map[string]any

// Clone returns a deep copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return map[string]any(Payload(typed).Clone())
	case Payload:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Void reports whether the payload marks the event as a placeholder.
func (p Payload) Void() bool {
	v, ok := p[PayloadVoid].(bool)
	return ok && v
}

// String returns the string value stored under key, trimmed.
func (p Payload) String(key string) string {
	v, _ := p[key].(string)
	return strings.TrimSpace(v)
}

// Event is one recorded occurrence in a match ledger.
//
// Every field is fixed at append time except CorrectedBy, which is set at
// most once when a correction supersedes the event.
type Event struct {
	ID        string
	MatchID   string
	ClubID    string
	Seq       uint64
	Kind      Kind
	PlayerID  string
	Minute    int
	Timestamp time.Time
	Payload   Payload

	// Corrects names the event this one superseded, if any.
	Corrects string

	// CorrectedBy names the event that superseded this one.
	CorrectedBy string
}

// Active reports whether the event is the tail of its correction chain.
func (e Event) Active() bool {
	return e.CorrectedBy == ""
}

// IsVoid reports whether the event is a zero-effect placeholder.
func (e Event) IsVoid() bool {
	return e.Payload.Void()
}

// Counts reports whether the event contributes to derived statistics.
func (e Event) Counts() bool {
	return e.Active() && !e.IsVoid()
}

// Clone returns a copy that shares no mutable state with e.
func (e Event) Clone() Event {
	e.Payload = e.Payload.Clone()
	return e
}

// DisplayLess orders events by minute, using sequence as the tiebreak.
func DisplayLess(a, b Event) bool {
	if a.Minute != b.Minute {
		return a.Minute < b.Minute
	}
	return a.Seq < b.Seq
}
