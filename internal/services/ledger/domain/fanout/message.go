// Package fanout delivers committed ledger mutations to live subscribers.
package fanout

import (
	"time"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
)

// MessageType names a server or client frame.
type MessageType string

const (
	TypeEventAppended  MessageType = "event_appended"
	TypeEventCorrected MessageType = "event_corrected"
	TypePhaseChanged   MessageType = "phase_changed"
	TypeScoreUpdate    MessageType = "score_update"

	TypeSubscribe       MessageType = "subscribe"
	TypeSubscribed      MessageType = "subscribed"
	TypeClosed          MessageType = "closed"
	TypeSnapshotRequest MessageType = "snapshot_request"
	TypeSnapshot        MessageType = "snapshot"
	TypePing            MessageType = "ping"
	TypePong            MessageType = "pong"
	TypeError           MessageType = "error"
)

// Message is one frame exchanged with a live connection.
type Message struct {
	Type    MessageType `json:"type"`
	MatchID string      `json:"match_id,omitempty"`
	Seq     uint64      `json:"seq,omitempty"`
	Data    any         `json:"data,omitempty"`
}

// EventView is the wire form of an event.
type EventView struct {
	ID          string         `json:"id"`
	MatchID     string         `json:"match_id"`
	Seq         uint64         `json:"seq"`
	Kind        event.Kind     `json:"kind"`
	PlayerID    string         `json:"player_id,omitempty"`
	Minute      int            `json:"minute"`
	Timestamp   time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload,omitempty"`
	Corrects    string         `json:"corrects,omitempty"`
	CorrectedBy string         `json:"corrected_by,omitempty"`
	Void        bool           `json:"void,omitempty"`
}

// NewEventView converts an event for the wire.
func NewEventView(evt event.Event) EventView {
	return EventView{
		ID:          evt.ID,
		MatchID:     evt.MatchID,
		Seq:         evt.Seq,
		Kind:        evt.Kind,
		PlayerID:    evt.PlayerID,
		Minute:      evt.Minute,
		Timestamp:   evt.Timestamp,
		Payload:     evt.Payload.Clone(),
		Corrects:    evt.Corrects,
		CorrectedBy: evt.CorrectedBy,
		Void:        evt.IsVoid(),
	}
}

// MatchView is the wire form of a match.
type MatchView struct {
	ID          string          `json:"id"`
	Opponent    string          `json:"opponent"`
	Venue       string          `json:"venue,omitempty"`
	Competition string          `json:"competition,omitempty"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Phase       match.Phase     `json:"phase"`
	EntryMode   match.EntryMode `json:"entry_mode"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewMatchView converts a match for the wire.
func NewMatchView(m match.Match) MatchView {
	return MatchView{
		ID:          m.ID,
		Opponent:    m.Opponent,
		Venue:       m.Venue,
		Competition: m.Competition,
		ScheduledAt: m.ScheduledAt,
		Phase:       m.Phase,
		EntryMode:   m.EntryMode,
		UpdatedAt:   m.UpdatedAt,
	}
}

// CorrectionData is the payload of an event_corrected message.
type CorrectionData struct {
	Original  EventView `json:"original"`
	Successor EventView `json:"successor"`
}

// ScoreData is the payload of a score_update message.
type ScoreData struct {
	stats.Score
	Line string `json:"line"`
}

// NewScoreData pairs a score with its read-out line.
func NewScoreData(s stats.Score) ScoreData {
	return ScoreData{Score: s, Line: s.Line()}
}

// MessageFor converts a committed mutation to its broadcast frame.
func MessageFor(m ledger.Mutation) Message {
	msg := Message{Type: MessageType(m.Type), MatchID: m.MatchID, Seq: m.Seq}
	switch m.Type {
	case ledger.MutationEventAppended:
		if m.Event != nil {
			msg.Data = NewEventView(*m.Event)
		}
	case ledger.MutationEventCorrected:
		if m.Event != nil && m.Original != nil {
			msg.Data = CorrectionData{Original: NewEventView(*m.Original), Successor: NewEventView(*m.Event)}
		}
	case ledger.MutationPhaseChanged:
		if m.Match != nil {
			msg.Data = NewMatchView(*m.Match)
		}
	case ledger.MutationScoreUpdate:
		if m.Score != nil {
			msg.Data = NewScoreData(*m.Score)
		}
	}
	return msg
}

// Closed builds the final frame sent before a connection closes.
func Closed(matchID string, reason CloseReason) Message {
	return Message{Type: TypeClosed, MatchID: matchID, Data: map[string]string{"reason": string(reason)}}
}
