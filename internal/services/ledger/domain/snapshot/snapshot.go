// Package snapshot builds the current state of a match from its ledger.
package snapshot

import (
	"sort"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
)

// DefaultRecentEvents is the recent-events window when none is configured.
const DefaultRecentEvents = 50

// LineupSlot is one player currently on the pitch.
type LineupSlot struct {
	PlayerID string `json:"player_id"`
	Position string `json:"position,omitempty"`
	// Since is the minute the player came on; zero for starters.
	Since int `json:"since"`
}

// Snapshot is everything a client needs to resynchronize.
type Snapshot struct {
	Match         fanout.MatchView   `json:"match"`
	LastSeq       uint64             `json:"last_seq"`
	RecentEvents  []fanout.EventView `json:"recent_events"`
	CurrentLineup []LineupSlot       `json:"current_lineup"`
	CurrentScore  fanout.ScoreData   `json:"current_score"`
}

// Build derives a snapshot from the committed events of m. events must be
// in sequence order. recentLimit bounds the recent events; zero or less
// uses DefaultRecentEvents.
func Build(m match.Match, events []event.Event, lineup []tenant.LineupEntry, recentLimit int) Snapshot {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentEvents
	}
	computed := stats.ComputeMatch(m.ID, m.ClubID, events)

	return Snapshot{
		Match:         fanout.NewMatchView(m),
		LastSeq:       computed.LastSeq,
		RecentEvents:  recent(events, recentLimit),
		CurrentLineup: CurrentLineup(lineup, events),
		CurrentScore:  fanout.NewScoreData(computed.Score()),
	}
}

// recent returns the latest limit active events by arrival, displayed by
// minute then sequence.
func recent(events []event.Event, limit int) []fanout.EventView {
	active := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if evt.Active() {
			active = append(active, evt)
		}
	}
	if len(active) > limit {
		active = active[len(active)-limit:]
	}
	sort.SliceStable(active, func(i, j int) bool { return event.DisplayLess(active[i], active[j]) })
	out := make([]fanout.EventView, len(active))
	for i, evt := range active {
		out[i] = fanout.NewEventView(evt)
	}
	return out
}

// CurrentLineup applies counted substitutions, in display order, to the
// starting players. A substitution's player comes on in place of the
// player named by its replaces payload.
func CurrentLineup(lineup []tenant.LineupEntry, events []event.Event) []LineupSlot {
	var onPitch []LineupSlot
	for _, entry := range lineup {
		if entry.Starting {
			onPitch = append(onPitch, LineupSlot{PlayerID: entry.PlayerID, Position: entry.Position})
		}
	}
	positions := make(map[string]string, len(lineup))
	for _, entry := range lineup {
		positions[entry.PlayerID] = entry.Position
	}

	subs := make([]event.Event, 0)
	for _, evt := range events {
		if evt.Kind == event.KindSubstitution && evt.Counts() {
			subs = append(subs, evt)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool { return event.DisplayLess(subs[i], subs[j]) })

	for _, sub := range subs {
		off := sub.Payload.String(event.PayloadReplaces)
		replaced := false
		for i, slot := range onPitch {
			if slot.PlayerID == off && off != "" {
				position := slot.Position
				if p := positions[sub.PlayerID]; p != "" {
					position = p
				}
				onPitch[i] = LineupSlot{PlayerID: sub.PlayerID, Position: position, Since: sub.Minute}
				replaced = true
				break
			}
		}
		if !replaced && !contains(onPitch, sub.PlayerID) {
			onPitch = append(onPitch, LineupSlot{PlayerID: sub.PlayerID, Position: positions[sub.PlayerID], Since: sub.Minute})
		}
	}
	if onPitch == nil {
		onPitch = []LineupSlot{}
	}
	return onPitch
}

func contains(slots []LineupSlot, playerID string) bool {
	for _, slot := range slots {
		if slot.PlayerID == playerID {
			return true
		}
	}
	return false
}
