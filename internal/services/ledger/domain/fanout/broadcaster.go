package fanout

import "github.com/louisbranch/pitchside/internal/services/ledger/domain/ledger"

// Mirror receives a copy of every broadcast message. Implementations
// must not block.
type Mirror interface {
	Mirror(msg Message)
}

// Broadcaster publishes ledger mutations to match groups.
type Broadcaster struct {
	registry *Registry
	mirrors  []Mirror
}

// NewBroadcaster builds a broadcaster over registry.
func NewBroadcaster(registry *Registry, mirrors ...Mirror) *Broadcaster {
	b := &Broadcaster{registry: registry}
	for _, m := range mirrors {
		if m != nil {
			b.mirrors = append(b.mirrors, m)
		}
	}
	return b
}

// Publish implements ledger.Publisher.
func (b *Broadcaster) Publish(m ledger.Mutation) {
	msg := MessageFor(m)
	b.registry.Publish(m.MatchID, msg)
	for _, mirror := range b.mirrors {
		mirror.Mirror(msg)
	}
}

var _ ledger.Publisher = (*Broadcaster)(nil)
