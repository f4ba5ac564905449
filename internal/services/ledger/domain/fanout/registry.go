package fanout

import (
	"log"
	"sort"
	"sync"
)

// Subscriber is one live connection in a match group.
type Subscriber interface {
	ID() string
	// Deliver queues msg without blocking and reports whether it fit.
	Deliver(msg Message) bool
	// Close ends the connection. It must not block and may be called twice.
	Close(reason CloseReason)
}

// Registry tracks the fanout group of every match with live subscribers.
// Its locks are independent of ledger locking.
type Registry struct {
	mu     sync.Mutex
	groups map[string]*group
}

type group struct {
	mu      sync.Mutex
	members map[string]Subscriber
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*group)}
}

func (r *Registry) group(matchID string, create bool) *group {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[matchID]
	if !ok && create {
		g = &group{members: make(map[string]Subscriber)}
		r.groups[matchID] = g
	}
	return g
}

// Join adds sub to the group of matchID. Messages published after Join
// returns reach sub; earlier ones do not.
func (r *Registry) Join(matchID string, sub Subscriber) {
	for {
		g := r.group(matchID, true)
		g.mu.Lock()
		// A group emptied by Leave may have been dropped from the map.
		if r.current(matchID, g) {
			g.members[sub.ID()] = sub
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()
	}
}

func (r *Registry) current(matchID string, g *group) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groups[matchID] == g
}

// Leave removes the subscriber from the group of matchID. It is safe to
// call for subscribers that were never added.
func (r *Registry) Leave(matchID, subscriberID string) {
	g := r.group(matchID, false)
	if g == nil {
		return
	}
	g.mu.Lock()
	delete(g.members, subscriberID)
	empty := len(g.members) == 0
	if empty {
		r.mu.Lock()
		if r.groups[matchID] == g {
			delete(r.groups, matchID)
		}
		r.mu.Unlock()
	}
	g.mu.Unlock()
}

// Publish delivers msg to every current member of the match group and
// returns the number of members that accepted it. A member whose queue is
// full is evicted and closed; the others are unaffected.
func (r *Registry) Publish(matchID string, msg Message) int {
	g := r.group(matchID, false)
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delivered := 0
	for id, sub := range g.members {
		if sub.Deliver(msg) {
			delivered++
			continue
		}
		delete(g.members, id)
		sub.Close(ReasonSlowConsumer)
		log.Printf("fanout: evicted slow subscriber conn=%q match=%q", id, matchID)
	}
	return delivered
}

// Members lists subscriber ids of the match group in sorted order.
func (r *Registry) Members(matchID string) []string {
	g := r.group(matchID, false)
	if g == nil {
		return nil
	}
	g.mu.Lock()
	ids := make([]string, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	g.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// CloseAll closes every subscriber, e.g. on shutdown.
func (r *Registry) CloseAll(reason CloseReason) {
	r.mu.Lock()
	groups := r.groups
	r.groups = make(map[string]*group)
	r.mu.Unlock()
	for _, g := range groups {
		g.mu.Lock()
		for _, sub := range g.members {
			sub.Close(reason)
		}
		g.members = map[string]Subscriber{}
		g.mu.Unlock()
	}
}
