// Package ledger records match events and their corrections.
//
// Each match is its own serialization domain: appends, corrections and
// phase transitions for one match run under that match's lock, so sequence
// numbers are gap-free and publish order equals commit order. Different
// matches never share a lock. Reads go straight to the store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/id"
	"github.com/louisbranch/pitchside/internal/platform/otel"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/event"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/match"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/stats"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
)

// MaxMinute bounds the match minute accepted on an event, allowing for
// injury time and two periods of extra time.
const MaxMinute = 120

// Store is the persistence the ledger needs.
type Store interface {
	storage.EventStore
	GetMatch(ctx context.Context, id string) (match.Match, error)
	UpdateMatchPhase(ctx context.Context, matchID string, phase match.Phase, at time.Time) error
	GetPlayer(ctx context.Context, id string) (tenant.Player, error)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the receiver of committed mutations.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithClock overrides the wall clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides event id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// Ledger is the source of truth for match events.
type Ledger struct {
	store     Store
	publisher Publisher
	now       func() time.Time
	newID     func() (string, error)
	tracer    trace.Tracer

	mu      sync.Mutex
	domains map[string]*domain
}

// domain is the serialization domain of one match.
type domain struct {
	mu      sync.Mutex
	matchID string
	loaded  bool
	lastSeq uint64
	score   *stats.Accumulator
	aborted atomic.Pointer[abortReason]
}

type abortReason struct {
	err error
}

// New builds a ledger over store.
func New(store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	l := &Ledger{
		store:     store,
		publisher: discardPublisher{},
		now:       time.Now,
		newID:     id.NewID,
		tracer:    otel.Tracer("github.com/louisbranch/pitchside/ledger"),
		domains:   make(map[string]*domain),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

func (l *Ledger) domain(matchID string) *domain {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.domains[matchID]
	if !ok {
		d = &domain{matchID: matchID}
		l.domains[matchID] = d
	}
	return d
}

// Aborted reports whether matchID's ledger has been halted and why.
func (l *Ledger) Aborted(matchID string) (bool, error) {
	l.mu.Lock()
	d, ok := l.domains[matchID]
	l.mu.Unlock()
	if !ok {
		return false, nil
	}
	if reason := d.aborted.Load(); reason != nil {
		return true, reason.err
	}
	return false, nil
}

func (d *domain) checkAborted() error {
	if reason := d.aborted.Load(); reason != nil {
		return apperrors.Wrap(apperrors.CodeLedgerAborted,
			fmt.Sprintf("ledger for match %s is aborted", d.matchID), reason.err)
	}
	return nil
}

// abort halts every further mutation of the match. A broken sequence means
// scores can no longer be trusted, so nothing continues past it.
func (d *domain) abort(cause error) error {
	d.aborted.CompareAndSwap(nil, &abortReason{err: cause})
	log.Printf("ledger: match %s aborted: %v", d.matchID, cause)
	return d.checkAborted()
}

// load rebuilds the cached sequence and score from the store on first use.
// The caller holds d.mu.
func (l *Ledger) load(ctx context.Context, d *domain, clubID string) error {
	if d.loaded {
		return nil
	}
	events, err := l.store.ListEvents(ctx, d.matchID, 0)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := VerifySequence(events); err != nil {
		return d.abort(err)
	}
	acc := stats.NewAccumulator(d.matchID, clubID)
	for _, evt := range events {
		acc.Append(evt)
	}
	d.lastSeq = uint64(len(events))
	d.score = acc
	d.loaded = true
	return nil
}

// VerifySequence checks that events carry sequence numbers 1..n in order.
func VerifySequence(events []event.Event) error {
	for i, evt := range events {
		expected := uint64(i) + 1
		if evt.Seq != expected {
			return fmt.Errorf("event sequence gap: expected %d got %d", expected, evt.Seq)
		}
	}
	return nil
}

// commit checks the store-assigned sequence against the domain's own count.
// The caller holds d.mu.
func (d *domain) commit(stored event.Event) error {
	expected := d.lastSeq + 1
	if stored.Seq != expected {
		if stored.Seq <= d.lastSeq {
			return d.abort(fmt.Errorf("duplicate event sequence: expected %d got %d", expected, stored.Seq))
		}
		return d.abort(fmt.Errorf("event sequence gap: expected %d got %d", expected, stored.Seq))
	}
	d.lastSeq = stored.Seq
	return nil
}

func (l *Ledger) startSpan(ctx context.Context, name, matchID string) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("match.id", matchID)))
}

func endSpan(span trace.Span, seq uint64, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int64("ledger.seq", int64(seq)))
	}
	span.End()
}

func requireID(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		reason := name + " is required"
		return "", apperrors.WithMetadata(apperrors.CodeValidation, reason, map[string]string{"Reason": reason})
	}
	return value, nil
}
