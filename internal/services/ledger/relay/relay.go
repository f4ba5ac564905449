// Package relay mirrors fanout messages onto a Redis stream so consumers
// outside the ledger process can follow live matches.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/pitchside/internal/platform/timeouts"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
)

// DefaultStream is the stream key when none is configured.
const DefaultStream = "pitchside.match.updates"

// DefaultBuffer bounds messages waiting to be written to Redis.
const DefaultBuffer = 1024

// StreamAdder is the part of the Redis client the relay uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Relay copies broadcast messages to a Redis stream from a background
// worker. Mirror never blocks the broadcaster; a full queue drops.
type Relay struct {
	client StreamAdder
	stream string
	maxLen int64
	queue  chan fanout.Message

	published atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Relay.
type Option func(*Relay)

// WithBuffer sets the queue length.
func WithBuffer(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.queue = make(chan fanout.Message, n)
		}
	}
}

// WithMaxLen caps the stream length with approximate trimming.
func WithMaxLen(n int64) Option {
	return func(r *Relay) {
		if n > 0 {
			r.maxLen = n
		}
	}
}

// New builds a relay writing to stream.
func New(client StreamAdder, stream string, opts ...Option) (*Relay, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	r := &Relay{client: client, stream: stream, queue: make(chan fanout.Message, DefaultBuffer)}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Mirror implements fanout.Mirror.
func (r *Relay) Mirror(msg fanout.Message) {
	select {
	case r.queue <- msg:
	default:
		if r.dropped.Add(1) == 1 {
			log.Printf("relay: queue full, dropping messages stream=%q", r.stream)
		}
	}
}

// Run writes queued messages until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.queue:
			if err := r.publish(ctx, msg); err != nil {
				log.Printf("relay: publish match=%q type=%q: %v", msg.MatchID, msg.Type, err)
				continue
			}
			r.published.Add(1)
		}
	}
}

func (r *Relay) publish(ctx context.Context, msg fanout.Message) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.RelayPublish)
	defer cancel()
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"match_id": msg.MatchID,
			"type":     string(msg.Type),
			"seq":      strconv.FormatUint(msg.Seq, 10),
			"data":     string(data),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	return r.client.XAdd(ctx, args).Err()
}

// Stats reports how many messages were written and dropped.
func (r *Relay) Stats() (published, dropped int64) {
	return r.published.Load(), r.dropped.Load()
}

var _ fanout.Mirror = (*Relay)(nil)

// Dial connects to Redis at addr and checks it responds.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
