package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
)

type fakeAdder struct {
	mu    sync.Mutex
	calls []*redis.XAddArgs
	err   error
	gate  chan struct{}
}

func (f *fakeAdder) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, a)
	return redis.NewStringResult("1-0", f.err)
}

func (f *fakeAdder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestRelayWritesStreamEntries(t *testing.T) {
	adder := &fakeAdder{}
	r, err := New(adder, "", WithMaxLen(500))
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Mirror(fanout.Message{Type: fanout.TypeScoreUpdate, MatchID: "m1", Seq: 7, Data: map[string]int{"total": 6}})

	deadline := time.Now().Add(2 * time.Second)
	for adder.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	if adder.count() != 1 {
		t.Fatalf("expected 1 write, got %d", adder.count())
	}
	args := adder.calls[0]
	if args.Stream != DefaultStream || args.MaxLen != 500 || !args.Approx {
		t.Fatalf("unexpected args: %+v", args)
	}
	values, ok := args.Values.(map[string]any)
	if !ok {
		t.Fatalf("unexpected values type %T", args.Values)
	}
	if values["match_id"] != "m1" || values["type"] != "score_update" || values["seq"] != "7" || values["data"] != `{"total":6}` {
		t.Fatalf("unexpected values: %v", values)
	}
	if published, dropped := r.Stats(); published != 1 || dropped != 0 {
		t.Fatalf("expected 1 published 0 dropped, got %d %d", published, dropped)
	}
}

func TestRelayDropsWhenFull(t *testing.T) {
	r, err := New(&fakeAdder{}, "custom", WithBuffer(2))
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	for i := 0; i < 5; i++ {
		r.Mirror(fanout.Message{Type: fanout.TypePhaseChanged, MatchID: "m1"})
	}
	if _, dropped := r.Stats(); dropped != 3 {
		t.Fatalf("expected 3 dropped, got %d", dropped)
	}
}

func TestRelayKeepsRunningAfterErrors(t *testing.T) {
	adder := &fakeAdder{err: errors.New("redis down")}
	r, err := New(adder, "s")
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Mirror(fanout.Message{Type: fanout.TypeEventAppended, MatchID: "m1", Seq: 1})
	r.Mirror(fanout.Message{Type: fanout.TypeEventAppended, MatchID: "m1", Seq: 2})
	deadline := time.Now().Add(2 * time.Second)
	for adder.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if adder.count() != 2 {
		t.Fatalf("expected both writes attempted, got %d", adder.count())
	}
	if published, _ := r.Stats(); published != 0 {
		t.Fatalf("expected no successful publishes, got %d", published)
	}
}
