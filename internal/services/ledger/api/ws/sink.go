package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/louisbranch/pitchside/internal/platform/timeouts"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"golang.org/x/net/websocket"
)

var errSinkClosed = errors.New("websocket sink is closed")

// sink writes JSON frames to one websocket. Writes are serialized so the
// handshake path and the connection writer never interleave.
type sink struct {
	ws *websocket.Conn

	mu      sync.Mutex
	matchID string
	closed  bool
}

func newSink(ws *websocket.Conn) *sink {
	return &sink{ws: ws}
}

func (s *sink) setMatch(matchID string) {
	s.mu.Lock()
	s.matchID = matchID
	s.mu.Unlock()
}

// Send implements fanout.Sink.
func (s *sink) Send(ctx context.Context, msg fanout.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSinkClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = s.ws.SetWriteDeadline(writeDeadline(ctx))
	return websocket.JSON.Send(s.ws, msg)
}

// Close implements fanout.Sink. Unless the peer already went away, the
// client gets a closed frame naming the reason followed by a close frame
// carrying the reason's code.
func (s *sink) Close(reason fanout.CloseReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if reason != fanout.ReasonDisconnected {
		_ = s.ws.SetWriteDeadline(time.Now().Add(timeouts.LiveWrite))
		if err := websocket.JSON.Send(s.ws, fanout.Closed(s.matchID, reason)); err == nil {
			_ = s.ws.WriteClose(reason.Code())
		}
	}
	return s.ws.Close()
}

func writeDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(timeouts.LiveWrite)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}
