// Package ws serves the live match subscription protocol over websocket.
//
// A client opens /ws and must send one subscribe frame carrying its caller
// identity and the match it wants to follow. The server answers with
// either a subscribed frame or a closed frame followed by a close code.
// Once subscribed the client receives every committed mutation of the
// match and may ask for a snapshot or ping at any time.
package ws

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/timeouts"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/snapshot"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/tenant"
	"golang.org/x/net/websocket"
)

// maxDecodeErrors closes a subscribed connection that keeps sending
// frames it cannot decode.
const maxDecodeErrors = 3

// Backend authorizes subscriptions and builds snapshots.
type Backend interface {
	fanout.Authorizer
	Snapshot(ctx context.Context, caller tenant.Caller, matchID string) (snapshot.Snapshot, error)
}

// Handler accepts live connections.
type Handler struct {
	registry         *fanout.Registry
	backend          Backend
	handshakeTimeout time.Duration
	buffer           int
	newID            func() (string, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithHandshakeTimeout bounds the time between connect and subscribed.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.handshakeTimeout = d
		}
	}
}

// WithBuffer sets the outbound queue length of each connection.
func WithBuffer(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithIDGenerator overrides connection id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(h *Handler) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// NewHandler builds a Handler that joins admitted connections to registry.
func NewHandler(registry *fanout.Registry, backend Backend, newID func() (string, error), opts ...Option) (*Handler, error) {
	if registry == nil {
		return nil, errors.New("fanout registry is required")
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if newID == nil {
		return nil, errors.New("id generator is required")
	}
	h := &Handler{
		registry:         registry,
		backend:          backend,
		handshakeTimeout: timeouts.Handshake,
		buffer:           fanout.DefaultBuffer,
		newID:            newID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP upgrades GET requests to websocket.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	websocket.Handler(h.serveConn).ServeHTTP(w, r)
}

// clientFrame is any frame a client may send.
type clientFrame struct {
	Type           fanout.MessageType `json:"type"`
	CallerIdentity string             `json:"caller_identity,omitempty"`
	MatchID        string             `json:"match_id,omitempty"`
	Locale         string             `json:"locale,omitempty"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) serveConn(ws *websocket.Conn) {
	ctx, cancel := context.WithCancel(ws.Request().Context())
	defer cancel()

	out := newSink(ws)
	defer func() {
		_ = out.Close(fanout.ReasonDisconnected)
	}()

	connID, err := h.newID()
	if err != nil {
		log.Printf("ws: generate connection id: %v", err)
		_ = out.Close(fanout.ReasonInternal)
		return
	}

	hs := fanout.NewHandshake()
	deadline := time.Now().Add(h.handshakeTimeout)
	_ = ws.SetReadDeadline(deadline)

	var first clientFrame
	if err := websocket.JSON.Receive(ws, &first); err != nil {
		if isTimeout(err) {
			hs.Close(fanout.ReasonTimeout)
			_ = out.Close(fanout.ReasonTimeout)
			return
		}
		if errors.Is(err, io.EOF) {
			hs.Close(fanout.ReasonDisconnected)
			return
		}
		hs.Close(fanout.ReasonUnauthenticated)
		_ = out.Close(fanout.ReasonUnauthenticated)
		return
	}
	if first.Type != fanout.TypeSubscribe {
		hs.Close(fanout.ReasonUnauthenticated)
		_ = out.Close(fanout.ReasonUnauthenticated)
		return
	}

	matchID := strings.TrimSpace(first.MatchID)
	out.setMatch(matchID)
	conn := fanout.NewConnection(connID, out, h.buffer)
	req := fanout.Request{CallerIdentity: strings.TrimSpace(first.CallerIdentity), MatchID: matchID}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		hs.Close(fanout.ReasonTimeout)
		_ = out.Close(fanout.ReasonTimeout)
		return
	}
	grant, reason, err := fanout.Admit(ctx, h.registry, h.backend, hs, req, conn, remaining)
	if err != nil {
		if reason == fanout.ReasonInternal {
			log.Printf("ws: admit conn=%q match=%q: %v", connID, matchID, err)
		}
		_ = out.Close(reason)
		return
	}
	defer h.registry.Leave(matchID, connID)
	_ = ws.SetReadDeadline(time.Time{})

	// Mutations published between Join and this frame wait in the queue
	// until Run starts, so subscribed is always the first frame.
	if err := out.Send(ctx, fanout.Message{Type: fanout.TypeSubscribed, MatchID: matchID}); err != nil {
		conn.Close(fanout.ReasonDisconnected)
		return
	}

	written := make(chan struct{})
	go func() {
		defer close(written)
		_ = conn.Run(ctx)
	}()

	s := session{
		handler: h,
		conn:    conn,
		grant:   grant,
		matchID: matchID,
		locale:  first.Locale,
	}
	s.readLoop(ctx, ws)
	conn.Close(fanout.ReasonDisconnected)
	<-written
	hs.Close(conn.Reason())
}

// session is the subscribed phase of one connection.
type session struct {
	handler *Handler
	conn    *fanout.Connection
	grant   fanout.Grant
	matchID string
	locale  string
}

func (s session) readLoop(ctx context.Context, ws *websocket.Conn) {
	decodeErrors := 0
	for {
		var frame clientFrame
		if err := websocket.JSON.Receive(ws, &frame); err != nil {
			select {
			case <-s.conn.Done():
				return
			default:
			}
			if errors.Is(err, io.EOF) || isClosed(err) {
				return
			}
			decodeErrors++
			s.reply(fanout.Message{Type: fanout.TypeError, MatchID: s.matchID, Data: errorData{
				Code:    string(apperrors.CodeValidation),
				Message: "invalid frame payload",
			}})
			if decodeErrors >= maxDecodeErrors {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case fanout.TypeSnapshotRequest:
			s.sendSnapshot(ctx)
		case fanout.TypePing:
			s.reply(fanout.Message{Type: fanout.TypePong, MatchID: s.matchID})
		default:
			s.reply(fanout.Message{Type: fanout.TypeError, MatchID: s.matchID, Data: errorData{
				Code:    string(apperrors.CodeValidation),
				Message: "unsupported frame type",
			}})
		}
	}
}

func (s session) sendSnapshot(ctx context.Context) {
	snap, err := s.handler.backend.Snapshot(ctx, s.grant.Caller, s.matchID)
	if err != nil {
		code, message := apperrors.UserMessage(err, s.locale)
		if code == apperrors.CodeUnknown {
			log.Printf("ws: snapshot conn=%q match=%q: %v", s.conn.ID(), s.matchID, err)
		}
		s.reply(fanout.Message{Type: fanout.TypeError, MatchID: s.matchID, Data: errorData{Code: string(code), Message: message}})
		return
	}
	s.reply(fanout.Message{Type: fanout.TypeSnapshot, MatchID: s.matchID, Seq: snap.LastSeq, Data: snap})
}

// reply queues msg behind any broadcast already waiting. A full queue
// means the client is not reading, which is a slow consumer.
func (s session) reply(msg fanout.Message) {
	if !s.conn.Deliver(msg) {
		s.conn.Close(fanout.ReasonSlowConsumer)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
