package server

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	platformgrpc "github.com/louisbranch/pitchside/internal/platform/grpc"
	grpcapi "github.com/louisbranch/pitchside/internal/services/ledger/api/grpc"
	"github.com/louisbranch/pitchside/internal/services/ledger/auth"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage/sqlite"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage/storagetest"
)

type tokenTable map[string]string

func (t tokenTable) Verify(token string) (auth.Identity, error) {
	userID, ok := t[strings.TrimPrefix(token, "Bearer ")]
	if !ok {
		return auth.Identity{}, apperrors.New(apperrors.CodeUnauthenticated, "unknown token")
	}
	return auth.Identity{UserID: userID}, nil
}

func seedDB(t *testing.T, path string) {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open seed store: %v", err)
	}
	storagetest.Seed(t, store, "club-a", "match-a")
	if err := store.Close(); err != nil {
		t.Fatalf("close seed store: %v", err)
	}
}

func startServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})
	return srv
}

func TestNewRequiresIdentities(t *testing.T) {
	if _, err := New(context.Background(), Config{GRPCAddr: "127.0.0.1:0", HTTPAddr: "127.0.0.1:0"}); err == nil {
		t.Fatal("expected error without identity verifier")
	}
}

func TestServerRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	seedDB(t, dbPath)
	srv := startServer(t, Config{
		GRPCAddr:   "127.0.0.1:0",
		HTTPAddr:   "127.0.0.1:0",
		DBPath:     dbPath,
		Identities: tokenTable{"tok-a": "admin-club-a"},
	})

	ctx := context.Background()
	conn, err := platformgrpc.Dial(ctx, srv.GRPCAddr(), platformgrpc.DialConfig{
		Timeout:       5 * time.Second,
		HealthService: grpcapi.ServiceName,
	})
	if err != nil {
		t.Fatalf("dial ledger: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	httpURL := "http://" + srv.HTTPAddr()
	live, err := websocket.Dial("ws://"+srv.HTTPAddr()+"/ws", "", httpURL)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer live.Close()
	if err := websocket.JSON.Send(live, map[string]any{"type": "subscribe", "caller_identity": "tok-a", "match_id": "match-a"}); err != nil {
		t.Fatalf("send subscribe: %v", err)
	}
	var frame struct {
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
	}
	_ = live.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.JSON.Receive(live, &frame); err != nil || frame.Type != "subscribed" {
		t.Fatalf("expected subscribed, got %+v %v", frame, err)
	}

	client := grpcapi.NewClient(conn)
	callCtx := grpcapi.WithBearer(ctx, "tok-a")
	out, err := client.Call(callCtx, grpcapi.MethodAppendEvent, map[string]any{
		"match_id":  "match-a",
		"kind":      "score_goal",
		"player_id": "club-a-p1",
		"minute":    9,
	})
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	if got := out.GetFields()["seq"].GetNumberValue(); got != 1 {
		t.Fatalf("seq = %v, want 1", got)
	}

	_ = live.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.JSON.Receive(live, &frame); err != nil || frame.Type != "event_appended" || frame.Seq != 1 {
		t.Fatalf("expected event_appended seq 1, got %+v %v", frame, err)
	}

	req, err := http.NewRequest(http.MethodGet, httpURL+"/matches/match-a/stats", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer tok-a")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
}

func TestServerInMemory(t *testing.T) {
	srv := startServer(t, Config{
		GRPCAddr:   "127.0.0.1:0",
		HTTPAddr:   "127.0.0.1:0",
		Identities: tokenTable{},
	})
	resp, err := http.Get("http://" + srv.HTTPAddr() + "/up")
	if err != nil {
		t.Fatalf("get /up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
