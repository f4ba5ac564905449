// Package server wires the ledger runtime: storage, the per-match ledger,
// live fanout, and the gRPC and HTTP listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/pitchside/internal/platform/id"
	"github.com/louisbranch/pitchside/internal/platform/timeouts"
	grpcapi "github.com/louisbranch/pitchside/internal/services/ledger/api/grpc"
	httpapi "github.com/louisbranch/pitchside/internal/services/ledger/api/http"
	"github.com/louisbranch/pitchside/internal/services/ledger/api/ws"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/fanout"
	"github.com/louisbranch/pitchside/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/pitchside/internal/services/ledger/relay"
	"github.com/louisbranch/pitchside/internal/services/ledger/service"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage"
	"github.com/louisbranch/pitchside/internal/services/ledger/storage/sqlite"
)

// Config describes one ledger process.
type Config struct {
	GRPCAddr string
	HTTPAddr string
	// DBPath selects the sqlite file. Empty keeps everything in memory.
	DBPath           string
	HandshakeTimeout time.Duration
	SubscriberBuffer int
	RecentEvents     int
	RedisAddr        string
	RedisStream      string
	AllowedOrigins   []string
	// Identities verifies caller tokens on every surface.
	Identities service.IdentityVerifier
}

// Server hosts the ledger listeners and owns their resources.
type Server struct {
	grpcListener net.Listener
	httpListener net.Listener
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	registry     *fanout.Registry
	relay        *relay.Relay
	redis        *redis.Client
	store        storage.Store
	closeOnce    sync.Once
}

// New opens storage and binds both listeners.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Identities == nil {
		return nil, errors.New("identity verifier is required")
	}
	store, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	s := &Server{store: store, registry: fanout.NewRegistry()}

	var mirrors []fanout.Mirror
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client, err := relay.Dial(ctx, addr)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client
		s.relay, err = relay.New(client, cfg.RedisStream)
		if err != nil {
			s.Close()
			return nil, err
		}
		mirrors = append(mirrors, s.relay)
	}

	l, err := ledger.New(store, ledger.WithPublisher(fanout.NewBroadcaster(s.registry, mirrors...)))
	if err != nil {
		s.Close()
		return nil, err
	}
	svc, err := service.New(store, l,
		service.WithIdentityVerifier(cfg.Identities),
		service.WithRecentEvents(cfg.RecentEvents),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	live, err := ws.NewHandler(s.registry, svc, id.NewID,
		ws.WithHandshakeTimeout(cfg.HandshakeTimeout),
		ws.WithBuffer(cfg.SubscriberBuffer),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	api := grpcapi.NewServer(svc, cfg.Identities)
	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(api.UnaryInterceptor()),
	)
	grpcapi.RegisterLedgerServer(s.grpcServer, api)
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	s.httpServer = &http.Server{
		Handler: httpapi.NewRouter(httpapi.Config{
			Service:        svc,
			Identities:     cfg.Identities,
			Live:           live,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	if s.grpcListener, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	if s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	return s, nil
}

// GRPCAddr returns the bound gRPC address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves a ledger server until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs every listener until ctx is cancelled or one of them fails.
// Live connections are closed with a shutdown reason before the HTTP
// server drains.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	defer s.Close()

	log.Printf("ledger grpc listening at %v", s.grpcListener.Addr())
	log.Printf("ledger http listening at %v", s.httpListener.Addr())

	serveErr := make(chan error, 2)
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if s.relay != nil {
			_ = s.relay.Run(relayCtx)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	s.health.Shutdown()
	s.registry.CloseAll(fanout.ReasonShutdown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("ledger http shutdown: %v", shutdownErr)
	}
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		s.grpcServer.Stop()
	}
	stopRelay()
	<-relayDone
	return err
}

// Close releases server resources. It is safe to call more than once.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		for _, l := range []net.Listener{s.grpcListener, s.httpListener} {
			if l != nil {
				_ = l.Close()
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Printf("close redis client: %v", err)
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				log.Printf("close ledger store: %v", err)
			}
		}
	})
}

func openStore(ctx context.Context, path string) (storage.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return storage.NewMemory(), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open ledger sqlite store: %w", err)
	}
	return store, nil
}
