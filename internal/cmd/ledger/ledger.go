// Package ledger parses ledger command flags and launches the service.
package ledger

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/pitchside/internal/platform/cmd"
	server "github.com/louisbranch/pitchside/internal/services/ledger/app"
	"github.com/louisbranch/pitchside/internal/services/ledger/auth"
)

// Config holds ledger command configuration.
type Config struct {
	GRPCAddr         string        `env:"LEDGER_GRPC_ADDR"         envDefault:":8090"`
	HTTPAddr         string        `env:"LEDGER_HTTP_ADDR"         envDefault:":8091"`
	DBPath           string        `env:"LEDGER_DB_PATH"           envDefault:"data/pitchside-ledger.db"`
	HandshakeTimeout time.Duration `env:"LEDGER_HANDSHAKE_TIMEOUT" envDefault:"5s"`
	SubscriberBuffer int           `env:"LEDGER_SUBSCRIBER_BUFFER" envDefault:"256"`
	RecentEvents     int           `env:"LEDGER_RECENT_EVENTS"     envDefault:"50"`
	RedisAddr        string        `env:"LEDGER_REDIS_ADDR"`
	RedisStream      string        `env:"LEDGER_REDIS_STREAM"      envDefault:"pitchside.match.updates"`
	AllowedOrigins   []string      `env:"LEDGER_ALLOWED_ORIGINS"   envSeparator:","`
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "ledger gRPC listen address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "ledger HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path (empty keeps state in memory)")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "live subscription handshake deadline")
	fs.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", cfg.SubscriberBuffer, "outbound messages queued per live connection")
	fs.IntVar(&cfg.RecentEvents, "recent-events", cfg.RecentEvents, "events included in a snapshot")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the update relay (empty disables it)")
	fs.StringVar(&cfg.RedisStream, "redis-stream", cfg.RedisStream, "redis stream receiving match updates")
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the identity verifier and serves the ledger until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	identityCfg, err := auth.LoadConfigFromEnv(nil)
	if err != nil {
		return fmt.Errorf("load identity config: %w", err)
	}
	identities, err := auth.NewVerifier(identityCfg)
	if err != nil {
		return fmt.Errorf("build identity verifier: %w", err)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(ctx context.Context) error {
		if err := server.Run(ctx, server.Config{
			GRPCAddr:         cfg.GRPCAddr,
			HTTPAddr:         cfg.HTTPAddr,
			DBPath:           cfg.DBPath,
			HandshakeTimeout: cfg.HandshakeTimeout,
			SubscriberBuffer: cfg.SubscriberBuffer,
			RecentEvents:     cfg.RecentEvents,
			RedisAddr:        cfg.RedisAddr,
			RedisStream:      cfg.RedisStream,
			AllowedOrigins:   cfg.AllowedOrigins,
			Identities:       identities,
		}); err != nil {
			return fmt.Errorf("serve ledger: %w", err)
		}
		return nil
	})
}
