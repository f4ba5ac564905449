package ledger

import (
	"context"
	"flag"
	"strings"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCAddr != ":8090" {
		t.Fatalf("expected default grpc addr, got %q", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != ":8091" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/pitchside-ledger.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.HandshakeTimeout != 5*time.Second || cfg.SubscriberBuffer != 256 || cfg.RecentEvents != 50 {
		t.Fatalf("unexpected live defaults: %+v", cfg)
	}
	if cfg.RedisAddr != "" || cfg.RedisStream != "pitchside.match.updates" {
		t.Fatalf("unexpected relay defaults: %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("PITCHSIDE_LEDGER_GRPC_ADDR", "env-grpc")
	t.Setenv("PITCHSIDE_LEDGER_HTTP_ADDR", "env-http")
	t.Setenv("PITCHSIDE_LEDGER_HANDSHAKE_TIMEOUT", "2s")
	t.Setenv("PITCHSIDE_LEDGER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	args := []string{
		"-grpc-addr", "flag-grpc",
		"-db-path", "",
		"-redis-addr", "redis:6379",
	}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCAddr != "flag-grpc" {
		t.Fatalf("expected flag grpc addr, got %q", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != "env-http" {
		t.Fatalf("expected env http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "" {
		t.Fatalf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.HandshakeTimeout != 2*time.Second {
		t.Fatalf("expected env handshake timeout, got %v", cfg.HandshakeTimeout)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected flag redis addr, got %q", cfg.RedisAddr)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestRunRequiresIdentityConfig(t *testing.T) {
	t.Setenv("PITCHSIDE_LEDGER_IDENTITY_ISSUER", "")
	t.Setenv("PITCHSIDE_LEDGER_IDENTITY_PUBLIC_KEY", "")
	err := Run(context.Background(), Config{})
	if err == nil || !strings.Contains(err.Error(), "identity") {
		t.Fatalf("expected identity config error, got %v", err)
	}
}
