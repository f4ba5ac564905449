// Package seed parses seed command flags and loads fixtures into the
// ledger database.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/pitchside/internal/services/ledger/storage/sqlite"
	"github.com/louisbranch/pitchside/internal/tools/seed"
)

// Config holds seed command configuration.
type Config struct {
	DBPath  string
	Fixture string
	List    bool
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		DBPath:  envOrDefault(lookup, []string{"PITCHSIDE_LEDGER_DB_PATH"}, "data/pitchside-ledger.db"),
		Fixture: seed.DefaultFixture,
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "ledger sqlite database path")
	fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "embedded fixture name or path to a .json file")
	fs.BoolVar(&cfg.List, "list", false, "list embedded fixtures")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.List {
		names, err := seed.ListFixtures()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Available fixtures:")
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("db path is required")
	}

	fixture, err := seed.Load(cfg.Fixture)
	if err != nil {
		return err
	}
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer store.Close()

	sum, err := seed.Apply(ctx, store, fixture, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %d clubs, %d members, %d players, %d matches into %s\n", sum.Clubs, sum.Members, sum.Players, sum.Matches, cfg.DBPath)
	return nil
}

func envOrDefault(lookup EnvLookup, keys []string, fallback string) string {
	for _, key := range keys {
		if lookup == nil {
			break
		}
		value, ok := lookup(key)
		if ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return fallback
}
