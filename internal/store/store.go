// Package store provides the key-value backends that persist session state.
//
// Three drivers share one contract (core.Store plus Close):
//
//	memory   - process-local map, state is lost on restart
//	badger   - embedded BadgerDB directory, the default
//	postgres - a session_state table reached through a pgx pool
//
// Every driver reports a missing key as core.ErrNotFound.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/TableTamer/internal/config"
	"github.com/JonMunkholm/TableTamer/internal/core"
)

// Store is a core.Store that can enumerate its keys and holds resources
// until closed.
type Store interface {
	core.Store
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*Badger)(nil)
	_ Store = (*Postgres)(nil)
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		logger.Warn("using in-memory store, session state will not survive a restart")
		return NewMemory(), nil

	case config.DriverBadger:
		bcfg := DefaultConfig()
		bcfg.Path = cfg.Path
		bcfg.GCInterval = cfg.GCInterval
		bcfg.Logger = logger
		return OpenBadger(bcfg)

	case config.DriverPostgres:
		return OpenPostgres(ctx, PostgresConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
