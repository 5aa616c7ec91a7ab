// Package store persists the single active document summary.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docsum/config"
	"docsum/types"
)

// ErrNotFound is returned by Load when no summary has been saved yet.
var ErrNotFound = errors.New("summary not found")

// SummaryStore is a one-slot store: Save overwrites, Load reads whatever was
// saved last. Implementations do not guard against a Save racing a Load.
type SummaryStore interface {
	Save(context.Context, types.Summary) error
	Load(context.Context) (types.Summary, error)
	Close() error
}

// Open builds the backend named by cfg.Kind.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (SummaryStore, error) {
	logger = logger.With(slog.String("module", "store"), slog.String("kind", cfg.Kind))

	switch cfg.Kind {
	case "", "file":
		return NewFileStore(cfg.FilePath), nil
	case "memory":
		return NewMemoryStore(), nil
	case "bolt":
		return NewBoltStore(cfg.BoltPath)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.PostgresDSN(), logger)
		if err != nil {
			return nil, err
		}
		if err := s.Init(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("error to create tables: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown summary store %q", cfg.Kind)
	}
}
