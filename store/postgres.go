package store

import (
	"context"
	"errors"
	"log/slog"

	"docsum/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// slot is the primary key of the one row the table ever holds.
const slot = "current"

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger,
	}, nil
}

func (p *PostgresStore) Save(ctx context.Context, s types.Summary) error {
	query := `INSERT INTO summaries (slot, id, source, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot) DO UPDATE SET
			id = EXCLUDED.id,
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			created_at = EXCLUDED.created_at
			`
	_, err := p.pool.Exec(ctx, query, slot, s.ID, s.Source, s.Content, s.CreatedAt)
	return err
}

func (p *PostgresStore) Load(ctx context.Context) (types.Summary, error) {
	var s types.Summary
	err := p.pool.QueryRow(ctx,
		"SELECT id, source, content, created_at FROM summaries WHERE slot = $1", slot,
	).Scan(&s.ID, &s.Source, &s.Content, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Summary{}, ErrNotFound
	}
	if err != nil {
		return types.Summary{}, err
	}
	if s.Content == "" {
		return types.Summary{}, ErrNotFound
	}
	return s, nil
}

func (p *PostgresStore) createSummaryTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS summaries (
		slot TEXT PRIMARY KEY,
		id UUID NOT NULL,
		source TEXT,
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE
	);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createSummaryTable(ctx)
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("Postgres connection pool is closed")
	}
	return nil
}
