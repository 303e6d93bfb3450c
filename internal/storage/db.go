package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (d *DB) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}

const Schema = `
CREATE TABLE IF NOT EXISTS pdf_chunks (
  chunk_id   TEXT PRIMARY KEY,
  doc_id     TEXT NOT NULL,
  title      TEXT NOT NULL,
  text       TEXT NOT NULL,
  page       INT NOT NULL,
  url        TEXT NOT NULL DEFAULT '',
  topic      TEXT NOT NULL DEFAULT '*',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS pdf_chunks_doc_idx ON pdf_chunks(doc_id);

CREATE TABLE IF NOT EXISTS provider_attempts (
  attempt_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
  request_id TEXT NOT NULL,
  seq        INT NOT NULL,
  provider   TEXT NOT NULL,
  model      TEXT NOT NULL DEFAULT '',
  status     TEXT NOT NULL,
  error_type TEXT,
  elapsed_ms BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS provider_attempts_request_idx ON provider_attempts(request_id);
`
