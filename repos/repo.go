// Package repos persists distance runs to Postgres/PostGIS.
package repos

import (
	"context"
	_ "embed"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

type Repo struct {
	db *pgxpool.Pool
}

var ErrNotFound = pgx.ErrNoRows

func Connect(ctx context.Context, databaseURL string) (*Repo, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.ConnConfig.Tracer = &tracer{}

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	r.db.Close()
}

// Migrate creates the tables if they do not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
