package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside the Docker runtime image, which does not carry this directory.
//
//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes shape. A database
// stamped with a newer version than this binary understands is refused.
const schemaVersion = 1

// Policy thresholds applied inside stats transactions.
const (
	attentionFlagThreshold = 0.5
	priorityWordThreshold  = 500
	priorityRoundThreshold = 3
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Study Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database liveness for the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InitSchema executes the embedded schema.sql DDL and enforces the version
// stamp. All statements are idempotent, so this runs on every startup.
func (s *PostgresStore) InitSchema() error {
	ctx := context.Background()

	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	var stored int
	err := s.pool.QueryRow(ctx, `SELECT version FROM schema_meta WHERE id = 1`).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %v", err)
	}
	if stored > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than this binary supports (%d), refusing downgrade", stored, schemaVersion)
	}
	if stored < schemaVersion {
		_, err := s.pool.Exec(ctx, `UPDATE schema_meta SET version = $1, applied_at = NOW() WHERE id = 1`, schemaVersion)
		if err != nil {
			return fmt.Errorf("failed to stamp schema version: %v", err)
		}
	}

	log.Println("Study platform schema initialized")
	return nil
}
