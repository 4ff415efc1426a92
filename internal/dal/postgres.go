package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// PostgresDAL implements RosterDAL using PostgreSQL
type PostgresDAL struct {
	sqlStore
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string, seed *models.Seed) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG optimization: Configure connection pool settings
	db.SetMaxOpenConns(25)                 // Limit max connections (CloudNativePG default max_connections is 100)
	db.SetMaxIdleConns(5)                  // Keep some idle connections for quick reuse
	db.SetConnMaxLifetime(5 * time.Minute) // Recycle connections to handle failovers gracefully
	db.SetConnMaxIdleTime(1 * time.Minute) // Close idle connections to reduce load

	// Retry the first ping while Kubernetes DNS catches up
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := NewPostgresDALFromDB(db, seed)
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

// NewPostgresDALFromDB wraps an open connection without touching the schema
func NewPostgresDALFromDB(db *sql.DB, seed *models.Seed) *PostgresDAL {
	if seed == nil {
		seed = DefaultSeed()
	}
	return &PostgresDAL{sqlStore{db: db, seed: seed, numbered: true}}
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		profession TEXT NOT NULL,
		power INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS operator_settings (
		operator_id TEXT PRIMARY KEY,
		probability DOUBLE PRECISION NOT NULL DEFAULT 1.0,
		max_sages INTEGER NOT NULL DEFAULT 1,
		max_knights INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS operator_lists (
		operator_id TEXT NOT NULL REFERENCES operator_settings(operator_id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		PRIMARY KEY (operator_id, kind, player_id)
	);

	CREATE TABLE IF NOT EXISTS leader_candidates (
		player_id TEXT PRIMARY KEY REFERENCES players(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL
	);

	-- CloudNativePG optimization: Add indexes for common query patterns
	CREATE INDEX IF NOT EXISTS idx_players_seq ON players(seq);
	CREATE INDEX IF NOT EXISTS idx_operator_lists_order ON operator_lists(operator_id, kind, seq);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}

	return p.seedIfEmpty()
}
