package dal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// SQLiteDAL implements RosterDAL using SQLite
type SQLiteDAL struct {
	sqlStore
}

// NewSQLiteDAL creates a new SQLite data access layer, seeding an empty database with seed
// (DefaultSeed when nil)
func NewSQLiteDAL(dbPath string, seed *models.Seed) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if seed == nil {
		seed = DefaultSeed()
	}
	dal := &SQLiteDAL{sqlStore{db: db, seed: seed}}

	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		profession TEXT NOT NULL,
		power INTEGER NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS operator_settings (
		operator_id TEXT PRIMARY KEY,
		probability REAL NOT NULL DEFAULT 1.0,
		max_sages INTEGER NOT NULL DEFAULT 1,
		max_knights INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS operator_lists (
		operator_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		player_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (operator_id, kind, player_id),
		FOREIGN KEY (operator_id) REFERENCES operator_settings(operator_id)
	);

	CREATE TABLE IF NOT EXISTS leader_candidates (
		player_id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		FOREIGN KEY (player_id) REFERENCES players(id)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	return s.seedIfEmpty()
}
