package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver via database/sql
	_ "modernc.org/sqlite"             // Pure Go SQLite driver
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Open initializes the database for the given dialect and creates the
// schema. SQLite is the zero-config default; Postgres expects a DSN.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case DialectSQLite, "":
		return InitSQLite(dsn)
	case DialectPostgres:
		return InitPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown database dialect %q", dialect)
	}
}

// InitSQLite initializes the local SQLite database and creates the
// schemas for players, inventories, transcripts and the event log.
func InitSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db, sqliteSchemas); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

// InitPostgres connects to PostgreSQL through the pgx stdlib driver
// and creates the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	if err := createSchemas(db, postgresSchemas); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

var sqliteSchemas = []string{
	`CREATE TABLE IF NOT EXISTS players (
		email TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		level INTEGER NOT NULL,
		current_xp INTEGER NOT NULL,
		required_xp INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		streak INTEGER NOT NULL,
		rank TEXT NOT NULL,
		class TEXT NOT NULL,
		title TEXT NOT NULL,
		stats TEXT NOT NULL,
		equipment TEXT NOT NULL,
		history TEXT NOT NULL,
		last_updated DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		item_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		item_type TEXT NOT NULL,
		rarity TEXT NOT NULL,
		slot TEXT NOT NULL,
		bonuses TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_email ON inventory_items(email);`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_chat_email ON chat_messages(email);`,
	`CREATE TABLE IF NOT EXISTS system_events (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		date TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_player ON system_events(player_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON system_events(date);`,
}

var postgresSchemas = []string{
	`CREATE TABLE IF NOT EXISTS players (
		email TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		level INTEGER NOT NULL,
		current_xp INTEGER NOT NULL,
		required_xp INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		streak INTEGER NOT NULL,
		rank TEXT NOT NULL,
		class TEXT NOT NULL,
		title TEXT NOT NULL,
		stats JSONB NOT NULL,
		equipment JSONB NOT NULL,
		history JSONB NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		item_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		item_type TEXT NOT NULL,
		rarity TEXT NOT NULL,
		slot TEXT NOT NULL,
		bonuses JSONB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_email ON inventory_items(email);`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_chat_email ON chat_messages(email);`,
	`CREATE TABLE IF NOT EXISTS system_events (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		date TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_player ON system_events(player_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON system_events(date);`,
}

func createSchemas(db *sql.DB, schemas []string) error {
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
