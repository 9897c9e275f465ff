// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"

	"github.com/elys-network/basketvault/internal/logger"
)

// Tables lists every table the store owns, in drop order.
var Tables = []string{"vault_events", "vault_snapshots"}

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PostgresStore keeps the audit trail in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenPostgres connects to the database and checks it answers.
func OpenPostgres(ctx context.Context, cfg DBConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPostgresStore(db)
	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Msg("Successfully connected to the PostgreSQL database!")
	return s, nil
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, logger: logger.GetForComponent("event_store")}
}

// DB exposes the connection pool for maintenance scripts.
func (s *PostgresStore) DB() *sql.DB { return s.db }

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info().Msg("Closing database connection...")
	if err := s.db.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database connection")
		return err
	}
	return nil
}

// Ping checks the connection with a short timeout.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrStoreNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// EnsureSchema applies the DDL for the event log and snapshot tables.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrStoreNotInitialized
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS vault_events (
			seq BIGINT PRIMARY KEY,
			event_id UUID NOT NULL UNIQUE,
			batch_id UUID NOT NULL,
			event_type VARCHAR(64) NOT NULL,
			caller TEXT NOT NULL,
			event_time TIMESTAMPTZ NOT NULL,
			transfers TEXT[], -- coin strings moved by the event
			payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_vault_events_batch ON vault_events(batch_id);
		CREATE INDEX IF NOT EXISTS idx_vault_events_type ON vault_events(event_type);
		CREATE INDEX IF NOT EXISTS idx_vault_events_time ON vault_events(event_time DESC);

		CREATE TABLE IF NOT EXISTS vault_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			seq BIGINT NOT NULL,
			snapshot_time TIMESTAMPTZ NOT NULL,
			phase VARCHAR(32) NOT NULL,
			tokens TEXT[] NOT NULL,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_vault_snapshots_seq ON vault_snapshots(seq DESC, snapshot_id DESC);
	`
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	s.logger.Info().Strs("tables", Tables).Msg("Database schema ensured.")
	return nil
}

// DropSchema removes every table the store owns.
func (s *PostgresStore) DropSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrStoreNotInitialized
	}
	for _, table := range Tables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE;"); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	s.logger.Info().Strs("tables", Tables).Msg("Dropped vault tables")
	return nil
}
