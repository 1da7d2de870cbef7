// Package analytics provides the per-round analytics sink for Tandem.
//
// This file implements the SQLite-backed sink, the default when no
// PostgreSQL DSN is configured.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/tandembot/tandem/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteSink is a SQLite-backed analytics sink.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink creates a SQLite sink at the DSN's file path, creating the
// parent directory when needed, and applies migrations.
func NewSQLiteSink(opts ...Option) (*SQLiteSink, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteSink invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteSink DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// In-memory and URI DSNs have no parent directory to create.
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteSink{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// RecordRound inserts one completed question's row.
func (s *SQLiteSink) RecordRound(ctx context.Context, snap models.RoundSnapshot) error {
	_, err := s.db.ExecContext(ctx, insertRoundQuery,
		snap.SessionID, snap.CreatorID, snap.VisitorID, snap.Pack, snap.CreatedAt, snap.QuestionIndex,
		snap.CreatorImportance, snap.CreatorEvaluation, snap.VisitorImportance, snap.VisitorEvaluation,
		snap.CreatorReadyAt, snap.VisitorReadyAt,
	)
	if err != nil {
		slog.Error("SQLiteSink RecordRound failed", "error", err, "session", snap.SessionID)
		return fmt.Errorf("failed to insert round for %s: %w", snap.SessionID, err)
	}
	slog.Debug("SQLiteSink RecordRound succeeded", "session", snap.SessionID, "idx", snap.QuestionIndex)
	return nil
}

// QueryAggregate computes the session's report record.
func (s *SQLiteSink) QueryAggregate(ctx context.Context, sessionID string) (models.Aggregate, error) {
	agg, err := scanAggregate(s.db.QueryRowContext(ctx, aggregateQuery, sessionID))
	if err != nil {
		slog.Error("SQLiteSink QueryAggregate failed", "error", err, "session", sessionID)
		return models.Aggregate{}, fmt.Errorf("failed to query aggregate for %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteSink QueryAggregate succeeded", "session", sessionID, "empty", agg.IsEmpty())
	return agg, nil
}
