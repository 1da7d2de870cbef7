// Package analytics provides the per-round analytics sink for Tandem.
//
// This file implements the PostgreSQL-backed sink.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"github.com/tandembot/tandem/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresSink is a PostgreSQL-backed analytics sink.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink creates a Postgres sink from the DSN option and applies
// migrations.
func NewPostgresSink(opts ...Option) (*PostgresSink, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresSink invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresSink DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresSink{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

// RecordRound inserts one completed question's row.
func (s *PostgresSink) RecordRound(ctx context.Context, snap models.RoundSnapshot) error {
	_, err := s.db.ExecContext(ctx, rebindPostgres(insertRoundQuery),
		snap.SessionID, snap.CreatorID, snap.VisitorID, snap.Pack, snap.CreatedAt, snap.QuestionIndex,
		snap.CreatorImportance, snap.CreatorEvaluation, snap.VisitorImportance, snap.VisitorEvaluation,
		snap.CreatorReadyAt, snap.VisitorReadyAt,
	)
	if err != nil {
		slog.Error("PostgresSink RecordRound failed", "error", err, "session", snap.SessionID)
		return fmt.Errorf("failed to insert round for %s: %w", snap.SessionID, err)
	}
	slog.Debug("PostgresSink RecordRound succeeded", "session", snap.SessionID, "idx", snap.QuestionIndex)
	return nil
}

// QueryAggregate computes the session's report record.
func (s *PostgresSink) QueryAggregate(ctx context.Context, sessionID string) (models.Aggregate, error) {
	agg, err := scanAggregate(s.db.QueryRowContext(ctx, rebindPostgres(aggregateQuery), sessionID))
	if err != nil {
		slog.Error("PostgresSink QueryAggregate failed", "error", err, "session", sessionID)
		return models.Aggregate{}, fmt.Errorf("failed to query aggregate for %s: %w", sessionID, err)
	}
	slog.Debug("PostgresSink QueryAggregate succeeded", "session", sessionID, "empty", agg.IsEmpty())
	return agg, nil
}

// rebindPostgres rewrites ?-style placeholders into $1..$n.
func rebindPostgres(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
