// Package analytics provides the per-round analytics sink for Tandem.
//
// Each completed question is written as one row; the aggregate query feeds
// the final session report. SQLite and PostgreSQL backends are provided.
package analytics

import (
	"context"

	"github.com/tandembot/tandem/internal/models"
)

// Sink records completed rounds and answers the per-session aggregate
// query used for report generation.
type Sink interface {
	// RecordRound writes the full row of one completed question. Callers
	// treat this as fire-and-forget: a failed write is logged, not fatal.
	RecordRound(ctx context.Context, snap models.RoundSnapshot) error

	// QueryAggregate computes per-role totals, positive shares, and
	// averages over all scored rows of the session. The optional fields of
	// the result are absent when no scored rows exist.
	QueryAggregate(ctx context.Context, sessionID string) (models.Aggregate, error)
}

// Opts holds configuration options for analytics backends.
type Opts struct {
	// DSN is the backend connection string: a file path for SQLite, a
	// postgres:// URL for PostgreSQL.
	DSN string
}

// Option defines a configuration option for analytics backends.
type Option func(*Opts)

// WithDSN sets the backend connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// aggregateQuery computes the session report record. A round contributes a
// score of importance * (evaluation - 2) per role; rows where both scores
// are zero carry no signal and are excluded. Placeholder style (? vs $n)
// is rewritten per backend.
const aggregateQuery = `
SELECT
    COUNT(*),
    COALESCE(SUM(creator_score), 0),
    COALESCE(SUM(visitor_score), 0),
    AVG(creator_score),
    AVG(visitor_score),
    CASE WHEN COUNT(*) = 0 THEN NULL
         ELSE 100.0 * SUM(CASE WHEN creator_score > 0 THEN 1 ELSE 0 END) / COUNT(*) END,
    CASE WHEN COUNT(*) = 0 THEN NULL
         ELSE 100.0 * SUM(CASE WHEN visitor_score > 0 THEN 1 ELSE 0 END) / COUNT(*) END
FROM (
    SELECT creator_importance * (creator_evaluation - 2) AS creator_score,
           visitor_importance * (visitor_evaluation - 2) AS visitor_score
    FROM rounds
    WHERE session_id = ?
) scored
WHERE creator_score <> 0 OR visitor_score <> 0`

const insertRoundQuery = `
INSERT INTO rounds (
    session_id, creator_id, visitor_id, pack, created_at, question_idx,
    creator_importance, creator_evaluation, visitor_importance, visitor_evaluation,
    creator_ready_at, visitor_ready_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
