package analytics

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/tandembot/tandem/internal/models"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := NewSQLiteSink(WithDSN(":memory:"))
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func round(sessionID string, idx, cImp, cEval, vImp, vEval int) models.RoundSnapshot {
	return models.RoundSnapshot{
		SessionID:         sessionID,
		CreatorID:         "100",
		VisitorID:         "200",
		Pack:              "classic",
		CreatedAt:         1700000000,
		QuestionIndex:     idx,
		CreatorImportance: cImp,
		CreatorEvaluation: cEval,
		VisitorImportance: vImp,
		VisitorEvaluation: vEval,
		CreatorReadyAt:    1700000100,
		VisitorReadyAt:    1700000101,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSQLiteSinkAggregate(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	// Scores are importance * (evaluation - 2). Round 3 scores zero on both
	// sides and must not count toward shares or averages.
	rounds := []models.RoundSnapshot{
		round("sess-1", 0, 4, 4, 2, 0), // creator +8, visitor -4
		round("sess-1", 1, 0, 1, 1, 3), // creator 0, visitor +1
		round("sess-1", 2, 0, 0, 3, 2), // both 0, excluded
	}
	for _, r := range rounds {
		if err := sink.RecordRound(ctx, r); err != nil {
			t.Fatalf("RecordRound idx %d: %v", r.QuestionIndex, err)
		}
	}

	agg, err := sink.QueryAggregate(ctx, "sess-1")
	if err != nil {
		t.Fatalf("QueryAggregate: %v", err)
	}
	if agg.IsEmpty() {
		t.Fatal("expected non-empty aggregate")
	}
	if agg.CreatorTotal != 8 {
		t.Errorf("creator total = %d, want 8", agg.CreatorTotal)
	}
	if agg.VisitorTotal != -3 {
		t.Errorf("visitor total = %d, want -3", agg.VisitorTotal)
	}
	if agg.CreatorAvg == nil || !almostEqual(*agg.CreatorAvg, 4.0) {
		t.Errorf("creator avg = %v, want 4.0", agg.CreatorAvg)
	}
	if agg.VisitorAvg == nil || !almostEqual(*agg.VisitorAvg, -1.5) {
		t.Errorf("visitor avg = %v, want -1.5", agg.VisitorAvg)
	}
	if agg.SharePositiveCreator == nil || !almostEqual(*agg.SharePositiveCreator, 50.0) {
		t.Errorf("creator positive share = %v, want 50.0", agg.SharePositiveCreator)
	}
	if agg.SharePositiveVisitor == nil || !almostEqual(*agg.SharePositiveVisitor, 50.0) {
		t.Errorf("visitor positive share = %v, want 50.0", agg.SharePositiveVisitor)
	}
}

func TestSQLiteSinkAggregateEmpty(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	agg, err := sink.QueryAggregate(ctx, "sess-none")
	if err != nil {
		t.Fatalf("QueryAggregate with no rows: %v", err)
	}
	if !agg.IsEmpty() {
		t.Errorf("expected empty aggregate for unknown session, got %+v", agg)
	}

	// Rows where both sides score zero are excluded, leaving the aggregate
	// just as empty as having no rows at all.
	if err := sink.RecordRound(ctx, round("sess-2", 0, 0, 4, 2, 2)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	agg, err = sink.QueryAggregate(ctx, "sess-2")
	if err != nil {
		t.Fatalf("QueryAggregate: %v", err)
	}
	if !agg.IsEmpty() {
		t.Errorf("expected empty aggregate for all-zero rounds, got %+v", agg)
	}
	if agg.CreatorTotal != 0 || agg.VisitorTotal != 0 {
		t.Errorf("totals = %d/%d, want 0/0", agg.CreatorTotal, agg.VisitorTotal)
	}
}

func TestSQLiteSinkAggregateIsolatedPerSession(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	if err := sink.RecordRound(ctx, round("sess-a", 0, 4, 4, 4, 4)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := sink.RecordRound(ctx, round("sess-b", 0, 1, 4, 1, 0)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}

	agg, err := sink.QueryAggregate(ctx, "sess-b")
	if err != nil {
		t.Fatalf("QueryAggregate: %v", err)
	}
	if agg.CreatorTotal != 2 || agg.VisitorTotal != -2 {
		t.Errorf("totals = %d/%d, want 2/-2", agg.CreatorTotal, agg.VisitorTotal)
	}
}

func TestRebindPostgres(t *testing.T) {
	got := rebindPostgres("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebindPostgres = %q, want %q", got, want)
	}
}

// TestPostgresSink exercises the Postgres backend against a live database.
// Set TANDEM_TEST_POSTGRES_DSN to run it.
func TestPostgresSink(t *testing.T) {
	dsn := os.Getenv("TANDEM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TANDEM_TEST_POSTGRES_DSN not set; skipping Postgres integration test")
	}

	sink, err := NewPostgresSink(WithDSN(dsn))
	if err != nil {
		t.Fatalf("NewPostgresSink: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()
	sessionID := fmt.Sprintf("pg-test-%d", time.Now().UnixNano())
	if err := sink.RecordRound(ctx, round(sessionID, 0, 3, 4, 2, 1)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	agg, err := sink.QueryAggregate(ctx, sessionID)
	if err != nil {
		t.Fatalf("QueryAggregate: %v", err)
	}
	if agg.CreatorTotal != 6 || agg.VisitorTotal != -2 {
		t.Errorf("totals = %d/%d, want 6/-2", agg.CreatorTotal, agg.VisitorTotal)
	}
}
