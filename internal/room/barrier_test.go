package room

import (
	"context"
	"errors"
	"testing"

	"github.com/tandembot/tandem/internal/models"
)

func TestMarkReadySingleSide(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	both, err := e.barrier.MarkReady(ctx, code, models.RoleCreator)
	if err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if both {
		t.Error("one-sided ready must not open the barrier")
	}

	// The index never advances on a single-sided signal.
	idx, _, err := e.repo.QuestionIndex(ctx, code)
	if err != nil || idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
}

func TestMarkReadyBothSides(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	if both, _ := e.barrier.MarkReady(ctx, code, models.RoleVisitor); both {
		t.Fatal("barrier opened with only the visitor ready")
	}
	both, err := e.barrier.MarkReady(ctx, code, models.RoleCreator)
	if err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}
	if !both {
		t.Error("barrier should open once both sides are ready")
	}
}

func TestMarkReadyIdempotent(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	orig := timeNow
	defer func() { timeNow = orig }()
	timeNow = func() int64 { return 1000 }

	if _, err := e.barrier.MarkReady(ctx, code, models.RoleCreator); err != nil {
		t.Fatalf("MarkReady failed: %v", err)
	}

	// A repeated signal from the same side must not refresh the marker.
	timeNow = func() int64 { return 2000 }
	if both, _ := e.barrier.MarkReady(ctx, code, models.RoleCreator); both {
		t.Error("repeated one-sided ready must not open the barrier")
	}

	session, err := e.repo.GetSession(ctx, code)
	if err != nil || session == nil {
		t.Fatalf("session lost: %v", err)
	}
	if session.CreatorReadyAt == nil || *session.CreatorReadyAt != 1000 {
		t.Errorf("ready marker = %v, want the original 1000", session.CreatorReadyAt)
	}
}

func TestMarkReadyInvalidRole(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	_, err := e.barrier.MarkReady(ctx, code, models.Role("referee"))
	if !errors.Is(err, models.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
