package room

import (
	"context"
	"errors"
	"testing"

	"github.com/tandembot/tandem/internal/models"
)

func TestCreateUnknownPack(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.pairing.Create(ctx, "alice", "nonexistent")
	if !errors.Is(err, models.ErrUnknownPack) {
		t.Fatalf("expected ErrUnknownPack, got %v", err)
	}
}

func TestCreateReturnsJoinCode(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()

	code, err := e.pairing.Create(ctx, "alice", "icebreakers")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(code) != models.JoinCodeLength {
		t.Errorf("join code length = %d, want %d", len(code), models.JoinCodeLength)
	}

	session, err := e.repo.GetSession(ctx, code)
	if err != nil || session == nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.CreatorID != "alice" {
		t.Errorf("creator = %q, want alice", session.CreatorID)
	}
	if session.VisitorID != nil {
		t.Errorf("visitor should be unset, got %q", *session.VisitorID)
	}
	if session.QuestionIndex != 0 {
		t.Errorf("index = %d, want 0", session.QuestionIndex)
	}
	if session.Pack != "icebreakers" {
		t.Errorf("pack = %q, want icebreakers", session.Pack)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.pairing.Join(ctx, "bob", "NOSUCHROOM123456")
	if !errors.Is(err, models.ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}

	// No mutation: the participant stays out of any session.
	ptr, err := e.repo.GetPointer(ctx, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptr != nil {
		t.Errorf("pointer should not exist after failed join, got %+v", ptr)
	}
}

func TestJoinAdmitsVisitor(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()

	code, err := e.pairing.Create(ctx, "alice", "icebreakers")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	res, err := e.pairing.Join(ctx, "bob", code)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if res.Outcome != JoinStarted {
		t.Errorf("outcome = %v, want JoinStarted", res.Outcome)
	}
	if res.Role != models.RoleVisitor {
		t.Errorf("role = %q, want visitor", res.Role)
	}

	for _, tc := range []struct {
		id   string
		role models.Role
	}{{"alice", models.RoleCreator}, {"bob", models.RoleVisitor}} {
		ptr, err := e.repo.GetPointer(ctx, tc.id)
		if err != nil || ptr == nil {
			t.Fatalf("pointer for %s missing: %v", tc.id, err)
		}
		if ptr.SessionID != code || ptr.Role != tc.role {
			t.Errorf("pointer for %s = %+v, want {%s %s}", tc.id, ptr, code, tc.role)
		}
		state, err := e.contexts.Get(ctx, tc.id)
		if err != nil || state != models.ContextInRoom {
			t.Errorf("context for %s = %q, want IN_ROOM", tc.id, state)
		}
	}
}

func TestJoinRoomFull(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	_, err := e.pairing.Join(ctx, "mallory", code)
	if !errors.Is(err, models.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	// Occupancy unchanged: still alice and bob, never a third slot.
	session, err := e.repo.GetSession(ctx, code)
	if err != nil || session == nil {
		t.Fatalf("session lost: %v", err)
	}
	if session.CreatorID != "alice" || session.VisitorID == nil || *session.VisitorID != "bob" {
		t.Errorf("occupancy changed: creator=%q visitor=%v", session.CreatorID, session.VisitorID)
	}
}

func TestJoinReentryIsIdempotent(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	// Both occupants retry the code; neither errors, occupancy unchanged.
	for _, tc := range []struct {
		id   string
		role models.Role
	}{{"bob", models.RoleVisitor}, {"alice", models.RoleCreator}} {
		res, err := e.pairing.Join(ctx, tc.id, code)
		if err != nil {
			t.Fatalf("re-entry by %s failed: %v", tc.id, err)
		}
		if res.Outcome != JoinRejoined {
			t.Errorf("re-entry outcome for %s = %v, want JoinRejoined", tc.id, res.Outcome)
		}
		if res.Role != tc.role {
			t.Errorf("re-entry role for %s = %q, want %q", tc.id, res.Role, tc.role)
		}
	}

	session, _ := e.repo.GetSession(ctx, code)
	if session.CreatorID != "alice" || *session.VisitorID != "bob" {
		t.Error("re-entry mutated occupancy")
	}
}

func TestRoleNeverReassigned(t *testing.T) {
	e := newEngine(t)
	e.seedPack(t, "icebreakers", "q1", "q2")
	ctx := context.Background()
	code := e.pair(t, "alice", "bob", "icebreakers")

	// Repeated joins over the session's life keep role assignments stable.
	for i := 0; i < 3; i++ {
		res, err := e.pairing.Join(ctx, "alice", code)
		if err != nil || res.Role != models.RoleCreator {
			t.Fatalf("alice role drifted on attempt %d: %v %v", i, res, err)
		}
		res, err = e.pairing.Join(ctx, "bob", code)
		if err != nil || res.Role != models.RoleVisitor {
			t.Fatalf("bob role drifted on attempt %d: %v %v", i, res, err)
		}
	}
}
