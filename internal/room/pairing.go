package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tandembot/tandem/internal/models"
)

// JoinOutcome distinguishes a fresh admission from an idempotent re-entry.
type JoinOutcome int

const (
	// JoinStarted means the visitor seat was just filled: the session is
	// now live and both sides should receive the first question.
	JoinStarted JoinOutcome = iota
	// JoinRejoined means an already-assigned occupant re-sent the code;
	// occupancy is unchanged and only that side gets a resend.
	JoinRejoined
)

// JoinResult describes a successful join.
type JoinResult struct {
	Outcome JoinOutcome
	// Role is the joining participant's role within the session.
	Role models.Role
	// Session is the record as of after the join.
	Session *models.Session
}

// Coordinator creates sessions, admits the second occupant, and handles
// re-entry by an already-assigned occupant.
type Coordinator struct {
	repo     *Repository
	contexts *ContextTracker
	packs    *Packs
}

// NewCoordinator creates a pairing Coordinator.
func NewCoordinator(repo *Repository, contexts *ContextTracker, packs *Packs) *Coordinator {
	return &Coordinator{repo: repo, contexts: contexts, packs: packs}
}

// Create validates the pack name and writes a new session with the caller
// as creator, returning the join code. Moving the creator's context to
// WAITING_FOR_PARTNER is the caller's responsibility.
func (c *Coordinator) Create(ctx context.Context, participantID, pack string) (string, error) {
	ok, err := c.packs.Exists(ctx, pack)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownPack, pack)
	}

	code, err := c.repo.CreateSession(ctx, participantID, pack)
	if err != nil {
		return "", err
	}
	slog.Info("Coordinator created room", "session", code, "creator", participantID, "pack", pack)
	return code, nil
}

// Join admits the participant into the session with the given code.
//
// An empty visitor seat is filled, both occupants' contexts move to IN_ROOM
// and both pointers are recorded. A participant who already holds a seat is
// re-admitted without mutating occupancy. A code whose both seats belong to
// others fails with ErrRoomFull; an unknown code with ErrUnknownRoom.
// Question delivery is the caller's responsibility in all outcomes.
func (c *Coordinator) Join(ctx context.Context, participantID, code string) (*JoinResult, error) {
	creator, visitor, err := c.repo.Occupants(ctx, code)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRoom, code)
	}

	switch {
	case *creator == participantID:
		return c.rejoin(ctx, participantID, code, models.RoleCreator)
	case visitor != nil && *visitor == participantID:
		return c.rejoin(ctx, participantID, code, models.RoleVisitor)
	case visitor == nil:
		return c.admit(ctx, participantID, code)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrRoomFull, code)
	}
}

// admit fills the empty visitor seat and brings both sides into the room.
func (c *Coordinator) admit(ctx context.Context, participantID, code string) (*JoinResult, error) {
	if err := c.repo.SetVisitor(ctx, code, participantID); err != nil {
		return nil, err
	}

	session, err := c.repo.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRoom, code)
	}

	for _, occupant := range []struct {
		id   string
		role models.Role
	}{
		{session.CreatorID, models.RoleCreator},
		{participantID, models.RoleVisitor},
	} {
		if err := c.repo.SetPointer(ctx, occupant.id, code, occupant.role); err != nil {
			return nil, err
		}
		if err := c.contexts.Set(ctx, occupant.id, models.ContextInRoom); err != nil {
			return nil, err
		}
	}

	slog.Info("Coordinator admitted visitor", "session", code, "visitor", participantID)
	return &JoinResult{Outcome: JoinStarted, Role: models.RoleVisitor, Session: session}, nil
}

// rejoin re-records the occupant's pointer and context without touching
// occupancy, so client retries never error and never mutate seats.
func (c *Coordinator) rejoin(ctx context.Context, participantID, code string, role models.Role) (*JoinResult, error) {
	if err := c.repo.SetPointer(ctx, participantID, code, role); err != nil {
		return nil, err
	}
	if err := c.contexts.Set(ctx, participantID, models.ContextInRoom); err != nil {
		return nil, err
	}

	session, err := c.repo.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}

	slog.Info("Coordinator re-admitted occupant", "session", code, "participant", participantID, "role", role)
	return &JoinResult{Outcome: JoinRejoined, Role: role, Session: session}, nil
}
